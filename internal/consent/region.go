package consent

import "strings"

// Region buckets a visitor into a privacy regime for consent gating.
type Region string

const (
	RegionEEA   Region = "EEA"
	RegionUK    Region = "UK"
	RegionCH    Region = "CH"
	RegionCA    Region = "CA"
	RegionOther Region = "OTHER"
)

// canadianZones lists IANA America/* city identifiers inside Canada.
// Canada/* aliases are handled by prefix in RegionFromTimezone.
var canadianZones = map[string]struct{}{
	"America/Atikokan":      {},
	"America/Blanc-Sablon":  {},
	"America/Cambridge_Bay": {},
	"America/Creston":       {},
	"America/Dawson":        {},
	"America/Dawson_Creek":  {},
	"America/Edmonton":      {},
	"America/Fort_Nelson":   {},
	"America/Glace_Bay":     {},
	"America/Goose_Bay":     {},
	"America/Halifax":       {},
	"America/Inuvik":        {},
	"America/Iqaluit":       {},
	"America/Moncton":       {},
	"America/Montreal":      {},
	"America/Nipigon":       {},
	"America/Pangnirtung":   {},
	"America/Rainy_River":   {},
	"America/Rankin_Inlet":  {},
	"America/Regina":        {},
	"America/Resolute":      {},
	"America/St_Johns":      {},
	"America/Swift_Current": {},
	"America/Thunder_Bay":   {},
	"America/Toronto":       {},
	"America/Vancouver":     {},
	"America/Whitehorse":    {},
	"America/Winnipeg":      {},
	"America/Yellowknife":   {},
}

// atlanticEEAZones covers the Iberian and Nordic Atlantic islands that run
// EU privacy law but live outside the Europe/ prefix.
var atlanticEEAZones = map[string]struct{}{
	"Atlantic/Azores":    {},
	"Atlantic/Canary":    {},
	"Atlantic/Madeira":   {},
	"Atlantic/Reykjavik": {},
	"Atlantic/Faroe":     {},
}

// RegionFromTimezone maps an IANA timezone identifier to a privacy region.
// This is a deliberate heuristic with known false positives and negatives
// (VPNs, travelers); an empty or unreadable timezone fails safe toward EEA,
// the strictest regime. The heuristic folds the UK and Switzerland into EEA
// since their zones carry the Europe/ prefix; the distinct constants exist
// for resolvers that can tell them apart.
func RegionFromTimezone(tz string) Region {
	if tz == "" {
		return RegionEEA
	}

	if _, ok := canadianZones[tz]; ok {
		return RegionCA
	}
	if strings.HasPrefix(tz, "Canada/") {
		return RegionCA
	}

	if strings.HasPrefix(tz, "Europe/") {
		return RegionEEA
	}
	if _, ok := atlanticEEAZones[tz]; ok {
		return RegionEEA
	}
	switch tz {
	case "GMT", "UTC", "Etc/GMT", "Etc/UTC", "Etc/Greenwich":
		return RegionEEA
	}

	return RegionOther
}

// Required reports whether the region legally requires an explicit consent
// prompt before non-essential processing.
func (r Region) Required() bool {
	switch r {
	case RegionEEA, RegionUK, RegionCH, RegionCA:
		return true
	}
	return false
}
