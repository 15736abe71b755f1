package consent

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// eeaCountries holds ISO 3166-1 alpha-2 codes for EU member states plus the
// EEA EFTA members (IS, LI, NO).
var eeaCountries = map[string]struct{}{
	"AT": {}, "BE": {}, "BG": {}, "HR": {}, "CY": {}, "CZ": {}, "DK": {},
	"EE": {}, "FI": {}, "FR": {}, "DE": {}, "GR": {}, "HU": {}, "IE": {},
	"IT": {}, "LV": {}, "LT": {}, "LU": {}, "MT": {}, "NL": {}, "PL": {},
	"PT": {}, "RO": {}, "SK": {}, "SI": {}, "ES": {}, "SE": {},
	"IS": {}, "LI": {}, "NO": {},
}

// GeoIPResolver resolves a client IP to a privacy region using a MaxMind
// database. It is an optional refinement over the timezone heuristic: unlike
// the heuristic it can tell the UK and Switzerland apart from the EEA.
type GeoIPResolver struct {
	db *geoip2.Reader
}

// NewGeoIPResolver opens the MaxMind country database at path.
func NewGeoIPResolver(path string) (*GeoIPResolver, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip database: %w", err)
	}
	return &GeoIPResolver{db: db}, nil
}

// Resolve maps an IP to a region. Unparseable or unlocatable addresses fail
// safe toward EEA, matching the timezone heuristic's posture.
func (r *GeoIPResolver) Resolve(ip string) Region {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return RegionEEA
	}

	country, err := r.db.Country(parsed)
	if err != nil || country.Country.IsoCode == "" {
		return RegionEEA
	}

	switch code := country.Country.IsoCode; code {
	case "CA":
		return RegionCA
	case "GB":
		return RegionUK
	case "CH":
		return RegionCH
	default:
		if _, ok := eeaCountries[code]; ok {
			return RegionEEA
		}
		return RegionOther
	}
}

// Close releases the underlying database handle.
func (r *GeoIPResolver) Close() error {
	return r.db.Close()
}
