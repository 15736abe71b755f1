package consent

import "time"

// Category labels a class of processing a visitor can allow or refuse.
// Essential is non-optional: nothing in this package can turn it off.
type Category string

const (
	CategoryEssential Category = "essential"
	CategoryAnalytics Category = "analytics"
	CategoryMarketing Category = "marketing"
)

// RetentionMonths bounds how long a stored decision stays valid. A record
// older than this is treated as absent and the visitor is re-prompted.
const RetentionMonths = 13

// Decision is the in-memory tri-category consent state for one visitor.
type Decision struct {
	Essential   bool `json:"essential"`
	Analytics   bool `json:"analytics"`
	Marketing   bool `json:"marketing"`
	Initialized bool `json:"initialized"`
}

// DefaultDecision is the state before any visitor choice: essential only,
// nothing initialized.
func DefaultDecision() Decision {
	return Decision{Essential: true}
}

// StoredRecord is the persisted form of a Decision. Timestamp is epoch
// milliseconds; IPHash is privacy-hashed, never a raw address.
type StoredRecord struct {
	Version   string `json:"version"`
	Timestamp int64  `json:"timestamp"`
	Analytics bool   `json:"analytics"`
	Marketing bool   `json:"marketing"`
	IPHash    string `json:"ipHash,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
}

// Expired reports whether the record is past its retention window at now.
func (r StoredRecord) Expired(now time.Time) bool {
	return now.After(time.UnixMilli(r.Timestamp).AddDate(0, RetentionMonths, 0))
}

// Decision converts a live stored record back to the in-memory state.
func (r StoredRecord) Decision() Decision {
	return Decision{
		Essential:   true,
		Analytics:   r.Analytics,
		Marketing:   r.Marketing,
		Initialized: true,
	}
}

// Meta carries the request metadata stamped onto stored records and audit
// events.
type Meta struct {
	IPHash    string
	UserAgent string
}
