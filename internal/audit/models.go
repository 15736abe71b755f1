package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action describes what happened to a consent category.
type Action string

const (
	ActionGranted   Action = "granted"
	ActionDenied    Action = "denied"
	ActionUpdated   Action = "updated"
	ActionWithdrawn Action = "withdrawn"
)

// Event is emitted when a consent decision changes. The trail is advisory:
// append-only, process-lifetime, and never read back for decisioning.
type Event struct {
	ID        uuid.UUID
	SessionID string
	Action    Action
	Category  string
	Timestamp time.Time
	IPHash    string
	UserAgent string
}
