package subscription

import (
	"time"

	"github.com/google/uuid"
)

// Source tags where a submission came from. It is advisory metadata:
// unrecognized values are stored as-is, never rejected.
type Source string

const (
	SourcePopup   Source = "popup"
	SourceInline  Source = "inline"
	SourceFooter  Source = "footer"
	SourceAccount Source = "account"
)

// DefaultSource applies when a submission carries no source tag.
const DefaultSource = SourcePopup

// Scope identifies what an email is subscribed to: a single brief, a single
// author, or the general newsletter when both fields are empty. At most one
// field is ever set; construct values through ResolveScope.
type Scope struct {
	BriefID  string
	AuthorID string
}

// GeneralScope is the newsletter scope with no brief or author attached.
var GeneralScope = Scope{}

// ResolveScope derives the subscription scope from the optional brief and
// author identifiers. The two are mutually exclusive by contract; when both
// arrive, briefID wins and authorID is ignored. That tie-break is deliberate
// and covered by tests, not an error condition.
func ResolveScope(briefID, authorID string) Scope {
	if briefID != "" {
		return Scope{BriefID: briefID}
	}
	if authorID != "" {
		return Scope{AuthorID: authorID}
	}
	return GeneralScope
}

// Label names the scope kind in user-facing copy: "brief", "author", or
// "newsletter".
func (s Scope) Label() string {
	switch {
	case s.BriefID != "":
		return "brief"
	case s.AuthorID != "":
		return "author"
	default:
		return "newsletter"
	}
}

// Subscription is one captured email within one scope. Rows are insert-only:
// this service never updates or deletes them.
type Subscription struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	BriefID   string    `json:"briefId,omitempty"`
	AuthorID  string    `json:"authorId,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	Source    Source    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
}

// Scope returns the scope this subscription row belongs to.
func (s Subscription) Scope() Scope {
	return ResolveScope(s.BriefID, s.AuthorID)
}
