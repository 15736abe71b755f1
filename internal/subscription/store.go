package subscription

import "context"

// Store persists email subscriptions. Exists and Insert are separate calls
// with no transaction spanning them; a race between two identical
// submissions can slip a duplicate row through, which the schema may catch
// with a unique index but the service does not depend on.
type Store interface {
	// Exists reports whether a row for (email, scope) is present. Email
	// matching is case-sensitive, as stored. A query failure is an error,
	// distinct from an empty result.
	Exists(ctx context.Context, email string, scope Scope) (bool, error)

	// Insert writes a new row, stamping ID and CreatedAt on the passed
	// subscription.
	Insert(ctx context.Context, sub *Subscription) error
}
