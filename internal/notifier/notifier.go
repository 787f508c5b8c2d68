package notifier

import "context"

// Notifier delivers a one-time code to a requester out-of-band. The core
// does not know how delivery happens; it only reacts to success or
// failure. Implementations must return within a bounded time.
type Notifier interface {
	Send(ctx context.Context, destination, code, transactionID, displayName string) error
}
