package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCredential means there is no live code for the identity. It
	// deliberately covers "never issued", "expired" and "attempts
	// exhausted": the store deletes the record in the latter two cases,
	// so callers cannot tell them apart.
	ErrNoCredential = errors.New("no active code for this identity")

	// ErrNotificationFailed means the code could not be delivered. The
	// transaction and credential created before the delivery attempt are
	// kept, so a resend can recover.
	ErrNotificationFailed = errors.New("failed to deliver code")
)

// InvalidCodeError is returned when the presented code or transaction id
// does not match the stored credential and attempts remain.
type InvalidCodeError struct {
	AttemptsLeft int
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("invalid code or transaction id, %d attempts left", e.AttemptsLeft)
}
