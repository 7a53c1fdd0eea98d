package auth

import (
	"errors"
	"fmt"
)

// ErrMissingCredentials is returned when no client id or secret is configured
var ErrMissingCredentials = errors.New("client id and client secret are required (set CLIENT_ID and CLIENT_SECRET, or auth.credentials_path)")

// Error is returned for any failure to obtain an authorized client:
// bad credentials, listener failures, rejected code exchange or token cache errors.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("authorization failed (%s): %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrap returns err as an *Error, keeping an existing one intact
func wrap(op string, err error) error {
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Op: op, Err: err}
}
