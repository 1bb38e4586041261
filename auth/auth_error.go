package auth

import "fmt"

// Error is the error returned when authentication against the Metabase
// instance fails; the underlying Err contains the API error returned by
// the session endpoint.
type Error struct {
	Err error
	Msg string
}

func (ae *Error) Error() string {
	var msg string = ae.Msg
	if msg == "" {
		msg = ae.Err.Error()
	}
	return fmt.Sprintf("authentication error: %s", msg)
}

func (ae *Error) Unwrap() error {
	return ae.Err
}

func (ae *Error) Is(target error) bool {
	return target == ae.Err
}
