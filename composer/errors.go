package composer

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest is returned when a request cannot be satisfied.
var ErrInvalidRequest = errors.New("invalid request")

// RequestError describes why a request was rejected.
type RequestError struct {
	Reason string
}

func (e *RequestError) Error() string {
	if e == nil || e.Reason == "" {
		return ErrInvalidRequest.Error()
	}
	return fmt.Sprintf("%s: %s", ErrInvalidRequest.Error(), e.Reason)
}

func (e *RequestError) Unwrap() error { return ErrInvalidRequest }

func invalidf(format string, args ...any) error {
	return &RequestError{Reason: fmt.Sprintf(format, args...)}
}

// Reason returns the human readable reason carried by an invalid request
// error, or the error text for any other error.
func Reason(err error) string {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Reason
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
