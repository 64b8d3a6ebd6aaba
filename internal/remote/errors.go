package remote

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker/v2"
)

// ErrMalformedResponse is returned when a 2xx body does not match the
// endpoint's schema.
var ErrMalformedResponse = errors.New("malformed response")

// Error is a failed remote call. StatusCode is 0 when no response arrived.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.StatusCode != 0 {
		msg = http.StatusText(e.StatusCode)
	}
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s: status %d: %s: %v", e.Op, e.StatusCode, msg, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, msg)
	case e.Err != nil && msg != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a network failure, a 5xx, a 429 or an
// open circuit, i.e. worth retrying later without changing the request.
func IsTransient(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return true
	}
	var re *Error
	if !errors.As(err, &re) {
		return false
	}
	if re.StatusCode == 0 {
		return !errors.Is(re.Err, ErrMalformedResponse)
	}
	return re.StatusCode >= http.StatusInternalServerError || re.StatusCode == http.StatusTooManyRequests
}

// IsUnavailable reports whether the circuit breaker rejected the call.
func IsUnavailable(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
