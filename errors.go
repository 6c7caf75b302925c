package waterdesk

import (
	"errors"

	"github.com/hydrovia/waterdesk/backend"
)

var (
	// ErrLoginInFlight is returned when a login is started while a
	// previous login on the same manager has not finished.
	ErrLoginInFlight = errors.New("login already in flight")
	// ErrManagerClosed is returned by operations on a closed manager.
	ErrManagerClosed = errors.New("session manager closed")
	// ErrLoginAborted is returned when a login completed after the
	// session it belonged to was logged out. The result is discarded.
	ErrLoginAborted = errors.New("login aborted")
	// ErrConsoleClosed is returned by operations on a closed console.
	ErrConsoleClosed = errors.New("console closed")
)

// LoginError is a failed credential exchange. Message is safe to show to
// the person logging in; the wrapped cause keeps the transport detail.
type LoginError struct {
	Message string
	cause   error
}

func (e *LoginError) Error() string { return e.Message }

func (e *LoginError) Unwrap() error { return e.cause }

// newLoginError picks the displayable message: the API's own error body
// when it sent one, the transport error otherwise.
func newLoginError(err error) *LoginError {
	le := &LoginError{Message: "login failed", cause: err}

	var apiErr *backend.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Message != "":
		le.Message = apiErr.Message
	case err != nil:
		le.Message = err.Error()
	}

	return le
}
