package chat

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Sentinel errors for the chat package.
var (
	// ErrNetwork indicates the backend could not be reached.
	ErrNetwork = errors.New("chat: network failure")

	// ErrTimeout indicates the request exceeded its deadline.
	ErrTimeout = errors.New("chat: request timed out")

	// ErrServer indicates the backend answered with a 5xx status.
	ErrServer = errors.New("chat: server error")

	// ErrCanceled indicates the request was superseded or the session ended.
	ErrCanceled = errors.New("chat: request canceled")

	// ErrInvalidResponse indicates a 2xx answer that could not be decoded.
	ErrInvalidResponse = errors.New("chat: invalid response")
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("chat: API error (HTTP %d): %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("chat: API error (HTTP %d)", e.StatusCode)
}

// Is matches ErrServer for 5xx statuses.
func (e *APIError) Is(target error) bool {
	return target == ErrServer && e.StatusCode >= 500
}

// Kind is the user-facing class of a failed request.
type Kind int

const (
	KindOther Kind = iota
	KindNetwork
	KindTimeout
	KindServer
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindServer:
		return "server"
	case KindCanceled:
		return "canceled"
	default:
		return "other"
	}
}

// Classify maps any error returned by Client.Send to a Kind.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindOther
	case errors.Is(err, ErrCanceled), errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrServer):
		return KindServer
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	}
	return KindOther
}

// UserMessage is the apology shown in the transcript. Failures are never
// retried automatically; the user resends.
func UserMessage(kind Kind, userName string) string {
	if userName == "" {
		userName = "Friend"
	}
	prefix := fmt.Sprintf("I'm sorry %s, I'm having trouble connecting. ", userName)
	switch kind {
	case KindTimeout:
		return prefix + "⏱️ The request took too long. Please try again."
	case KindNetwork:
		return prefix + "🔌 Check your internet connection and try again."
	case KindServer:
		return prefix + "⚠️ Server error. Please try again later."
	default:
		return prefix + "⚙️ Please try again in a moment."
	}
}
