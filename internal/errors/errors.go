// Package errors provides centralized error definitions for the prepforge
// client. It defines the failure taxonomy every network-facing operation is
// converted into at the generation-client boundary, plus classification
// helpers so callers can decide between falling back, prompting the user,
// or logging and moving on.
//
// The taxonomy:
//   - ErrTransportUnavailable: the probe failed or the channel is not open.
//     Recovered transparently via the REST fallback, never shown to users.
//   - TransportError: the channel failed after a successful open. Recorded
//     once; suppressed when the backend was already known unreachable.
//   - QuotaError: the admission check denied the request. Surfaced as an
//     actionable prompt (sign up / upgrade), not a generic failure.
//   - RemoteError: a fallback call returned non-success. The server-provided
//     message is shown verbatim.
//
// Malformed inbound frames are not an error value at all: they are ignored
// at the connection layer for forward compatibility.
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience, so callers can
// import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Sentinel errors for the client's failure taxonomy.
var (
	// ErrTransportUnavailable indicates the realtime channel cannot be used:
	// the availability probe failed or no connection is open.
	ErrTransportUnavailable = New("realtime transport unavailable")
	// ErrBackendUnreachable indicates the availability probe marked the
	// backend unreachable for the remainder of the client's lifetime.
	ErrBackendUnreachable = New("backend unreachable")
	// ErrQuotaExceeded indicates the admission check denied an operation.
	ErrQuotaExceeded = New("quota exceeded")
	// ErrNotAuthenticated indicates an operation requires a signed-in user.
	ErrNotAuthenticated = New("not authenticated")
	// ErrSessionNotFound indicates a session could not be found in the store.
	ErrSessionNotFound = New("session not found")
	// ErrQuestionNotFound indicates an answer targeted an unknown question.
	ErrQuestionNotFound = New("question not found in session")
)

// TransportError records a channel failure. A backend the prober already
// marked unreachable never produces one: the probe gates every connect, so
// a failed probe means no dial, no connection, and nothing to error.
type TransportError struct {
	Op  string // operation that failed: "dial", "send", "read"
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("transport %s failed", e.Op)
	}
	return fmt.Sprintf("transport %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NewTransportError creates a TransportError for the given operation.
func NewTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}

// QuotaError is returned when the admission controller denies an operation.
// It carries enough context to drive an actionable prompt: anonymous users
// are asked to sign up, authenticated users to add credits.
type QuotaError struct {
	Operation     string // "generate_questions", "generate_answer", ...
	Requested     int
	Remaining     int
	Authenticated bool
}

func (e *QuotaError) Error() string {
	if e.Authenticated {
		return fmt.Sprintf("insufficient credits for %s: requested %d, balance %d",
			e.Operation, e.Requested, e.Remaining)
	}
	return fmt.Sprintf("free usage limit reached for %s: requested %d, remaining %d",
		e.Operation, e.Requested, e.Remaining)
}

func (e *QuotaError) Is(target error) bool { return target == ErrQuotaExceeded }

// Prompt returns the user-facing call to action for this denial.
func (e *QuotaError) Prompt() string {
	if e.Authenticated {
		return "You're out of credits. Add credits to keep generating."
	}
	return "You've reached the free limit. Sign up to keep generating."
}

// RemoteError is returned when a fallback call completed but the backend
// reported a failure. Detail is the server-provided message and is surfaced
// to the user verbatim.
type RemoteError struct {
	Endpoint   string
	StatusCode int
	Detail     string
}

func (e *RemoteError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("%s returned status %d", e.Endpoint, e.StatusCode)
}

// NewRemoteError creates a RemoteError for the given endpoint and response.
func NewRemoteError(endpoint string, status int, detail string) *RemoteError {
	return &RemoteError{Endpoint: endpoint, StatusCode: status, Detail: detail}
}

// IsQuotaExceeded reports whether err is an admission denial.
func IsQuotaExceeded(err error) bool {
	return Is(err, ErrQuotaExceeded)
}

// IsTransportUnavailable reports whether err means the realtime channel
// cannot currently be used and the caller should take the fallback path.
func IsTransportUnavailable(err error) bool {
	return Is(err, ErrTransportUnavailable) || Is(err, ErrBackendUnreachable)
}

// IsUserFacing reports whether err carries a message safe to show directly.
// Transport failures are not user-facing: they are either recovered via the
// fallback or reduced to a connection status indicator.
func IsUserFacing(err error) bool {
	var quotaErr *QuotaError
	var remoteErr *RemoteError
	return As(err, &quotaErr) || As(err, &remoteErr)
}

// UserMessage returns the message to display for err. Quota denials yield
// their actionable prompt, remote failures their verbatim server detail;
// anything else gets a generic message so internals never leak into the UI.
func UserMessage(err error) string {
	var quotaErr *QuotaError
	if As(err, &quotaErr) {
		return quotaErr.Prompt()
	}
	var remoteErr *RemoteError
	if As(err, &remoteErr) {
		return remoteErr.Error()
	}
	return "Something went wrong. Please try again."
}
