package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrSystem indicates an internal or backend fault.
	// Exhausted retries are reported as system faults.
	ErrSystem = errors.New("system error")

	// ErrIndexEmpty indicates the index holds no entries yet.
	// It matches ErrNotFound so callers can ask the user to sync first.
	ErrIndexEmpty = fmt.Errorf("index is empty: %w", ErrNotFound)

	// ErrSyncInProgress indicates a sync is already running.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Answers fall back to extractive passages.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)

// ErrorKind is the user-facing classification of a failed run.
type ErrorKind string

const (
	// KindNotFound means the requested resource or index does not exist.
	KindNotFound ErrorKind = "not_found"
	// KindSystem means an internal or backend fault.
	KindSystem ErrorKind = "system"
	// KindUnknown is anything else.
	KindUnknown ErrorKind = "unknown"
)

// ClassifyError maps an error onto exactly one ErrorKind.
// Not-found takes precedence over system faults.
func ClassifyError(err error) ErrorKind {
	var syncErr *SyncError
	if errors.As(err, &syncErr) && syncErr.Kind != "" {
		return syncErr.Kind
	}
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrSystem):
		return KindSystem
	default:
		return KindUnknown
	}
}

// RemoteError is a failed call to a remote service.
// StatusCode is zero when the failure carried no status (network, timeout).
type RemoteError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, msg)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the status code of the failed call, or 0.
func (e *RemoteError) HTTPStatusCode() int {
	return e.StatusCode
}

// Is lets a 404 RemoteError match ErrNotFound.
func (e *RemoteError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == 404
}

// SyncError is the failure raised by a sync run.
// It records the stage that failed and unwraps to the original cause.
type SyncError struct {
	Kind  ErrorKind
	Stage string
	Err   error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s (%s): %v", e.Stage, e.Kind, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}
