package project

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Error kinds. Every error returned by the Manager matches exactly one.
var (
	ErrFetch  = errors.New("fetch failed")
	ErrUpdate = errors.New("update failed")
	ErrCreate = errors.New("create failed")
)

// Causes.
var (
	ErrNotFound      = errors.New("not found")
	ErrMalformed     = errors.New("malformed payload")
	ErrInvalidID     = errors.New("invalid id")
	ErrInvalidStatus = errors.New("invalid status")
	ErrInvalidTask   = errors.New("invalid task")
)

// FetchError reports a failed project read.
type FetchError struct {
	ProjectID ID
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch project %s: %v", e.ProjectID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is matches ErrFetch.
func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// UpdateError reports a failed task status update.
type UpdateError struct {
	TaskID ID
	Status Status
	Err    error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("update task %s to %q: %v", e.TaskID, e.Status, e.Err)
}

func (e *UpdateError) Unwrap() error { return e.Err }

// Is matches ErrUpdate.
func (e *UpdateError) Is(target error) bool { return target == ErrUpdate }

// CreateError reports a failed task creation.
type CreateError struct {
	Title     string
	ProjectID ID
	Err       error
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("create task %q in project %s: %v", e.Title, e.ProjectID, e.Err)
}

func (e *CreateError) Unwrap() error { return e.Err }

// Is matches ErrCreate.
func (e *CreateError) Is(target error) bool { return target == ErrCreate }

// httpStatus is implemented by transport errors that carry a response code.
type httpStatus interface {
	HTTPStatus() int
}

// Retryable reports whether err is likely transient: a network failure, a
// 5xx response or 429. Cancellation, validation and 4xx errors are not.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrMalformed) || errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidTask) || errors.Is(err, ErrInvalidID) {
		return false
	}

	var se httpStatus
	if errors.As(err, &se) {
		code := se.HTTPStatus()
		return code >= http.StatusInternalServerError || code == http.StatusTooManyRequests
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
