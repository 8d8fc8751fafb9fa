package project

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

type statusErr int

func (e statusErr) Error() string   { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) HTTPStatus() int { return int(e) }

func TestErrorKinds(t *testing.T) {
	fetch := &FetchError{ProjectID: "5", Err: ErrNotFound}
	update := &UpdateError{TaskID: "7", Status: StatusCompleted, Err: ErrMalformed}
	create := &CreateError{Title: "T", ProjectID: "1", Err: ErrInvalidTask}

	assert.ErrorIs(t, fetch, ErrFetch)
	assert.ErrorIs(t, fetch, ErrNotFound)
	assert.NotErrorIs(t, fetch, ErrUpdate)
	assert.Equal(t, "fetch project 5: not found", fetch.Error())

	assert.ErrorIs(t, update, ErrUpdate)
	assert.ErrorIs(t, update, ErrMalformed)
	assert.NotErrorIs(t, update, ErrCreate)
	assert.Equal(t, `update task 7 to "completed": malformed payload`, update.Error())

	assert.ErrorIs(t, create, ErrCreate)
	assert.ErrorIs(t, create, ErrInvalidTask)
	assert.NotErrorIs(t, create, ErrFetch)

	wrapped := fmt.Errorf("loading view: %w", fetch)
	var fe *FetchError
	assert.True(t, errors.As(wrapped, &fe))
	assert.Equal(t, ID("5"), fe.ProjectID)
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"server error", &FetchError{Err: statusErr(503)}, true},
		{"rate limited", statusErr(429), true},
		{"not found", statusErr(404), false},
		{"bad request", statusErr(400), false},
		{"network", &FetchError{Err: &net.OpError{Op: "dial", Err: errors.New("connection refused")}}, true},
		{"canceled", &FetchError{Err: context.Canceled}, false},
		{"deadline", context.DeadlineExceeded, false},
		{"malformed", &UpdateError{Err: ErrMalformed}, false},
		{"invalid status", &UpdateError{Err: ErrInvalidStatus}, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Retryable(tt.err))
		})
	}
}
