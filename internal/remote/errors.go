package remote

import (
	"fmt"
	"net/http"

	"github.com/fyrsmithlabs/streamline/internal/project"
)

// StatusError is a non-2xx response from the entity API.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// HTTPStatus returns the response code.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// Is matches project.ErrNotFound for 404 responses.
func (e *StatusError) Is(target error) bool {
	return target == project.ErrNotFound && e.StatusCode == http.StatusNotFound
}
