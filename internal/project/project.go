package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ID identifies a project, task or user. IDs are opaque; the remote API
// sends them either as JSON strings or JSON numbers.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Status is a task's workflow state.
type Status string

// Workflow states, in order.
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in progress"
	StatusCompleted  Status = "completed"
)

var statusAliases = map[string]Status{
	"pending":     StatusPending,
	"todo":        StatusPending,
	"not started": StatusPending,
	"in progress": StatusInProgress,
	"in_progress": StatusInProgress,
	"in-progress": StatusInProgress,
	"completed":   StatusCompleted,
	"done":        StatusCompleted,
}

// ParseStatus maps a status label, including the view's aliases
// ("todo", "done"), onto a workflow state.
func ParseStatus(s string) (Status, error) {
	if st, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Valid reports whether s is one of the workflow states.
func (s Status) Valid() bool {
	return s.Rank() >= 0
}

// Rank returns the position of s in the workflow, or -1.
func (s Status) Rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusInProgress:
		return 1
	case StatusCompleted:
		return 2
	default:
		return -1
	}
}

// Next returns the following workflow state. Completed is terminal.
func (s Status) Next() Status {
	switch s {
	case StatusPending:
		return StatusInProgress
	default:
		return StatusCompleted
	}
}

// UnmarshalJSON normalizes aliases and rejects unknown labels.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// User is a read-only task assignee.
type User struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Task is a unit of work inside a project.
type Task struct {
	ID          ID     `json:"id"`
	ProjectID   ID     `json:"projectId,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      Status `json:"status"`
	AssignedTo  *User  `json:"assignedTo,omitempty"`
}

// Validate checks that the task is a complete entity.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: task id is empty", ErrMalformed)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: task %s has status %q", ErrMalformed, t.ID, t.Status)
	}
	return nil
}

// Clone returns a copy of t that shares no memory with it.
func (t Task) Clone() Task {
	if t.AssignedTo != nil {
		u := *t.AssignedTo
		t.AssignedTo = &u
	}
	return t
}

// Project is a named container of tasks.
type Project struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Tasks       []Task `json:"tasks"`
}

// Validate checks the project and every embedded task.
func (p *Project) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: project id is empty", ErrMalformed)
	}
	for i := range p.Tasks {
		if err := p.Tasks[i].Validate(); err != nil {
			return fmt.Errorf("project %s: %w", p.ID, err)
		}
	}
	return nil
}

// Clone returns a deep copy of p, including its tasks and assignees.
func (p Project) Clone() Project {
	if p.Tasks != nil {
		tasks := make([]Task, len(p.Tasks))
		for i, t := range p.Tasks {
			tasks[i] = t.Clone()
		}
		p.Tasks = tasks
	}
	return p
}

// Task returns the embedded task with the given ID.
func (p *Project) Task(id ID) (Task, bool) {
	for _, t := range p.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// NewTask is the input for creating a task. The server assigns the ID.
type NewTask struct {
	ProjectID   ID     `json:"projectId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      Status `json:"status"`
}

// Normalize trims the title, defaults the status to pending and validates
// the result.
func (n NewTask) Normalize() (NewTask, error) {
	n.Title = strings.TrimSpace(n.Title)
	if n.ProjectID == "" {
		return n, fmt.Errorf("%w: project id is required", ErrInvalidTask)
	}
	if n.Title == "" {
		return n, fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	if n.Status == "" {
		n.Status = StatusPending
	}
	if !n.Status.Valid() {
		return n, fmt.Errorf("%w: %w: %q", ErrInvalidTask, ErrInvalidStatus, n.Status)
	}
	return n, nil
}
