// Package store is the in-memory entity store behind the development
// server. It holds projects and their tasks, assigns UUIDs to new entities
// and implements project.Service, so a Manager can also run against it
// in-process.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/streamline/internal/project"
)

// Common errors.
var (
	ErrProjectExists = errors.New("project already exists")
	ErrInvalidName   = errors.New("invalid project name")
	ErrEmptyPatch    = errors.New("patch has no fields")
)

// TaskPatch is a partial task update. Nil fields are left unchanged.
type TaskPatch struct {
	Title  *string
	Status *project.Status
}

// NewProject is the input for creating a project.
type NewProject struct {
	ID          project.ID
	Name        string
	Description string
	Tasks       []project.Task
}

type projectRecord struct {
	project project.Project // Tasks unused; see taskIDs
	taskIDs []project.ID
}

// Store implements project.Service with in-memory maps.
type Store struct {
	mu       sync.RWMutex
	projects map[project.ID]*projectRecord
	order    []project.ID // project IDs in insertion order
	tasks    map[project.ID]project.Task
}

var _ project.Service = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		projects: make(map[project.ID]*projectRecord),
		tasks:    make(map[project.ID]project.Task),
	}
}

// CreateProject stores a project and its tasks. Missing IDs are generated.
func (s *Store) CreateProject(ctx context.Context, in NewProject) (project.Project, error) {
	if strings.TrimSpace(in.Name) == "" {
		return project.Project{}, ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := in.ID
	if id == "" {
		id = newID()
	}
	if _, ok := s.projects[id]; ok {
		return project.Project{}, fmt.Errorf("%w: %s", ErrProjectExists, id)
	}

	rec := &projectRecord{
		project: project.Project{ID: id, Name: strings.TrimSpace(in.Name), Description: in.Description},
	}
	tasks := make([]project.Task, 0, len(in.Tasks))
	seen := make(map[project.ID]bool, len(in.Tasks))
	for _, t := range in.Tasks {
		if t.ID == "" {
			t.ID = newID()
		}
		if _, ok := s.tasks[t.ID]; ok || seen[t.ID] {
			return project.Project{}, fmt.Errorf("%w: task %s already exists", project.ErrInvalidTask, t.ID)
		}
		if t.Status == "" {
			t.Status = project.StatusPending
		}
		t.ProjectID = id
		if err := t.Validate(); err != nil {
			return project.Project{}, err
		}
		seen[t.ID] = true
		tasks = append(tasks, t)
	}

	for _, t := range tasks {
		s.tasks[t.ID] = t
		rec.taskIDs = append(rec.taskIDs, t.ID)
	}
	s.projects[id] = rec
	s.order = append(s.order, id)

	return s.snapshot(rec), nil
}

// GetProject returns the project with its tasks in insertion order.
func (s *Store) GetProject(ctx context.Context, id project.ID) (project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.projects[id]
	if !ok {
		return project.Project{}, fmt.Errorf("project %s: %w", id, project.ErrNotFound)
	}
	return s.snapshot(rec), nil
}

// ListProjects returns every project without its tasks, in creation order.
func (s *Store) ListProjects(ctx context.Context) ([]project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projects := make([]project.Project, 0, len(s.order))
	for _, id := range s.order {
		projects = append(projects, s.projects[id].project)
	}
	return projects, nil
}

// GetTask returns a single task.
func (s *Store) GetTask(ctx context.Context, id project.ID) (project.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return project.Task{}, fmt.Errorf("task %s: %w", id, project.ErrNotFound)
	}
	return t, nil
}

// UpdateTask applies patch to a task and returns the result.
func (s *Store) UpdateTask(ctx context.Context, id project.ID, patch TaskPatch) (project.Task, error) {
	if patch.Title == nil && patch.Status == nil {
		return project.Task{}, ErrEmptyPatch
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return project.Task{}, fmt.Errorf("%w: %q", project.ErrInvalidStatus, *patch.Status)
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return project.Task{}, fmt.Errorf("%w: title is empty", project.ErrInvalidTask)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return project.Task{}, fmt.Errorf("task %s: %w", id, project.ErrNotFound)
	}
	if patch.Title != nil {
		t.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	s.tasks[id] = t
	return t, nil
}

// UpdateTaskStatus sets a task's status.
func (s *Store) UpdateTaskStatus(ctx context.Context, id project.ID, status project.Status) (project.Task, error) {
	return s.UpdateTask(ctx, id, TaskPatch{Status: &status})
}

// CreateTask adds a task to an existing project.
func (s *Store) CreateTask(ctx context.Context, in project.NewTask) (project.Task, error) {
	in, err := in.Normalize()
	if err != nil {
		return project.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.projects[in.ProjectID]
	if !ok {
		return project.Task{}, fmt.Errorf("project %s: %w", in.ProjectID, project.ErrNotFound)
	}

	t := project.Task{
		ID:          newID(),
		ProjectID:   in.ProjectID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
	}
	s.tasks[t.ID] = t
	rec.taskIDs = append(rec.taskIDs, t.ID)
	return t, nil
}

// Counts returns the number of stored projects and tasks.
func (s *Store) Counts() (projects, tasks int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.projects), len(s.tasks)
}

// snapshot copies a project and its tasks. Caller must hold the lock.
func (s *Store) snapshot(rec *projectRecord) project.Project {
	p := rec.project
	p.Tasks = make([]project.Task, 0, len(rec.taskIDs))
	for _, id := range rec.taskIDs {
		t := s.tasks[id]
		if t.AssignedTo != nil {
			u := *t.AssignedTo
			t.AssignedTo = &u
		}
		p.Tasks = append(p.Tasks, t)
	}
	return p
}

func newID() project.ID {
	return project.ID(uuid.New().String())
}
