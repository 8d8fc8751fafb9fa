package project

import "context"

// Service is the remote entity API the Manager reads from and writes to.
// Implementations must honor ctx cancellation.
type Service interface {
	// GetProject returns the project with its tasks.
	GetProject(ctx context.Context, id ID) (Project, error)

	// UpdateTaskStatus sets a task's status and returns the server's view
	// of the task. The response may omit fields other than id and status.
	UpdateTaskStatus(ctx context.Context, id ID, status Status) (Task, error)

	// CreateTask creates a task and returns it with its server-assigned ID.
	CreateTask(ctx context.Context, t NewTask) (Task, error)
}
