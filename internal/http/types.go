package http

import "github.com/fyrsmithlabs/streamline/internal/project"

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string       `json:"status"`
	Counts StatusCounts `json:"counts"`
}

// StatusCounts reports how many entities the store holds.
type StatusCounts struct {
	Projects int `json:"projects"`
	Tasks    int `json:"tasks"`
}

// CreateProjectRequest is the request body for POST /projects.
type CreateProjectRequest struct {
	ID          project.ID     `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Tasks       []project.Task `json:"tasks"`
}

// PatchTaskRequest is the request body for PATCH /tasks/:id. At least one
// field must be present.
type PatchTaskRequest struct {
	Status *project.Status `json:"status"`
	Title  *string         `json:"title"`
}

// ProjectListResponse is the response body for GET /projects.
type ProjectListResponse struct {
	Projects []project.Project `json:"projects"`
}
