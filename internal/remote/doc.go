// Package remote implements project.Service over the entity HTTP API.
//
//	GET   /projects/{id}  -> Project
//	PATCH /tasks/{id}     {"status": ...} -> Task
//	POST  /tasks          NewTask -> Task
//
// Every request carries the configured bearer token and a JSON content type.
// Non-2xx responses are returned as *StatusError; a 404 also matches
// project.ErrNotFound. The client never retries.
package remote
