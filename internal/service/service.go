// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Service defines the interface for task backend operations.
// Each method is exactly one remote call; no method touches local state.
type Service interface {
	// CreateTask persists a draft and returns it with its server-assigned id.
	CreateTask(ctx context.Context, draft Task) (Task, error)

	// UpdateTask sends the non-nil fields of upd for task id.
	UpdateTask(ctx context.Context, id ID, upd TaskUpdate) (Task, error)

	// ListTasks returns one page of tasks and the filtered total.
	// Results are in API order (no client-side sorting).
	ListTasks(ctx context.Context, q ListQuery) (Snapshot, error)

	// GetTask fetches a single task.
	GetTask(ctx context.Context, id ID) (Task, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, id ID) error
}

// Authenticator defines the account endpoints.
type Authenticator interface {
	// Login posts credentials. A transport failure is an error; a rejected
	// login may also come back as Success=false.
	Login(ctx context.Context, c Credentials) (LoginResponse, error)

	// Signup registers an account. It never logs in.
	Signup(ctx context.Context, r Registration) (SignupResponse, error)
}
