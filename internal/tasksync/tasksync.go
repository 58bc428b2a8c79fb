// Package tasksync wraps each task API call with validation, a Task Store
// update and a user notification.
//
// Mutations never patch the stored page. Callers re-fetch with GetAllTasks
// after any create, update, delete or status change.
package tasksync

import (
	"context"
	"time"

	"go.uber.org/zap"

	"taskmgr/internal/notify"
	"taskmgr/internal/service"
	"taskmgr/internal/taskstore"
)

// Notification texts.
const (
	MsgAdded         = "Task added successfully"
	MsgAddFailed     = "Failed to add task"
	MsgUpdated       = "Task updated successfully"
	MsgUpdateFailed  = "Failed to update task"
	MsgFetchFailed   = "Failed to fetch tasks"
	MsgGetFailed     = "Failed to fetch task"
	MsgDeleted       = "Task deleted successfully"
	MsgDeleteFailed  = "Failed to delete task"
	MsgStatusChanged = "Task status updated successfully"
	MsgStatusFailed  = "Failed to update task status"
)

// Service is the task synchronization service.
type Service struct {
	backend service.Service
	store   *taskstore.Store
	notify  notify.Notifier
	log     *zap.Logger
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithClock sets the time source used by due-date validation.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service.
func New(backend service.Service, store *taskstore.Store, n notify.Notifier, opts ...Option) *Service {
	s := &Service{
		backend: backend,
		store:   store,
		notify:  n,
		log:     zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notify == nil {
		s.notify = notify.Nop{}
	}
	return s
}

// Store returns the Task Store this service writes.
func (s *Service) Store() *taskstore.Store {
	return s.store
}

// AddTask validates and creates draft. A *service.ValidationError is
// returned without a network call or notification.
func (s *Service) AddTask(ctx context.Context, draft service.Task) (service.Task, error) {
	if err := service.ValidateTask(draft, s.now()); err != nil {
		return service.Task{}, err
	}
	created, err := s.backend.CreateTask(ctx, draft)
	if err != nil {
		s.notify.Failure(MsgAddFailed, err)
		return service.Task{}, err
	}
	s.log.Debug("task created", zap.String("id", string(created.ID)))
	s.notify.Success(MsgAdded)
	return created, nil
}

// UpdateTask validates the present fields of upd and sends them.
func (s *Service) UpdateTask(ctx context.Context, id service.ID, upd service.TaskUpdate) (service.Task, error) {
	if err := service.ValidateUpdate(upd, s.now()); err != nil {
		return service.Task{}, err
	}
	updated, err := s.backend.UpdateTask(ctx, id, upd)
	if err != nil {
		s.notify.Failure(MsgUpdateFailed, err)
		return service.Task{}, err
	}
	s.log.Debug("task updated", zap.String("id", string(id)))
	s.notify.Success(MsgUpdated)
	return updated, nil
}

// GetAllTasks fetches one page and replaces the stored snapshot. When a
// newer fetch was started meanwhile, the result is returned but not stored.
func (s *Service) GetAllTasks(ctx context.Context, q service.ListQuery) (service.Snapshot, error) {
	ticket := s.store.Begin()
	snap, err := s.backend.ListTasks(ctx, q)
	if err != nil {
		s.notify.Failure(MsgFetchFailed, err)
		return service.Snapshot{}, err
	}
	if !s.store.ReplaceSnapshot(ticket, snap) {
		s.log.Debug("discarding superseded task page",
			zap.Int("offset", q.Offset),
			zap.String("search", q.Search),
			zap.String("status", string(q.Status)),
		)
	}
	return snap, nil
}

// GetTaskByID fetches one task into the single-task slot.
func (s *Service) GetTaskByID(ctx context.Context, id service.ID) (service.Task, error) {
	t, err := s.backend.GetTask(ctx, id)
	if err != nil {
		s.notify.Failure(MsgGetFailed, err)
		return service.Task{}, err
	}
	s.store.SetSelected(t)
	return t, nil
}

// DeleteTask deletes a task on the server.
func (s *Service) DeleteTask(ctx context.Context, id service.ID) error {
	if err := s.backend.DeleteTask(ctx, id); err != nil {
		s.notify.Failure(MsgDeleteFailed, err)
		return err
	}
	s.log.Debug("task deleted", zap.String("id", string(id)))
	s.notify.Success(MsgDeleted)
	return nil
}

// ChangeStatus sends a partial update carrying only the status.
func (s *Service) ChangeStatus(ctx context.Context, id service.ID, status service.Status) error {
	if err := service.ValidateUpdate(service.StatusUpdate(status), s.now()); err != nil {
		return err
	}
	if _, err := s.backend.UpdateTask(ctx, id, service.StatusUpdate(status)); err != nil {
		s.notify.Failure(MsgStatusFailed, err)
		return err
	}
	s.log.Debug("task status changed", zap.String("id", string(id)), zap.String("status", string(status)))
	s.notify.Success(MsgStatusChanged)
	return nil
}
