// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"taskmgr/internal/service"
	"taskmgr/internal/transport"
)

// ErrNotFound is returned when a task does not exist.
var ErrNotFound = &transport.RequestError{StatusCode: 404, Message: "Task not found"}

// FakeService is an in-memory implementation of service.Service and
// service.Authenticator for testing.
type FakeService struct {
	mu     sync.Mutex
	tasks  []service.Task
	nextID int
	users  map[string]fakeUser
	calls  []string

	// ListQueries records every ListTasks call in order.
	ListQueries []service.ListQuery

	// Error injection for testing
	CreateTaskErr error
	UpdateTaskErr error
	ListTasksErr  error
	GetTaskErr    error
	DeleteTaskErr error
	LoginErr      error
	SignupErr     error
}

type fakeUser struct {
	id       string
	email    string
	password string
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{users: make(map[string]fakeUser)}
}

// AddUser registers an account that Login accepts.
func (f *FakeService) AddUser(username, email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[username] = fakeUser{id: strconv.Itoa(len(f.users) + 1), email: email, password: password}
}

// AddTask stores a task directly and returns it with its assigned id.
func (f *FakeService) AddTask(t service.Task) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insert(t)
}

func (f *FakeService) insert(t service.Task) service.Task {
	f.nextID++
	t.ID = service.ID(strconv.Itoa(f.nextID))
	f.tasks = append(f.tasks, t)
	return t
}

// Task returns the stored task with id.
func (f *FakeService) Task(id service.ID) (service.Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return service.Task{}, false
	}
	return f.tasks[i], true
}

// Calls returns the operation names invoked so far.
func (f *FakeService) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount returns how many times op was invoked.
func (f *FakeService) CallCount(op string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == op {
			n++
		}
	}
	return n
}

func (f *FakeService) record(op string) {
	f.calls = append(f.calls, op)
}

func (f *FakeService) index(id service.ID) int {
	for i, t := range f.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, draft service.Task) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateTask")
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	return f.insert(draft), nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id service.ID, upd service.TaskUpdate) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateTask")
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	i := f.index(id)
	if i < 0 {
		return service.Task{}, ErrNotFound
	}
	applyUpdate(&f.tasks[i], upd)
	return f.tasks[i], nil
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context, q service.ListQuery) (service.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListTasks")
	f.ListQueries = append(f.ListQueries, q)
	if f.ListTasksErr != nil {
		return service.Snapshot{}, f.ListTasksErr
	}
	return page(f.tasks, q), nil
}

// GetTask implements service.Service.
func (f *FakeService) GetTask(ctx context.Context, id service.ID) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetTask")
	if f.GetTaskErr != nil {
		return service.Task{}, f.GetTaskErr
	}
	i := f.index(id)
	if i < 0 {
		return service.Task{}, ErrNotFound
	}
	return f.tasks[i], nil
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id service.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteTask")
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	i := f.index(id)
	if i < 0 {
		return ErrNotFound
	}
	f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
	return nil
}

// Login implements service.Authenticator.
func (f *FakeService) Login(ctx context.Context, c service.Credentials) (service.LoginResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Login")
	if f.LoginErr != nil {
		return service.LoginResponse{}, f.LoginErr
	}
	u, ok := f.users[c.Username]
	if !ok || u.password != c.Password {
		return service.LoginResponse{}, &transport.RequestError{StatusCode: 401, Message: "Invalid username or password"}
	}
	return service.LoginResponse{
		Success:  true,
		ID:       service.ID(u.id),
		Token:    "token-" + c.Username,
		Username: c.Username,
		Email:    u.email,
		Message:  "Login successful",
	}, nil
}

// Signup implements service.Authenticator.
func (f *FakeService) Signup(ctx context.Context, r service.Registration) (service.SignupResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Signup")
	if f.SignupErr != nil {
		return service.SignupResponse{}, f.SignupErr
	}
	if _, exists := f.users[r.Username]; exists {
		return service.SignupResponse{}, &transport.RequestError{StatusCode: 409, Message: "Username already exists"}
	}
	f.users[r.Username] = fakeUser{id: strconv.Itoa(len(f.users) + 1), email: r.Email, password: r.Password}
	return service.SignupResponse{Success: true, Message: "User registered successfully"}, nil
}

func applyUpdate(t *service.Task, upd service.TaskUpdate) {
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.Status != nil {
		t.Status = *upd.Status
	}
	if upd.DueDate != nil {
		t.DueDate = *upd.DueDate
	}
}

// page filters by search text and status, then slices one page. The total
// count covers the whole filtered set.
func page(all []service.Task, q service.ListQuery) service.Snapshot {
	search := strings.ToLower(q.Search)
	var filtered []service.Task
	for _, t := range all {
		if q.Status != "" && t.Status != q.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		filtered = append(filtered, t)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		a, _ := strconv.Atoi(string(filtered[i].ID))
		b, _ := strconv.Atoi(string(filtered[j].ID))
		return a < b
	})

	items := []service.Task{}
	if q.Offset < len(filtered) {
		end := len(filtered)
		if q.Limit > 0 && q.Offset+q.Limit < end {
			end = q.Offset + q.Limit
		}
		items = append(items, filtered[q.Offset:end]...)
	}
	return service.Snapshot{Items: items, Count: len(filtered)}
}
