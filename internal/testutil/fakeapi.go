package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"taskmgr/internal/service"
)

// RecordedRequest is one request seen by FakeAPI.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
}

// FakeAPI serves the task manager REST API from memory over httptest.
type FakeAPI struct {
	mu       sync.Mutex
	server   *httptest.Server
	tasks    []service.Task
	nextID   int
	users    map[string]fakeUser
	tokens   map[string]string // token -> username
	requests []RecordedRequest
}

// NewFakeAPI starts a FakeAPI that is shut down when the test ends.
func NewFakeAPI(t testing.TB) *FakeAPI {
	t.Helper()
	f := &FakeAPI{
		users:  make(map[string]fakeUser),
		tokens: make(map[string]string),
	}

	r := chi.NewRouter()
	r.Use(f.recordRequest)
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", f.login)
		r.Post("/auth/signup", f.signup)
		r.Group(func(r chi.Router) {
			r.Use(f.requireToken)
			r.Get("/tasks", f.listTasks)
			r.Post("/tasks", f.createTask)
			r.Get("/tasks/{id}", f.getTask)
			r.Put("/tasks/{id}", f.updateTask)
			r.Delete("/tasks/{id}", f.deleteTask)
		})
	})

	f.server = httptest.NewServer(r)
	t.Cleanup(f.server.Close)
	return f
}

// URL returns the API base URL.
func (f *FakeAPI) URL() string {
	return f.server.URL + "/api"
}

// AddUser registers an account.
func (f *FakeAPI) AddUser(username, email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[username] = fakeUser{id: strconv.Itoa(len(f.users) + 1), email: email, password: password}
}

// IssueToken returns a valid token for username without a login call.
func (f *FakeAPI) IssueToken(username string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	tok := uuid.NewString()
	f.tokens[tok] = username
	return tok
}

// SeedTask stores a task and returns it with its id.
func (f *FakeAPI) SeedTask(t service.Task) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insert(t)
}

func (f *FakeAPI) insert(t service.Task) service.Task {
	f.nextID++
	t.ID = service.ID(strconv.Itoa(f.nextID))
	f.tasks = append(f.tasks, t)
	return t
}

// Requests returns every request received so far.
func (f *FakeAPI) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// Count returns how many requests matched method and path.
func (f *FakeAPI) Count(method, path string) int {
	n := 0
	for _, r := range f.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (f *FakeAPI) recordRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
		})
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		f.mu.Lock()
		_, ok := f.tokens[tok]
		f.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var c service.Credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid request body"})
		return
	}
	f.mu.Lock()
	u, ok := f.users[c.Username]
	f.mu.Unlock()
	if !ok || u.password != c.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "Invalid username or password"})
		return
	}
	tok := f.IssueToken(c.Username)
	writeJSON(w, http.StatusOK, service.LoginResponse{
		Success: true, ID: service.ID(u.id), Token: tok,
		Username: c.Username, Email: u.email, Message: "Login successful",
	})
}

func (f *FakeAPI) signup(w http.ResponseWriter, r *http.Request) {
	var reg service.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid request body"})
		return
	}
	f.mu.Lock()
	_, exists := f.users[reg.Username]
	f.mu.Unlock()
	if exists {
		writeJSON(w, http.StatusConflict, map[string]any{"success": false, "message": "Username already exists"})
		return
	}
	f.AddUser(reg.Username, reg.Email, reg.Password)
	writeJSON(w, http.StatusCreated, service.SignupResponse{Success: true, Message: "User registered successfully"})
}

func (f *FakeAPI) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	f.mu.Lock()
	snap := page(f.tasks, service.ListQuery{
		Offset: offset,
		Limit:  limit,
		Search: q.Get("search"),
		Status: service.Status(q.Get("filter")),
	})
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"data": snap})
}

func (f *FakeAPI) createTask(w http.ResponseWriter, r *http.Request) {
	var t service.Task
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid request body"})
		return
	}
	if !t.Status.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid status"})
		return
	}
	f.mu.Lock()
	t = f.insert(t)
	f.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{"data": t})
}

func (f *FakeAPI) getTask(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(service.ID(chi.URLParam(r, "id")))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Task not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": f.tasks[i]})
}

func (f *FakeAPI) updateTask(w http.ResponseWriter, r *http.Request) {
	var upd service.TaskUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid request body"})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(service.ID(chi.URLParam(r, "id")))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Task not found"})
		return
	}
	applyUpdate(&f.tasks[i], upd)
	writeJSON(w, http.StatusOK, map[string]any{"data": f.tasks[i]})
}

func (f *FakeAPI) deleteTask(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(service.ID(chi.URLParam(r, "id")))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Task not found"})
		return
	}
	f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeAPI) index(id service.ID) int {
	for i, t := range f.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
