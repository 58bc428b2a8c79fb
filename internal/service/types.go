// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status is one of the three fixed task states.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Statuses lists every valid status in workflow order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// Valid reports whether s is one of the fixed statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseStatus accepts any casing and "-", "_" or " " as the word separator.
// "all" and "" map to the empty filter status.
func ParseStatus(s string) (Status, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", " ", "_", " ").Replace(norm)
	switch norm {
	case "", "all":
		return "", nil
	case "pending":
		return StatusPending, nil
	case "in progress", "inprogress":
		return StatusInProgress, nil
	case "completed", "complete", "done":
		return StatusCompleted, nil
	}
	return "", fmt.Errorf("invalid status: %s", s)
}

// ID is an opaque server-assigned identifier. The API may send it as a
// JSON string or number.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
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
		return fmt.Errorf("invalid id: %s", data)
	}
	*id = ID(n.String())
	return nil
}

// Date is a date-valued field that accepts RFC3339 or YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate wraps t.
func NewDate(t time.Time) Date { return Date{Time: t} }

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// ParseDate parses any accepted date layout.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t}, nil
		}
	}
	return Date{}, fmt.Errorf("invalid date: %s", s)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.UTC().Format(time.RFC3339))
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Task represents a single task item.
// ID, CreatedAt and UpdatedAt are server-assigned.
type Task struct {
	ID          ID     `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      Status `json:"status"`
	DueDate     Date   `json:"duedate"`
	CreatedAt   *Date  `json:"createdat,omitempty"`
	UpdatedAt   *Date  `json:"updatedat,omitempty"`
}

// NewDraft returns an unsaved task with status Pending due at now.
func NewDraft(now time.Time) Task {
	return Task{Status: StatusPending, DueDate: NewDate(now)}
}

// IsDraft reports whether the task has not been persisted yet.
func (t Task) IsDraft() bool { return t.ID == "" }

// TaskUpdate is a partial task body. Nil fields are not sent.
type TaskUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *Status `json:"status,omitempty"`
	DueDate     *Date   `json:"duedate,omitempty"`
}

// Update returns a TaskUpdate carrying every editable field of t.
func (t Task) Update() TaskUpdate {
	title, desc, status, due := t.Title, t.Description, t.Status, t.DueDate
	return TaskUpdate{Title: &title, Description: &desc, Status: &status, DueDate: &due}
}

// StatusUpdate returns a TaskUpdate that only changes the status.
func StatusUpdate(s Status) TaskUpdate {
	return TaskUpdate{Status: &s}
}

// ListColumns is the fixed projection requested by every list call.
var ListColumns = []string{"id", "status", "title", "description", "duedate"}

// ListQuery carries the parameters of one list call.
// An empty Status means all statuses.
type ListQuery struct {
	Offset int
	Limit  int
	Search string
	Status Status
}

// Snapshot is one page of tasks plus the total of the filtered set.
type Snapshot struct {
	Items []Task `json:"data"`
	Count int    `json:"count"`
}

// Credentials is the login payload.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the signup payload.
type Registration struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the flat body returned by the login endpoint.
type LoginResponse struct {
	Success  bool   `json:"success"`
	ID       ID     `json:"id"`
	Token    string `json:"token"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Message  string `json:"message"`
}

// SignupResponse is the flat body returned by the signup endpoint.
type SignupResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
