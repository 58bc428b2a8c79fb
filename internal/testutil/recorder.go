package testutil

import "sync"

// Notification is one recorded notify call.
type Notification struct {
	Success bool
	Message string
	Err     error
}

// Recorder is a notify.Notifier that keeps every notification.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

// Success implements notify.Notifier.
func (r *Recorder) Success(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Notification{Success: true, Message: msg})
}

// Failure implements notify.Notifier.
func (r *Recorder) Failure(msg string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Notification{Message: msg, Err: err})
}

// All returns the notifications in order.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Failures returns the failure messages in order.
func (r *Recorder) Failures() []string {
	var out []string
	for _, n := range r.All() {
		if !n.Success {
			out = append(out, n.Message)
		}
	}
	return out
}

// Successes returns the success messages in order.
func (r *Recorder) Successes() []string {
	var out []string
	for _, n := range r.All() {
		if n.Success {
			out = append(out, n.Message)
		}
	}
	return out
}
