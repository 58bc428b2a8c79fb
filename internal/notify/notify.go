// Package notify delivers transient success/failure notifications.
package notify

import (
	"fmt"
	"io"
	"sync"
)

// Notifier reports the outcome of a user-visible operation.
type Notifier interface {
	Success(msg string)
	Failure(msg string, err error)
}

// Writer prints notifications: successes to Out, failures to Err.
type Writer struct {
	mu    sync.Mutex
	Out   io.Writer
	Err   io.Writer
	Quiet bool
}

// NewWriter creates a Writer.
func NewWriter(out, errOut io.Writer, quiet bool) *Writer {
	return &Writer{Out: out, Err: errOut, Quiet: quiet}
}

// Success implements Notifier. Suppressed in quiet mode.
func (w *Writer) Success(msg string) {
	if w.Quiet {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintln(w.Out, msg)
}

// Failure implements Notifier.
func (w *Writer) Failure(msg string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil && err.Error() != msg {
		fmt.Fprintf(w.Err, "error: %s: %v\n", msg, err)
		return
	}
	fmt.Fprintf(w.Err, "error: %s\n", msg)
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Success(string)        {}
func (Nop) Failure(string, error) {}
