// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"taskmgr/internal/service"
)

const (
	// Separator is printed between the task rows and the page footer.
	Separator = "------------"

	// DateLayout is how due dates are printed.
	DateLayout = "2006-01-02"

	statusWidth = 11
)

// Page is one rendered page of the task list.
type Page struct {
	Items    []service.Task
	Count    int
	Offset   int
	PageSize int
	Search   string
	Status   service.Status
}

func (p Page) filtered() bool {
	return p.Search != "" || p.Status != ""
}

func (p Page) pages() int {
	if p.Count == 0 || p.PageSize < 1 {
		return 1
	}
	return (p.Count + p.PageSize - 1) / p.PageSize
}

// styles renders against w so colors are dropped for non-terminals.
type styles struct {
	status  map[service.Status]lipgloss.Style
	urgency map[service.Urgency]lipgloss.Style
	faint   lipgloss.Style
	bold    lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	badge := r.NewStyle().Width(statusWidth)
	return styles{
		status: map[service.Status]lipgloss.Style{
			service.StatusPending:    badge.Foreground(lipgloss.Color("214")),
			service.StatusInProgress: badge.Foreground(lipgloss.Color("39")),
			service.StatusCompleted:  badge.Foreground(lipgloss.Color("42")),
		},
		urgency: map[service.Urgency]lipgloss.Style{
			service.UrgencyNormal:      r.NewStyle().Faint(true),
			service.UrgencyDueThisWeek: r.NewStyle().Foreground(lipgloss.Color("220")),
			service.UrgencyDueSoon:     r.NewStyle().Foreground(lipgloss.Color("208")),
			service.UrgencyOverdue:     r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		},
		faint: r.NewStyle().Faint(true),
		bold:  r.NewStyle().Bold(true),
	}
}

func (s styles) statusBadge(st service.Status) string {
	style, ok := s.status[st]
	if !ok {
		return fmt.Sprintf("%-*s", statusWidth, st)
	}
	return style.Render(string(st))
}

// due renders the due date with its urgency. Completed tasks are never
// urgent.
func (s styles) due(t service.Task, now time.Time) string {
	if t.DueDate.IsZero() {
		return s.faint.Render("no due date")
	}
	date := "due " + t.DueDate.Local().Format(DateLayout)
	if t.Status == service.StatusCompleted {
		return s.faint.Render(date)
	}
	u := service.DueUrgency(t.DueDate.Time, now)
	if u == service.UrgencyNormal {
		return s.urgency[u].Render(date)
	}
	return s.urgency[u].Render(date + " (" + u.String() + ")")
}

// FormatTasks prints one list page: a filter line when filters are
// active, one row per task, and a footer. Rows are numbered from 1 within
// the page.
func FormatTasks(w io.Writer, p Page, now time.Time) {
	s := newStyles(w)

	if p.filtered() {
		fmt.Fprintln(w, s.faint.Render("filters: "+describeFilters(p)))
	}

	if len(p.Items) == 0 {
		if p.filtered() {
			fmt.Fprintln(w, "no tasks match the current filters (clear them to see all tasks)")
		} else {
			fmt.Fprintln(w, "no tasks yet (run: taskmgr add <title>)")
		}
		return
	}

	for i, t := range p.Items {
		fmt.Fprintf(w, "%4d  %-6s %s %s  %s\n",
			i+1, "#"+string(t.ID), s.statusBadge(t.Status), normalizeTitle(t.Title), s.due(t, now))
	}

	fmt.Fprintln(w, Separator)
	fmt.Fprintf(w, "page %d of %d, %d %s\n", p.Offset/max(p.PageSize, 1)+1, p.pages(), p.Count, plural(p.Count, "task"))
}

// FormatTask prints every field of one task.
func FormatTask(w io.Writer, t service.Task, now time.Time) {
	s := newStyles(w)
	fmt.Fprintln(w, s.bold.Render(normalizeTitle(t.Title)))
	fmt.Fprintf(w, "  id:          %s\n", t.ID)
	fmt.Fprintf(w, "  status:      %s\n", strings.TrimRight(s.statusBadge(t.Status), " "))
	fmt.Fprintf(w, "  due:         %s\n", s.due(t, now))
	if desc := strings.TrimSpace(t.Description); desc != "" {
		fmt.Fprintf(w, "  description: %s\n", desc)
	}
	if t.CreatedAt != nil && !t.CreatedAt.IsZero() {
		fmt.Fprintf(w, "  created:     %s\n", t.CreatedAt.Local().Format(time.RFC822))
	}
	if t.UpdatedAt != nil && !t.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "  updated:     %s\n", t.UpdatedAt.Local().Format(time.RFC822))
	}
	if action, ok := service.NextAction(t.Status); ok {
		fmt.Fprintf(w, "  next:        %s\n", action.Label)
	}
}

// FormatValidation prints one line per invalid field.
func FormatValidation(w io.Writer, err *service.ValidationError) {
	for _, f := range err.Fields {
		fmt.Fprintf(w, "error: %s: %s\n", f.Field, f.Message)
	}
}

func describeFilters(p Page) string {
	var parts []string
	if p.Search != "" {
		parts = append(parts, fmt.Sprintf("search %q", p.Search))
	}
	if p.Status != "" {
		parts = append(parts, "status "+string(p.Status))
	}
	return strings.Join(parts, ", ")
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
