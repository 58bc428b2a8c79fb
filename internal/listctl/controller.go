// Package listctl owns the list query state (search, status filter, page)
// and issues a list fetch whenever the committed part of it changes.
package listctl

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"taskmgr/internal/service"
)

// Fetcher loads one page of tasks.
type Fetcher interface {
	GetAllTasks(ctx context.Context, q service.ListQuery) (service.Snapshot, error)
}

// State is the list query state.
type State struct {
	// SearchText is the uncommitted search input.
	SearchText string

	// GlobalFilter is the committed search term.
	GlobalFilter string

	// StatusFilter is empty for all statuses.
	StatusFilter service.Status

	// Offset is always a multiple of PageSize.
	Offset   int
	PageSize int
}

// Query returns the list call parameters for s.
func (s State) Query() service.ListQuery {
	return service.ListQuery{
		Offset: s.Offset,
		Limit:  s.PageSize,
		Search: s.GlobalFilter,
		Status: s.StatusFilter,
	}
}

// Page returns the 1-based page number.
func (s State) Page() int {
	return s.Offset/s.PageSize + 1
}

// Filtered reports whether a search term or status filter is committed.
func (s State) Filtered() bool {
	return s.GlobalFilter != "" || s.StatusFilter != ""
}

// committed reports whether two states would issue the same fetch.
func (s State) committed(o State) bool {
	return s.Query() == o.Query()
}

// Controller serializes state transitions. Fetches run outside the lock;
// the Task Store discards responses from superseded fetches.
type Controller struct {
	mu    sync.Mutex
	state State
	count int

	fetch Fetcher
	log   *zap.Logger
}

// New creates a Controller with pageSize items per page.
func New(f Fetcher, pageSize int, log *zap.Logger) *Controller {
	if pageSize < 1 {
		pageSize = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{state: State{PageSize: pageSize}, fetch: f, log: log}
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Count returns the total reported by the last successful fetch.
func (c *Controller) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// PageCount returns the number of pages for the last fetched total.
// It is at least 1.
func (c *Controller) PageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.count == 0 {
		return 1
	}
	return (c.count + c.state.PageSize - 1) / c.state.PageSize
}

// SetSearchText records typed input. Only an empty input commits: it
// clears the search and returns to the first page.
func (c *Controller) SetSearchText(ctx context.Context, text string) error {
	return c.apply(ctx, func(s *State) {
		s.SearchText = text
		if text == "" {
			s.GlobalFilter = ""
			s.Offset = 0
		}
	})
}

// SubmitSearch commits the typed input and returns to the first page.
func (c *Controller) SubmitSearch(ctx context.Context) error {
	return c.apply(ctx, func(s *State) {
		s.GlobalFilter = s.SearchText
		s.Offset = 0
	})
}

// Search types text and submits it in one step.
func (c *Controller) Search(ctx context.Context, text string) error {
	return c.apply(ctx, func(s *State) {
		s.SearchText = text
		s.GlobalFilter = text
		s.Offset = 0
	})
}

// SetStatusFilter commits a status filter and returns to the first page.
// The empty status means all.
func (c *Controller) SetStatusFilter(ctx context.Context, status service.Status) error {
	return c.apply(ctx, func(s *State) {
		s.StatusFilter = status
		s.Offset = 0
	})
}

// SetPage moves to the 1-based page without touching filters. Pages below
// 1 are clamped to 1.
func (c *Controller) SetPage(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	return c.apply(ctx, func(s *State) {
		s.Offset = (page - 1) * s.PageSize
	})
}

// SetOffset moves to the page containing offset.
func (c *Controller) SetOffset(ctx context.Context, offset int) error {
	if offset < 0 {
		offset = 0
	}
	return c.apply(ctx, func(s *State) {
		s.Offset = offset - offset%s.PageSize
	})
}

// NextPage advances one page if the last fetched total has more.
func (c *Controller) NextPage(ctx context.Context) error {
	st := c.State()
	if st.Page() >= c.PageCount() {
		return nil
	}
	return c.SetPage(ctx, st.Page()+1)
}

// PrevPage goes back one page, stopping at the first.
func (c *Controller) PrevPage(ctx context.Context) error {
	st := c.State()
	if st.Page() <= 1 {
		return nil
	}
	return c.SetPage(ctx, st.Page()-1)
}

// ClearFilters resets the search, status filter and page together.
func (c *Controller) ClearFilters(ctx context.Context) error {
	return c.apply(ctx, func(s *State) {
		s.SearchText = ""
		s.GlobalFilter = ""
		s.StatusFilter = ""
		s.Offset = 0
	})
}

// Open replaces the committed search, status filter and 1-based page in
// one step and fetches once.
func (c *Controller) Open(ctx context.Context, search string, status service.Status, page int) error {
	if page < 1 {
		page = 1
	}
	c.mu.Lock()
	c.state.SearchText = search
	c.state.GlobalFilter = search
	c.state.StatusFilter = status
	c.state.Offset = (page - 1) * c.state.PageSize
	st := c.state
	c.mu.Unlock()
	return c.load(ctx, st)
}

// Refresh fetches the current page unconditionally.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.load(ctx, c.State())
}

func (c *Controller) apply(ctx context.Context, mutate func(*State)) error {
	c.mu.Lock()
	prev := c.state
	mutate(&c.state)
	next := c.state
	c.mu.Unlock()

	if prev.committed(next) {
		return nil
	}
	return c.load(ctx, next)
}

func (c *Controller) load(ctx context.Context, st State) error {
	q := st.Query()
	c.log.Debug("fetching task page",
		zap.Int("offset", q.Offset),
		zap.Int("limit", q.Limit),
		zap.String("search", q.Search),
		zap.String("status", string(q.Status)),
	)
	snap, err := c.fetch.GetAllTasks(ctx, q)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if !c.state.committed(st) {
		c.mu.Unlock()
		return nil
	}
	c.count = snap.Count
	// A delete can empty the last page; step back to the new last page.
	if len(snap.Items) > 0 || snap.Count == 0 || st.Offset == 0 {
		c.mu.Unlock()
		return nil
	}
	last := (snap.Count - 1) / st.PageSize * st.PageSize
	if last >= st.Offset {
		c.mu.Unlock()
		return nil
	}
	c.state.Offset = last
	next := c.state
	c.mu.Unlock()

	c.log.Debug("page past the end, clamping", zap.Int("offset", next.Offset))
	return c.load(ctx, next)
}
