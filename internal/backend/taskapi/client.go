// Package taskapi implements service.Service and service.Authenticator over
// the task manager REST API.
package taskapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"taskmgr/internal/service"
	"taskmgr/internal/transport"
)

// Doer is the gateway surface the client needs.
type Doer interface {
	Do(ctx context.Context, r transport.Request, out any) error
}

// Client implements the task and auth endpoints.
type Client struct {
	gw Doer
}

// New creates a Client on top of a gateway.
func New(gw Doer) *Client {
	return &Client{gw: gw}
}

// envelope is the {"data": ...} wrapper used by the task endpoints.
type envelope[T any] struct {
	Data T `json:"data"`
}

func idParams(id service.ID) map[string]string {
	return map[string]string{"id": string(id)}
}

// CreateTask implements service.Service.
func (c *Client) CreateTask(ctx context.Context, draft service.Task) (service.Task, error) {
	draft.ID, draft.CreatedAt, draft.UpdatedAt = "", nil, nil

	var out envelope[service.Task]
	err := c.gw.Do(ctx, transport.Request{Method: http.MethodPost, Path: "tasks", Body: draft}, &out)
	if err != nil {
		return service.Task{}, err
	}
	return out.Data, nil
}

// UpdateTask implements service.Service.
func (c *Client) UpdateTask(ctx context.Context, id service.ID, upd service.TaskUpdate) (service.Task, error) {
	var out envelope[service.Task]
	err := c.gw.Do(ctx, transport.Request{
		Method: http.MethodPut,
		Path:   "tasks/{id}",
		Params: idParams(id),
		Body:   upd,
	}, &out)
	if err != nil {
		return service.Task{}, err
	}
	return out.Data, nil
}

// ListTasks implements service.Service.
func (c *Client) ListTasks(ctx context.Context, q service.ListQuery) (service.Snapshot, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(q.Limit))
	query.Set("offset", strconv.Itoa(q.Offset))
	query.Set("search", q.Search)
	query.Set("filter", string(q.Status))
	for _, col := range service.ListColumns {
		query.Add("columnNames", col)
	}

	var out envelope[service.Snapshot]
	if err := c.gw.Do(ctx, transport.Request{Path: "tasks", Query: query}, &out); err != nil {
		return service.Snapshot{}, err
	}
	if out.Data.Items == nil {
		out.Data.Items = []service.Task{}
	}
	return out.Data, nil
}

// GetTask implements service.Service.
func (c *Client) GetTask(ctx context.Context, id service.ID) (service.Task, error) {
	var out envelope[service.Task]
	if err := c.gw.Do(ctx, transport.Request{Path: "tasks/{id}", Params: idParams(id)}, &out); err != nil {
		return service.Task{}, err
	}
	return out.Data, nil
}

// DeleteTask implements service.Service.
func (c *Client) DeleteTask(ctx context.Context, id service.ID) error {
	return c.gw.Do(ctx, transport.Request{Method: http.MethodDelete, Path: "tasks/{id}", Params: idParams(id)}, nil)
}

// Login implements service.Authenticator.
func (c *Client) Login(ctx context.Context, cred service.Credentials) (service.LoginResponse, error) {
	var out service.LoginResponse
	err := c.gw.Do(ctx, transport.Request{Method: http.MethodPost, Path: "auth/login", Body: cred}, &out)
	return out, err
}

// Signup implements service.Authenticator.
func (c *Client) Signup(ctx context.Context, reg service.Registration) (service.SignupResponse, error) {
	var out service.SignupResponse
	err := c.gw.Do(ctx, transport.Request{Method: http.MethodPost, Path: "auth/signup", Body: reg}, &out)
	return out, err
}
