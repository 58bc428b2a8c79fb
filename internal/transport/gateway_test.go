package transport_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"taskmgr/internal/session"
	"taskmgr/internal/transport"
)

type captured struct {
	method string
	path   string
	query  url.Values
	header http.Header
	body   map[string]any
}

// newServer records the last request and answers with status and body.
func newServer(t *testing.T, status int, body string) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.method = r.Method
		c.path = r.URL.EscapedPath()
		c.query = r.URL.Query()
		c.header = r.Header.Clone()
		c.body = nil
		_ = json.NewDecoder(r.Body).Decode(&c.body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func newGateway(t *testing.T, baseURL string, store *session.Store) *transport.Gateway {
	t.Helper()
	gw, err := transport.New(transport.Options{
		BaseURL:    baseURL,
		DomainName: "taskmanager",
		Tokens:     store,
	})
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	return gw
}

func TestNew_RejectsInvalidBaseURL(t *testing.T) {
	if _, err := transport.New(transport.Options{BaseURL: "not a url"}); err == nil {
		t.Error("expected error for invalid base URL")
	}
}

func TestDo_FixedHeadersAndPayload(t *testing.T) {
	srv, c := newServer(t, http.StatusOK, `{"data":{"id":"1"}}`)
	gw := newGateway(t, srv.URL+"/api", session.NewMemory())

	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	err := gw.Do(context.Background(), transport.Request{
		Method: http.MethodPost,
		Path:   "tasks",
		Body:   map[string]string{"title": "Plan"},
	}, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.method != http.MethodPost || c.path != "/api/tasks" {
		t.Errorf("unexpected request %s %s", c.method, c.path)
	}
	if got := c.header.Get("Content-Type"); got != "application/json" {
		t.Errorf("expected JSON content type, got %q", got)
	}
	if got := c.header.Get("domainName"); got != "taskmanager" {
		t.Errorf("expected domainName header, got %q", got)
	}
	if c.header.Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}
	if c.header.Get("Authorization") != "" {
		t.Error("logged-out request must not carry Authorization")
	}
	if c.body["title"] != "Plan" {
		t.Errorf("unexpected body %v", c.body)
	}
	if out.Data.ID != "1" {
		t.Errorf("expected payload decoded, got %+v", out)
	}
}

// The bearer token must be the live session token, never a fixed string.
func TestDo_BearerTokenFollowsSession(t *testing.T) {
	srv, c := newServer(t, http.StatusOK, `{}`)
	store := session.NewMemory()
	gw := newGateway(t, srv.URL, store)

	for _, tok := range []string{"token-a", "token-b"} {
		if err := store.Set(session.Session{LoggedIn: true, Token: tok}); err != nil {
			t.Fatalf("set session: %v", err)
		}
		if err := gw.Do(context.Background(), transport.Request{Path: "tasks"}, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got, want := c.header.Get("Authorization"), "Bearer "+tok; got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := gw.Do(context.Background(), transport.Request{Path: "tasks"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.header.Get("Authorization") != "" {
		t.Error("Authorization should be dropped after logout")
	}
}

func TestDo_PathParamsAndQuery(t *testing.T) {
	srv, c := newServer(t, http.StatusOK, `{}`)
	gw := newGateway(t, srv.URL+"/api/", session.NewMemory())

	q := url.Values{}
	q.Set("limit", "10")
	q.Add("columnNames", "id")
	q.Add("columnNames", "status")
	err := gw.Do(context.Background(), transport.Request{
		Path:   "tasks/{id}",
		Params: map[string]string{"id": "a/b"},
		Query:  q,
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.path != "/api/tasks/a%2Fb" {
		t.Errorf("expected escaped id in path, got %q", c.path)
	}
	if got := c.query["columnNames"]; len(got) != 2 || got[0] != "id" || got[1] != "status" {
		t.Errorf("expected repeated columnNames, got %v", got)
	}
}

func TestDo_ErrorMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"message field", http.StatusBadRequest, `{"message":"Title taken"}`, "Title taken"},
		{"error field", http.StatusUnauthorized, `{"error":"Invalid credentials"}`, "Invalid credentials"},
		{"nested error", http.StatusInternalServerError, `{"error":{"message":"boom"}}`, "boom"},
		{"no message", http.StatusNotFound, `{}`, transport.GenericMessage},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`, transport.GenericMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, tt.status, tt.body)
			gw := newGateway(t, srv.URL, session.NewMemory())

			err := gw.Do(context.Background(), transport.Request{Path: "tasks"}, nil)
			rerr, ok := transport.AsRequestError(err)
			if !ok {
				t.Fatalf("expected RequestError, got %T %v", err, err)
			}
			if rerr.Message != tt.want {
				t.Errorf("expected message %q, got %q", tt.want, rerr.Message)
			}
			if rerr.StatusCode != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rerr.StatusCode)
			}
		})
	}
}

func TestDo_NetworkFailureIsRequestError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	gw := newGateway(t, base, session.NewMemory())
	err := gw.Do(context.Background(), transport.Request{Path: "tasks"}, nil)
	rerr, ok := transport.AsRequestError(err)
	if !ok {
		t.Fatalf("expected RequestError, got %T %v", err, err)
	}
	if rerr.StatusCode != 0 || rerr.Message != transport.GenericMessage {
		t.Errorf("unexpected error %+v", rerr)
	}
	if rerr.Unwrap() == nil {
		t.Error("network cause should be wrapped")
	}
}

func TestDo_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	gw, err := transport.New(transport.Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	err = gw.Do(context.Background(), transport.Request{Path: "tasks"}, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if rerr, _ := transport.AsRequestError(err); rerr.Message != "request timed out" {
		t.Errorf("unexpected message %q", rerr.Message)
	}
}

func TestDo_TracerProviderRecordsSpans(t *testing.T) {
	srv, c := newServer(t, http.StatusOK, `{"data":null}`)
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	gw, err := transport.New(transport.Options{
		BaseURL:        srv.URL + "/api",
		DomainName:     "taskmanager",
		TracerProvider: tp,
	})
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	if err := gw.Do(context.Background(), transport.Request{Method: http.MethodGet, Path: "tasks"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := c.header.Get("Traceparent"); got == "" {
		t.Error("expected traceparent header on traced request")
	}
	if spans := rec.Ended(); len(spans) != 1 {
		t.Errorf("expected one client span, got %d", len(spans))
	}
}

func TestDo_NoTracerProviderSendsNoTraceparent(t *testing.T) {
	srv, c := newServer(t, http.StatusOK, `{"data":null}`)
	gw := newGateway(t, srv.URL+"/api", session.NewMemory())

	if err := gw.Do(context.Background(), transport.Request{Method: http.MethodGet, Path: "tasks"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.header.Get("Traceparent"); got != "" {
		t.Errorf("unexpected traceparent %q", got)
	}
}
