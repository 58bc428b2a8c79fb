package app_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"taskmgr/internal/app"
	"taskmgr/internal/config"
	"taskmgr/internal/service"
	"taskmgr/internal/testutil"
)

// TestApp_EndToEnd drives the real HTTP stack against the fake API.
func TestApp_EndToEnd(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.AddUser("ann", "ann@example.com", "password1")

	cfg, err := config.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cfg.APIURL = api.URL()
	cfg.Timeout = 5 * time.Second

	var out, errOut bytes.Buffer
	a, err := app.New(cfg, app.Options{Out: &out, Err: &errOut})
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	defer a.Close()
	ctx := context.Background()

	if res := a.Auth.Login(ctx, "ann", "password1"); !res.Success {
		t.Fatalf("login failed: %+v", res)
	}

	task, err := a.Tasks.AddTask(ctx, service.Task{
		Title:   "Plan meeting",
		Status:  service.StatusPending,
		DueDate: service.NewDate(time.Now().Add(48 * time.Hour)),
	})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	if err := a.List.Search(ctx, "meeting"); err != nil {
		t.Fatal(err)
	}
	if items := a.Store.Tasks(); len(items) != 1 || items[0].ID != task.ID {
		t.Fatalf("unexpected page %+v", items)
	}

	req, err := a.Gate.RequestStatusChange(task)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Gate.Confirm(ctx, req); err != nil {
		t.Fatal(err)
	}
	if got := a.Store.Tasks()[0].Status; got != service.StatusInProgress {
		t.Errorf("expected refreshed status In Progress, got %s", got)
	}

	for _, r := range api.Requests() {
		if strings.HasPrefix(r.Path, "/api/tasks") && r.Header.Get("Authorization") == "" {
			t.Errorf("%s %s sent without a token", r.Method, r.Path)
		}
	}
	if !strings.Contains(out.String(), "Task added successfully") {
		t.Errorf("expected add notification, got %q", out.String())
	}
}

func TestApp_SessionSurvivesRestart(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.AddUser("ann", "ann@example.com", "password1")
	dir := t.TempDir()

	cfg, _ := config.New(dir)
	cfg.APIURL = api.URL()
	first, err := app.New(cfg, app.Options{Out: &bytes.Buffer{}, Err: &bytes.Buffer{}})
	if err != nil {
		t.Fatal(err)
	}
	if res := first.Auth.Login(context.Background(), "ann", "password1"); !res.Success {
		t.Fatalf("login failed: %+v", res)
	}
	first.Close()

	second, err := app.New(cfg, app.Options{Out: &bytes.Buffer{}, Err: &bytes.Buffer{}})
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()
	if !second.LoggedIn() {
		t.Fatal("expected session to survive restart")
	}
	if err := second.List.Refresh(context.Background()); err != nil {
		t.Fatalf("authenticated refresh failed: %v", err)
	}
}

func TestApp_InvalidAPIURL(t *testing.T) {
	cfg, _ := config.New(t.TempDir())
	cfg.APIURL = "not a url"

	_, err := app.New(cfg, app.Options{Out: &bytes.Buffer{}, Err: &bytes.Buffer{}})
	if err == nil {
		t.Fatal("expected error for invalid API URL")
	}
}

func TestApp_CloseFlushesLogAndTraceFiles(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.AddUser("ann", "ann@example.com", "password1")
	dir := t.TempDir()

	cfg, _ := config.New(dir)
	cfg.APIURL = api.URL()
	cfg.LogFile = filepath.Join(dir, "logs", "taskmgr.log")
	cfg.TraceFile = filepath.Join(dir, "trace", "spans.json")

	a, err := app.New(cfg, app.Options{Out: &bytes.Buffer{}, Err: &bytes.Buffer{}})
	if err != nil {
		t.Fatal(err)
	}
	if res := a.Auth.Login(context.Background(), "ann", "password1"); !res.Success {
		t.Fatalf("login failed: %+v", res)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	logData, err := os.ReadFile(cfg.LogFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(logData), "app ready") {
		t.Errorf("expected startup entry in log file, got %q", logData)
	}

	traceData, err := os.ReadFile(cfg.TraceFile)
	if err != nil {
		t.Fatalf("failed to read trace file: %v", err)
	}
	if !strings.Contains(string(traceData), "service.name") {
		t.Errorf("expected an exported span, got %q", traceData)
	}
	for _, r := range api.Requests() {
		if r.Header.Get("Traceparent") == "" {
			t.Errorf("%s %s sent without traceparent", r.Method, r.Path)
		}
	}
}
