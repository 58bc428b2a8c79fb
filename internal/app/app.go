// Package app wires the stores and services together. Every component
// receives its dependencies explicitly; nothing is global.
package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"taskmgr/internal/auth"
	"taskmgr/internal/backend/taskapi"
	"taskmgr/internal/config"
	"taskmgr/internal/gate"
	"taskmgr/internal/listctl"
	"taskmgr/internal/logging"
	"taskmgr/internal/notify"
	"taskmgr/internal/service"
	"taskmgr/internal/session"
	"taskmgr/internal/taskstore"
	"taskmgr/internal/tasksync"
	"taskmgr/internal/telemetry"
	"taskmgr/internal/transport"
)

// Backend is the full remote API surface.
type Backend interface {
	service.Service
	service.Authenticator
}

// Options overrides parts of the wiring. The zero value builds the real
// stack from the Config.
type Options struct {
	// Backend replaces the HTTP client.
	Backend Backend

	// Session replaces the on-disk session store.
	Session *session.Store

	// Logger replaces the logger built from the Config.
	Logger *zap.Logger

	// Now is the clock used by validation.
	Now func() time.Time

	Out io.Writer
	Err io.Writer
}

// App holds the wired components.
type App struct {
	Config  *config.Config
	Log     *zap.Logger
	Notify  notify.Notifier
	Session *session.Store
	Auth    *auth.Workflow
	Store   *taskstore.Store
	Tasks   *tasksync.Service
	List    *listctl.Controller
	Gate    *gate.Gate

	closeSession bool
	closeLog     func() error
	tracer       *telemetry.Tracer
}

// New builds an App from cfg.
func New(cfg *config.Config, opts Options) (*App, error) {
	out, errOut := opts.Out, opts.Err
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}

	log, closeLog := opts.Logger, func() error { return nil }
	if log == nil {
		var err error
		log, closeLog, err = logging.New(logging.Options{Debug: cfg.Debug, File: cfg.LogFile, Output: errOut})
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	a := &App{Config: cfg, Log: log, Session: opts.Session, closeLog: closeLog}
	if a.Session == nil {
		if err := cfg.EnsureDir(); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		store, err := session.Open(cfg.SessionPath())
		if err != nil {
			return nil, fmt.Errorf("failed to open session: %w", err)
		}
		a.Session = store
		a.closeSession = true
	}

	backend := opts.Backend
	if backend == nil {
		topts := transport.Options{
			BaseURL:    cfg.APIURL,
			DomainName: cfg.DomainName,
			Timeout:    cfg.Timeout,
			Tokens:     a.Session,
			Logger:     log.Named("transport"),
		}
		if cfg.TraceFile != "" {
			tracer, err := telemetry.NewFile(cfg.TraceFile)
			if err != nil {
				a.Close()
				return nil, err
			}
			a.tracer = tracer
			topts.TracerProvider = tracer.Provider()
		}
		gw, err := transport.New(topts)
		if err != nil {
			a.Close()
			return nil, err
		}
		backend = taskapi.New(gw)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	a.Notify = notify.NewWriter(out, errOut, cfg.Quiet)
	a.Auth = auth.New(backend, a.Session, a.Notify, log.Named("auth"))
	a.Store = taskstore.New()
	a.Tasks = tasksync.New(backend, a.Store, a.Notify,
		tasksync.WithLogger(log.Named("tasksync")),
		tasksync.WithClock(now),
	)
	a.List = listctl.New(a.Tasks, cfg.PageSize, log.Named("listctl"))
	a.Gate = gate.New(a.Tasks, a.List, log.Named("gate"))

	log.Debug("app ready",
		zap.String("api_url", cfg.APIURL),
		zap.Int("page_size", cfg.PageSize),
		zap.Duration("timeout", cfg.Timeout),
	)
	return a, nil
}

// LoggedIn reports whether the session holds a token.
func (a *App) LoggedIn() bool {
	return a.Session.Current().LoggedIn
}

// Close releases the session database, the trace file and the log file.
// The first error is returned.
func (a *App) Close() error {
	var errs []error
	if a.closeSession {
		errs = append(errs, a.Session.Close())
	}
	if a.tracer != nil {
		errs = append(errs, a.tracer.Close())
	}
	errs = append(errs, a.closeLog())
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
