// Package daemon keeps the tag index continuously fresh: an initial pass,
// then one pass per debounced docs change, plus an optional periodic rescan
// for sources the file watcher cannot see.
package daemon

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/tagindex/internal/build"
	"git.home.luguber.info/inful/tagindex/internal/config"
	"git.home.luguber.info/inful/tagindex/internal/errors"
	"git.home.luguber.info/inful/tagindex/internal/logfields"
	"git.home.luguber.info/inful/tagindex/internal/metrics"
)

// passStatus tracks the latest pass result for the health endpoint.
type passStatus struct {
	mu          sync.RWMutex
	lastError   error
	hasGoodPass bool
}

func (ps *passStatus) setError(err error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.lastError = err
}

func (ps *passStatus) setSuccess() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.lastError = nil
	ps.hasGoodPass = true
}

func (ps *passStatus) snapshot() (lastError error, hasGoodPass bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.lastError, ps.hasGoodPass
}

// Daemon owns the watch loop around a Builder.
type Daemon struct {
	cfg       *config.Config
	builder   *build.Builder
	registry  *prometheus.Registry
	status    passStatus
	onPass    func(*build.PassReport)
	startTime time.Time
}

// New creates a daemon around a configured builder.
func New(cfg *config.Config, builder *build.Builder) *Daemon {
	return &Daemon{cfg: cfg, builder: builder, startTime: time.Now()}
}

// WithRegistry attaches the prometheus registry backing the /metrics
// endpoint. Without it the metrics server stays off even when enabled.
func (d *Daemon) WithRegistry(reg *prometheus.Registry) *Daemon {
	d.registry = reg
	return d
}

// WithOnPass registers a hook invoked after every pass.
func (d *Daemon) WithOnPass(fn func(*build.PassReport)) *Daemon {
	d.onPass = fn
	return d
}

// Run blocks until ctx is done, running passes as changes arrive. The
// initial pass failing does not stop the daemon; subsequent changes may
// repair it.
func (d *Daemon) Run(ctx context.Context) error {
	d.runPass(ctx)

	if d.cfg.Metrics.Enabled && d.registry != nil {
		srv := d.startMetricsServer()
		defer d.stopMetricsServer(srv)
	}

	requests, trigger := newDebouncer(d.cfg.Watch.Debounce())
	d.startPassWorker(ctx, requests)

	var watcher *fsnotify.Watcher
	if d.cfg.Source.Git == nil {
		w, err := setupFileWatcher(d.cfg.Site.DocsDir)
		if err != nil {
			return errors.Wrap(err, errors.CategoryDaemon, errors.SeverityFatal, "docs watch setup failed").
				WithContext("dir", d.cfg.Site.DocsDir)
		}
		watcher = w
		defer func() { _ = watcher.Close() }()
	} else {
		slog.Info("Git source configured, relying on periodic rescan instead of file watching")
	}

	if interval, ok := d.cfg.Watch.RescanEvery(); ok {
		sched, err := NewScheduler()
		if err != nil {
			return errors.Wrap(err, errors.CategoryDaemon, errors.SeverityFatal, "scheduler setup failed")
		}
		if err := sched.ScheduleRescan(interval, trigger); err != nil {
			return errors.Wrap(err, errors.CategoryDaemon, errors.SeverityFatal, "rescan job setup failed")
		}
		sched.Start()
		defer func() { _ = sched.Stop() }()
		slog.Info("Periodic rescan scheduled", slog.Duration("interval", interval))
	} else if watcher == nil {
		slog.Warn("No file watcher and no rescan interval configured; daemon will idle")
	}

	return d.loop(ctx, watcher, trigger)
}

// loop dispatches filesystem events until ctx is done. With a nil watcher
// its channels stay nil and only cancellation can end the loop.
func (d *Daemon) loop(ctx context.Context, watcher *fsnotify.Watcher, trigger func()) error {
	var events chan fsnotify.Event
	var errs chan error
	if watcher != nil {
		events = watcher.Events
		errs = watcher.Errors
	}
	for {
		select {
		case <-ctx.Done():
			slog.Info("Shutting down watch daemon")
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			handleFileEvent(watcher, ev, trigger)
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "error", err)
		}
	}
}

// startPassWorker consumes pass requests. A request arriving mid-pass marks
// a pending run instead of stacking up.
func (d *Daemon) startPassWorker(ctx context.Context, requests chan struct{}) {
	var mu sync.Mutex
	running := false
	pending := false

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-requests:
				if !ok {
					return
				}
				mu.Lock()
				if running {
					pending = true
					mu.Unlock()
					continue
				}
				running = true
				mu.Unlock()

				slog.Info("Change detected; running tag pass")
				d.runPass(ctx)

				mu.Lock()
				running = false
				if pending {
					pending = false
					mu.Unlock()
					select {
					case requests <- struct{}{}:
					default:
					}
				} else {
					mu.Unlock()
				}
			}
		}
	}()
}

func (d *Daemon) runPass(ctx context.Context) {
	report, err := d.builder.Run(ctx)
	if err != nil {
		slog.Warn("Pass failed", logfields.Error(err))
		d.status.setError(err)
	} else {
		d.status.setSuccess()
	}
	if d.onPass != nil {
		d.onPass(report)
	}
}

func (d *Daemon) startMetricsServer() *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(d.registry))
	mux.HandleFunc("/healthz", d.handleHealth)

	srv := &http.Server{
		Addr:              d.cfg.Metrics.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("Metrics server listening", logfields.URL(d.cfg.Metrics.Listen))
		if err := srv.ListenAndServe(); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			slog.Warn("Metrics server stopped", logfields.Error(err))
		}
	}()
	return srv
}

func (d *Daemon) stopMetricsServer(srv *http.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Metrics server shutdown error", logfields.Error(err))
	}
}

func (d *Daemon) handleHealth(w http.ResponseWriter, _ *http.Request) {
	lastErr, hasGood := d.status.snapshot()
	payload := map[string]any{
		"status":    "ok",
		"uptime":    time.Since(d.startTime).Truncate(time.Second).String(),
		"good_pass": hasGood,
	}
	if lastErr != nil {
		payload["status"] = "degraded"
		payload["last_error"] = lastErr.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
