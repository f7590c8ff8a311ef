package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/tagindex/internal/build"
	"git.home.luguber.info/inful/tagindex/internal/config"
	"git.home.luguber.info/inful/tagindex/internal/daemon"
	"git.home.luguber.info/inful/tagindex/internal/docs"
	"git.home.luguber.info/inful/tagindex/internal/errors"
	"git.home.luguber.info/inful/tagindex/internal/events"
	"git.home.luguber.info/inful/tagindex/internal/git"
	"git.home.luguber.info/inful/tagindex/internal/logfields"
	"git.home.luguber.info/inful/tagindex/internal/metrics"
	"git.home.luguber.info/inful/tagindex/internal/state"
	"git.home.luguber.info/inful/tagindex/internal/tags"
	"git.home.luguber.info/inful/tagindex/internal/version"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"tagindex.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Strict bool `help:"Escalate document metadata problems to a failed pass"`
	} `cmd:"" help:"Run one tag pass over the configured docs tree"`

	Scan struct {
		ProblemsOnly bool `help:"Report only documents with metadata problems"`
	} `cmd:"" help:"Scan the docs tree and report tag usage without writing pages"`

	Watch struct{} `cmd:"" help:"Keep the tag index fresh as documents change"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	ctx := kong.Parse(&CLI)

	// Provisional logger until the configuration says otherwise.
	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	adapter := errors.NewCLIErrorAdapter(CLI.Verbose, nil)

	switch ctx.Command() {
	case "build":
		adapter.HandleError(runBuild(CLI.Config, CLI.Build.Strict))
	case "scan":
		adapter.HandleError(runScan(CLI.Config, CLI.Scan.ProblemsOnly))
	case "watch":
		adapter.HandleError(runWatch(CLI.Config))
	case "init":
		adapter.HandleError(runInit(CLI.Config, CLI.Init.Force))
	case "version":
		runVersion()
	}
}

func setupLogging(cfg config.LoggingConfig, verbose bool) {
	level := cfg.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if config.NormalizeLogFormat(cfg.Format) == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// newBuilder wires a builder with everything the configuration enables. The
// returned cleanup closes the state store and the event connection.
func newBuilder(cfg *config.Config) (*build.Builder, func(), error) {
	b := build.NewBuilder(cfg)

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if cfg.State.Enabled {
		store, err := state.Open(cfg.State.Path)
		if err != nil {
			return nil, nil, err
		}
		cleanups = append(cleanups, func() {
			if err := store.Close(); err != nil {
				slog.Warn("State store close failed", logfields.Error(err))
			}
		})
		b.WithStore(store)
	}

	if cfg.Events.Enabled {
		pub, err := events.Connect(cfg.Events.URL, cfg.Events.SubjectPrefix)
		if err != nil {
			// Events are best effort; a pass without them is still a pass.
			slog.Warn("Event connection failed, continuing without publishing", logfields.Error(err))
		} else {
			cleanups = append(cleanups, pub.Close)
			b.WithPublisher(pub)
		}
	}

	if cfg.Source.Git != nil {
		b.WithSyncer(git.NewSyncer(*cfg.Source.Git))
	}

	return b, cleanup, nil
}

func runBuild(configPath string, strict bool) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	if strict {
		cfg.Strict = true
	}
	setupLogging(cfg.Logging, CLI.Verbose)

	b, cleanup, err := newBuilder(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	_, err = b.Run(ctx)
	return err
}

func runScan(configPath string, problemsOnly bool) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	setupLogging(cfg.Logging, CLI.Verbose)

	docsDir := cfg.Site.DocsDir
	if g := cfg.Source.Git; g != nil {
		docsDir = filepath.Join(g.Path, cfg.Site.DocsDir)
		if _, err := os.Stat(docsDir); err != nil {
			return errors.ValidationFailed("source.git",
				"no local checkout to scan, run a build first")
		}
	}

	metas, problems, err := docs.NewScanner(docsDir).Scan()
	if err != nil {
		return err
	}

	if !problemsOnly {
		tagged := 0
		for _, m := range metas {
			if len(m.Tags) > 0 {
				tagged++
			}
		}
		idx := tags.Aggregate(metas)
		slog.Info("Scan completed",
			logfields.Dir(docsDir),
			slog.Int("documents", len(metas)),
			slog.Int("tagged", tagged),
			slog.Int("tags", len(idx.Groups)))
		for _, g := range idx.Groups {
			slog.Info("  Tag discovered", logfields.Tag(g.Tag), logfields.Count(len(g.Docs)))
		}
	}

	for _, p := range problems {
		slog.Warn("Document problem", logfields.Path(p.Path),
			slog.String("field", p.Field), slog.String("reason", p.Reason))
	}
	if cfg.Strict && len(problems) > 0 {
		return errors.ValidationFailed("docs",
			fmt.Sprintf("%d documents with metadata problems", len(problems)))
	}
	return nil
}

func runWatch(configPath string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	setupLogging(cfg.Logging, CLI.Verbose)

	b, cleanup, err := newBuilder(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	d := daemon.New(cfg, b)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		b.WithRecorder(metrics.NewPrometheusRecorder(reg))
		d.WithRegistry(reg)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("Starting watch daemon", logfields.Dir(cfg.Site.DocsDir))
	return d.Run(ctx)
}

func runInit(configPath string, force bool) error {
	slog.Info("Initializing configuration", logfields.Path(configPath), slog.Bool("force", force))
	return config.Init(configPath, force)
}

func runVersion() {
	fmt.Printf("tagindex %s (commit %s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
}
