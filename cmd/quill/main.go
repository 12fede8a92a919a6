package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/odvcencio/quill/pkg/auth"
	"github.com/odvcencio/quill/pkg/config"
	"github.com/odvcencio/quill/pkg/fallback"
	"github.com/odvcencio/quill/pkg/logging"
	"github.com/odvcencio/quill/pkg/model"
	"github.com/odvcencio/quill/pkg/observability"
	"github.com/odvcencio/quill/pkg/session"
	"github.com/odvcencio/quill/pkg/storage"
	"github.com/odvcencio/quill/pkg/telemetry"
)

// Version information - set via ldflags during build
var (
	version   = "1.0.0-dev"
	commit    = "unknown"
	buildDate = "unknown"
)

var configPath string
var modelOverride string
var sessionName string
var logLevel string
var enableTracing bool

func main() {
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.StringVar(&modelOverride, "model", "", "model to use for this session")
	flag.StringVar(&sessionName, "session", "", "name a fresh session instead of reusing the workspace session")
	flag.StringVar(&logLevel, "log-level", "", "minimum log level (debug, info, warn, error)")
	flag.BoolVar(&enableTracing, "trace", false, "emit trace spans to stdout")
	flag.Usage = printUsage
	flag.Parse()

	if err := run(flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "quill: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: quill [flags] <command>

Commands:
  models              list known models and their availability
  settings get <key>  read an effective setting
  settings set <scope> <key> <value>
                      write a setting (scope: user, workspace, system)
  settings unset <scope> <key>
                      remove a setting
  version             print version information

Flags:
`)
	flag.PrintDefaults()
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return nil
	}

	if args[0] == "version" {
		fmt.Printf("quill %s (%s, built %s)\n", version, commit, buildDate)
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.close()

	switch args[0] {
	case "models":
		return app.listModels()
	case "settings":
		return app.runSettings(args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// app holds the wired session: config, settings store, auth, and the
// fallback orchestrator with a plain stdin prompter.
type app struct {
	cfg     *config.Config
	store   *storage.Store
	authMgr *auth.Manager
	catalog *model.Catalog
	state   *session.State
	logger  *logging.Logger
	hub     *telemetry.Hub
	orch    *fallback.Orchestrator
	tracing *observability.TracerProvider
}

func newApp(ctx context.Context) (*app, error) {
	workspaceDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("determining working directory: %w", err)
	}

	if configPath != "" {
		os.Setenv(config.EnvConfigPath, configPath)
	}
	cfg, err := config.Load(workspaceDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	a := &app{cfg: cfg}

	if enableTracing {
		tp, err := observability.NewTracerProvider("quill", version)
		if err != nil {
			return nil, fmt.Errorf("starting tracer: %w", err)
		}
		a.tracing = tp
	}

	sessionID := resolveSessionID(workspaceDir, sessionName)
	a.state = session.NewState(sessionID)
	if modelOverride != "" {
		a.state.ActivateFallback(modelOverride)
	}

	logDir := cfg.Logging.Dir
	if logDir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			logDir = filepath.Join(home, ".quill", "logs")
		}
	}
	if logDir != "" {
		// Logging is best effort; a read-only home still gets a working CLI.
		if logger, err := logging.NewLogger(logDir, sessionID); err == nil {
			logger.SetMinLevel(logging.Level(cfg.Logging.Level))
			a.logger = logger
		}
	}

	storePath := cfg.Storage.Path
	if storePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			a.releaseOnInitError()
			return nil, fmt.Errorf("determining home directory: %w", err)
		}
		storePath = filepath.Join(home, ".quill", "quill.db")
	}
	store, err := storage.New(storePath)
	if err != nil {
		a.releaseOnInitError()
		return nil, fmt.Errorf("opening settings store: %w", err)
	}
	a.store = store

	method := auth.Method(cfg.Auth.Method)
	a.authMgr = auth.NewManager(method)
	a.catalog = model.NewCatalog(cfg)
	a.hub = telemetry.NewHub()

	prompter := newStdinPrompter(os.Stdin, os.Stdout)
	a.orch = fallback.NewOrchestrator(cfg, a.state, store, a.authMgr, prompter, a.logger, a.hub)

	a.hub.Publish(telemetry.Event{
		Type:      telemetry.EventSessionStarted,
		SessionID: sessionID,
	})
	a.logger.Info(logging.CategorySession, "session.started", "session started", map[string]any{
		"workspace": workspaceDir,
		"model":     a.catalog.ActiveModel(a.state),
		"auth":      string(method),
	})

	return a, nil
}

// releaseOnInitError closes resources acquired before newApp failed partway
// through wiring.
func (a *app) releaseOnInitError() {
	if a.logger != nil {
		a.logger.Close()
		a.logger = nil
	}
	if a.tracing != nil {
		a.tracing.Shutdown(context.Background())
		a.tracing = nil
	}
}

// resolveSessionID picks the session identity: a named session gets a fresh
// unique ID, otherwise the workspace-derived ID is reused across runs.
func resolveSessionID(workspaceDir, name string) string {
	if name != "" {
		return session.GenerateSessionID(name)
	}
	return session.DetermineSessionID(workspaceDir)
}

func (a *app) close() {
	a.hub.Publish(telemetry.Event{
		Type:      telemetry.EventSessionEnded,
		SessionID: a.state.ID(),
	})
	a.hub.Close()
	if a.store != nil {
		a.store.Close()
	}
	if a.logger != nil {
		a.logger.Close()
	}
	if a.tracing != nil {
		a.tracing.Shutdown(context.Background())
	}
}

func (a *app) listModels() error {
	active := a.catalog.ActiveModel(a.state)
	for _, info := range a.catalog.List() {
		marker := " "
		if info.ID == active {
			marker = "*"
		}
		status, resetAt := a.orch.Availability().StatusOf(info.ID)
		line := fmt.Sprintf("%s %-22s %s", marker, info.ID, info.DisplayName)
		if status == fallback.StatusUnavailableUntil {
			line += fmt.Sprintf("  (unavailable until %s)", resetAt.Format("15:04 MST"))
		}
		fmt.Println(line)
	}
	return nil
}

func (a *app) runSettings(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("settings requires a subcommand (get, set, unset)")
	}

	switch args[0] {
	case "get":
		if len(args) != 2 {
			return fmt.Errorf("usage: quill settings get <key>")
		}
		value, ok, err := a.store.GetValue(args[1])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("setting %q is not set", args[1])
		}
		fmt.Println(value)
		return nil

	case "set":
		if len(args) != 4 {
			return fmt.Errorf("usage: quill settings set <scope> <key> <value>")
		}
		scope, err := storage.ParseScope(args[1])
		if err != nil {
			return err
		}
		return a.store.SetValue(scope, args[2], args[3])

	case "unset":
		if len(args) != 3 {
			return fmt.Errorf("usage: quill settings unset <scope> <key>")
		}
		scope, err := storage.ParseScope(args[1])
		if err != nil {
			return err
		}
		return a.store.SetValue(scope, args[2], "")

	default:
		return fmt.Errorf("unknown settings subcommand %q", args[0])
	}
}
