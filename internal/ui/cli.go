package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/javiermolinar/pupitre/internal/config"
	"github.com/javiermolinar/pupitre/internal/db"
	"github.com/javiermolinar/pupitre/internal/httpapi"
	"github.com/javiermolinar/pupitre/internal/logger"
	"github.com/javiermolinar/pupitre/internal/session"
	"github.com/javiermolinar/pupitre/internal/timetable"
	"github.com/javiermolinar/pupitre/internal/tui"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// App holds the CLI application state.
type App struct {
	backend timetable.Backend
	store   *db.SQLite // set when the backend is the local store
	closers []io.Closer
	config  *config.Config
	log     *zap.Logger
	root    *cobra.Command
	debug   bool // Enable debug logging
	classID int64
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger used by one-shot commands and the server.
func WithLogger(log *zap.Logger) Option {
	return func(a *App) {
		if log != nil {
			a.log = log
		}
	}
}

// NewApp creates a new CLI application. A nil backend is opened from the
// config on first use.
func NewApp(backend timetable.Backend, cfg *config.Config, opts ...Option) *App {
	if cfg == nil {
		cfg = config.Default()
	}
	a := &App{backend: backend, config: cfg, log: zap.NewNop()}
	if store, ok := backend.(*db.SQLite); ok {
		a.store = store
	}
	for _, opt := range opts {
		opt(a)
	}

	a.root = &cobra.Command{
		Use:   "pupitre",
		Short: "A timetable console for school classes",
		Long: `Pupitre edits the weekly timetable of a school class.

Lessons are placed on a grid of days and periods. Edits stay local until
they are saved to the backend, which checks teacher and room double
bookings across classes.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runTUI(cmd.Context())
		},
	}

	a.root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging (logs to temp file)")
	a.root.Flags().Int64Var(&a.classID, "class", 0, "Class to open (default: grid.default_class, then the first class)")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.showCmd())
	a.root.AddCommand(a.exportCmd())
	a.root.AddCommand(a.periodsCmd())
	a.root.AddCommand(a.assignCmd())
	a.root.AddCommand(a.moveCmd())
	a.root.AddCommand(a.clearCmd())
	a.root.AddCommand(a.regenerateCmd())
	a.root.AddCommand(a.serveCmd())
	a.root.AddCommand(a.seedCmd())
	a.root.AddCommand(a.importCmd())

	return a
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pupitre %s (commit: %s)\n", Version, Commit)
		},
	}
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.root.ExecuteContext(context.Background())
}

// Close releases whatever the app opened.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// openBackend returns the configured backend, opening it on first use.
func (a *App) openBackend() (timetable.Backend, error) {
	if a.backend != nil {
		return a.backend, nil
	}

	switch a.config.Backend.Kind {
	case config.BackendHTTP:
		timeout, err := a.config.Timeout()
		if err != nil {
			return nil, err
		}
		client, err := httpapi.New(a.config.Backend.BaseURL,
			httpapi.WithTimeout(timeout),
			httpapi.WithLogger(a.log.Named("http")),
		)
		if err != nil {
			return nil, fmt.Errorf("creating http backend: %w", err)
		}
		a.backend = client
	default:
		store, err := a.openStore()
		if err != nil {
			return nil, err
		}
		a.backend = store
	}
	return a.backend, nil
}

// openStore opens the local SQLite store, whatever the backend kind.
func (a *App) openStore() (*db.SQLite, error) {
	if a.store != nil {
		return a.store, nil
	}
	path := a.config.Storage.DBPath
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	store, err := db.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	a.store = store
	a.closers = append(a.closers, store)
	return store, nil
}

// saveMode returns the configured save mode.
func (a *App) saveMode() session.SaveMode {
	mode, err := a.config.SaveMode()
	if err != nil {
		return session.SaveModeBulk
	}
	return mode
}

// runTUI starts the interactive console.
func (a *App) runTUI(ctx context.Context) error {
	log, err := a.tuiLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	// The TUI owns the terminal, so the backend logs to the same sink.
	a.log = log
	backend, err := a.openBackend()
	if err != nil {
		return err
	}

	classID := a.classID
	if classID == 0 {
		classID = a.config.Grid.DefaultClass
	}
	if classID == 0 {
		classID = firstClass(ctx, backend)
	}

	return tui.Run(backend, a.config, tui.WithLogger(log.Named("tui")), tui.WithClass(classID))
}

// tuiLogger logs to the configured file, or to a temp file with --debug.
// Without either the TUI does not log.
func (a *App) tuiLogger() (*zap.Logger, error) {
	cfg := a.config.Log
	if a.debug {
		cfg.Level = "debug"
		if cfg.File == "" {
			cfg.File = filepath.Join(os.TempDir(), "pupitre-debug.log")
		}
	}
	if cfg.File == "" {
		return zap.NewNop(), nil
	}
	return logger.New(cfg)
}

// firstClass returns the first class the backend lists, or 0.
func firstClass(ctx context.Context, backend timetable.Backend) int64 {
	lister, ok := backend.(timetable.ResourceLister)
	if !ok {
		return 0
	}
	res, err := lister.ListResources(ctx)
	if err != nil || len(res.Classes) == 0 {
		return 0
	}
	return res.Classes[0].ID
}
