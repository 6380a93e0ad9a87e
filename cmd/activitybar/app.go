package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"

	"github.com/Veraticus/activitybar/pkg/activity"
	"github.com/Veraticus/activitybar/pkg/config"
	"github.com/Veraticus/activitybar/pkg/idle"
	"github.com/Veraticus/activitybar/pkg/interfaces"
	"github.com/Veraticus/activitybar/pkg/status"
)

// Dependencies holds all the dependencies for the application
type Dependencies struct {
	Config   *config.Config
	Logger   *log.Logger
	Renderer interfaces.Renderer
	Block    *activity.Block
	// BlockErr is set when the block could not be built. The run loop
	// shows it in the bar instead of exiting.
	BlockErr error

	indicator *status.Indicator
}

// NewDependencies creates all dependencies with the given configuration.
// Rendering goes to stdout and logs to stderr.
func NewDependencies(cfg *config.Config, open activity.OpenFunc, stdout, stderr io.Writer) (*Dependencies, error) {
	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	switch cfg.Output {
	case config.OutputTerm:
		deps.indicator = status.NewIndicator(stdout, isTerminal(stdout))
		deps.Renderer = deps.indicator
	default:
		deps.Renderer = status.NewI3Bar(stdout)
	}

	deps.Block, deps.BlockErr = activity.New(activity.Config{
		Interval:      cfg.Interval,
		ResetTime:     cfg.ResetTime,
		IdleThreshold: cfg.IdleThreshold,
	}, open, activity.WithLogger(logger.WithPrefix("activitybar/"+activity.Name)))

	return deps, nil
}

// Close cleans up all dependencies
func (d *Dependencies) Close() {
	if d.Block != nil {
		if err := d.Block.Close(); err != nil {
			d.Logger.Warn("failed to close block", "err", err)
		}
	}

	if d.indicator != nil {
		_ = d.indicator.Clear() // Best effort
	}
}

// Application represents the main application
type Application struct {
	deps *Dependencies
}

// NewApplication creates a new application with the given dependencies
func NewApplication(deps *Dependencies) *Application {
	return &Application{
		deps: deps,
	}
}

// Run drives the block until ctx is done. Click events are read from
// stdin in i3bar mode only.
func (a *Application) Run(ctx context.Context, stdin io.Reader) error {
	d := a.deps
	if d.BlockErr != nil {
		return status.RunFailed(ctx, d.Renderer, activity.Name, d.BlockErr, d.Logger)
	}

	var clicks <-chan status.ClickEvent
	if d.Config.Output == config.OutputI3Bar && stdin != nil {
		clicks = status.ReadClicks(ctx, stdin, d.Logger)
	}

	d.Logger.Info("starting",
		"provider", d.Config.Provider,
		"output", d.Config.Output,
		"interval", d.Config.Interval,
		"reset_time", d.Config.ResetTime,
		"idle_threshold", d.Config.IdleThreshold,
	)

	return status.NewRunner(d.Block, d.Renderer, d.Logger).Run(ctx, clicks)
}

// Once prints the text of a single update to w
func (a *Application) Once(w io.Writer) error {
	if a.deps.BlockErr != nil {
		return a.deps.BlockErr
	}
	update := a.deps.Block.Update()
	_, err := fmt.Fprintln(w, update.Text)
	return err
}

func newLogger(cfg *config.Config, w io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	return log.NewWithOptions(w, log.Options{
		Prefix:          "activitybar",
		Level:           level,
		ReportTimestamp: true,
	}), nil
}

// idleOpener returns the reader factory for the configured provider
func idleOpener(cfg *config.Config) activity.OpenFunc {
	return func() (interfaces.IdleReader, error) {
		provider, err := idle.ParseProvider(cfg.Provider)
		if err != nil {
			return nil, err
		}
		return idle.Open(idle.Options{
			Provider:    provider,
			Display:     cfg.Display,
			TmuxSession: cfg.TmuxSession,
		})
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
