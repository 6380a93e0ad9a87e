package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/activitybar/pkg/config"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// options are the command line overrides shared by every subcommand
type options struct {
	configPath string
	provider   string
	output     string
	debug      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// bindFlags registers the persistent flags on fs
func bindFlags(fs *flag.FlagSet, opts *options) {
	fs.StringVar(&opts.configPath, "config", "", "Path to config file (default: ~/.config/activitybar/config.yaml)")
	fs.StringVar(&opts.provider, "provider", "", "Idle provider: auto, x11, tmux or ioreg")
	fs.StringVar(&opts.output, "output", "", "Output format: i3bar or term")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the activity block until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBlock(cmd.Context(), opts, stdin, stdout, stderr)
		},
	}

	root := &cobra.Command{
		Use:   "activitybar",
		Short: "Status bar block tracking active and idle time",
		Long: `activitybar counts up how long you have been active at the keyboard and,
once you go idle, counts down until the away period is complete.

It speaks the i3bar protocol on stdout and reads click events on stdin.
Clicking the block restarts the active countup.

Environment Variables:
  ACTIVITYBAR_CONFIG          Path to config file
  ACTIVITYBAR_INTERVAL        Update interval (seconds or duration, default: 1)
  ACTIVITYBAR_RESET_TIME      Idle time that completes the away period (default: 300)
  ACTIVITYBAR_IDLE_THRESHOLD  Idle time before counting as idle (default: 10)
  ACTIVITYBAR_PROVIDER        Idle provider (default: auto)
  ACTIVITYBAR_TMUX_SESSION    tmux session to watch
  ACTIVITYBAR_OUTPUT          Output format (default: i3bar)
  ACTIVITYBAR_LOG_LEVEL       Log level (default: info)
  DISPLAY                     X display for the x11 provider`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCmd.RunE,
	}
	bindFlags(root.PersistentFlags(), opts)

	root.AddCommand(
		runCmd,
		&cobra.Command{
			Use:   "once",
			Short: "Print the block text once and exit",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				return runOnce(opts, stdout, stderr)
			},
		},
		&cobra.Command{
			Use:   "config",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				cfg, err := loadConfig(opts)
				if err != nil {
					return err
				}
				enc := yaml.NewEncoder(stdout)
				defer enc.Close()
				return enc.Encode(cfg)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Args:  cobra.NoArgs,
			Run: func(_ *cobra.Command, _ []string) {
				fmt.Fprintf(stdout, "activitybar %s\n", version)
			},
		},
	)

	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root
}

// loadConfig loads the config file and environment, then applies flags
func loadConfig(opts *options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFrom(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if opts.provider != "" {
		cfg.Provider = opts.provider
	}
	if opts.output != "" {
		cfg.Output = opts.output
	}
	if opts.debug {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runBlock(ctx context.Context, opts *options, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	deps, err := NewDependencies(cfg, idleOpener(cfg), stdout, stderr)
	if err != nil {
		return err
	}
	defer deps.Close()

	return NewApplication(deps).Run(ctx, stdin)
}

func runOnce(opts *options, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	deps, err := NewDependencies(cfg, idleOpener(cfg), stdout, stderr)
	if err != nil {
		return err
	}
	defer deps.Close()

	return NewApplication(deps).Once(stdout)
}
