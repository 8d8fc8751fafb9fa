// Streamline is the command-line interface for the project/task data layer.
//
// It runs the entity API server and talks to a running one through the
// caching Manager.
//
// Usage:
//
//	# Start the entity server with a seed file
//	streamline serve --seed ./seed.yaml
//
//	# Fetch a project through the cache
//	streamline project get 1
//
//	# Move a task forward
//	streamline task status 7 completed
//
// Configuration is loaded from ~/.config/streamline/config.yaml and
// environment variables. See internal/config for details.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/streamline/internal/config"
	"github.com/fyrsmithlabs/streamline/internal/logging"
	"github.com/fyrsmithlabs/streamline/internal/project"
	"github.com/fyrsmithlabs/streamline/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		if project.Retryable(err) {
			fmt.Fprintln(os.Stderr, "The remote service may be temporarily unavailable; retrying may succeed.")
		}
		os.Exit(1)
	}
}

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configPath string
	server     string
	noCache    bool

	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	o := &rootOptions{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "streamline",
		Short: "Project and task data layer",
		Long: `streamline fetches and updates projects and tasks on a remote entity
service, caching reads and reconciling writes in memory. It can also run a
local entity server for development.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&o.configPath, "config", "", "config file (default ~/.config/streamline/config.yaml)")
	root.PersistentFlags().StringVar(&o.server, "server", "", "remote entity service base address (overrides remote.base_address)")
	root.PersistentFlags().BoolVar(&o.noCache, "no-cache", false, "bypass the entity cache")

	root.AddCommand(
		newServeCmd(o),
		newProjectCmd(o),
		newTaskCmd(o),
		newTokenCmd(o),
		newVersionCmd(o),
	)
	return root
}

// loadConfig loads configuration and applies flag overrides.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithFile(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.server != "" {
		cfg.Remote.BaseAddress = o.server
	}
	if o.noCache {
		cfg.Cache.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger. Client commands log to stderr so
// their stdout stays machine readable.
func newLogger(obs config.ObservabilityConfig, tel *telemetry.Telemetry, toStderr bool) (*logging.Logger, error) {
	cfg, err := logging.FromObservability(obs)
	if err != nil {
		return nil, err
	}
	if toStderr {
		cfg.Output.Stdout = false
		cfg.Output.Stderr = true
	}
	return logging.NewLogger(cfg, tel.LoggerProvider())
}

// writeJSON prints v as indented JSON.
func (o *rootOptions) writeJSON(v interface{}) error {
	enc := json.NewEncoder(o.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newVersionCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(o.stdout, "streamline by Fyrsmith Labs\n")
			fmt.Fprintf(o.stdout, "Version:    %s\n", version)
			fmt.Fprintf(o.stdout, "Commit:     %s\n", gitCommit)
			fmt.Fprintf(o.stdout, "Build Date: %s\n", buildDate)
		},
	}
}
