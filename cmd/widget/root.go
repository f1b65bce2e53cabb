package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/docchat/internal/client"
	"github.com/zhouzirui/docchat/internal/config"
	"github.com/zhouzirui/docchat/internal/service/widget"
)

type rootOptions struct {
	workspace string
	apiURL    string
	timeout   time.Duration
	logFile   string

	cfg     config.WidgetConfig
	logger  zerolog.Logger
	logSink *os.File
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "widget",
		Short:         "Workspace document assistant in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logSink != nil {
				opts.logSink.Close()
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.workspace, "workspace", "w", "", "workspace id (env WIDGET_WORKSPACE_ID)")
	flags.StringVar(&opts.apiURL, "api-url", "", "backend base URL (env WIDGET_API_URL)")
	flags.DurationVar(&opts.timeout, "timeout", 0, "per-request timeout (env WIDGET_TIMEOUT_SECONDS)")
	flags.StringVar(&opts.logFile, "log-file", "", "write diagnostics to this file")

	cmd.AddCommand(newChatCmd(opts), newAskCmd(opts), newProfileCmd(opts))
	return cmd
}

// load resolves the environment, then lets explicit flags win.
func (o *rootOptions) load(cmd *cobra.Command) error {
	_ = godotenv.Load()

	cfg, err := config.LoadWidget()
	if err != nil {
		return err
	}
	if o.workspace != "" {
		cfg.WorkspaceID = o.workspace
	}
	if o.apiURL != "" {
		cfg.APIURL = o.apiURL
	}
	if o.timeout > 0 {
		cfg.RequestTimeout = o.timeout
	}
	o.cfg = cfg

	switch {
	case o.logFile != "":
		f, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		o.logSink = f
		o.logger = zerolog.New(f).With().Timestamp().Logger()
	case cmd.Name() == "chat":
		// The terminal belongs to the UI.
		o.logger = zerolog.Nop()
	default:
		o.logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), NoColor: true}).
			Level(zerolog.WarnLevel).With().Timestamp().Logger()
	}
	return nil
}

func (o *rootOptions) mountConfig() widget.MountConfig {
	return widget.MountConfig{WorkspaceID: o.cfg.WorkspaceID, BackendBase: o.cfg.APIURL}
}

func (o *rootOptions) mountOptions() []widget.Option {
	return []widget.Option{
		widget.WithLogger(o.logger),
		widget.WithClientOptions(client.WithTimeout(o.cfg.RequestTimeout)),
	}
}

func (o *rootOptions) mount(ctx context.Context, surface widget.Surface) (*widget.Controller, error) {
	return widget.Mount(ctx, o.mountConfig(), surface, o.mountOptions()...)
}

// waitResolved blocks until the profile is final or ctx ends.
func waitResolved(ctx context.Context, c *widget.Controller) error {
	select {
	case <-c.Resolved():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
