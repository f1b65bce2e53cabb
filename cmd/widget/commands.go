package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/docchat/internal/service/widget"
	"github.com/zhouzirui/docchat/internal/tui"
)

var errQueryFailed = errors.New("query failed")

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open the interactive chat widget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := tui.NewModel(cmd.Context(), opts.mountConfig(), opts.mountOptions()...)
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			m.Surface().Attach(p)

			final, err := p.Run()
			if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return err
			}
			if fm, ok := final.(tui.Model); ok && fm.Err() != nil {
				return fm.Err()
			}
			return nil
		},
	}
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Send one question and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			surface := newLineSurface(cmd.OutOrStdout(), cmd.ErrOrStderr())

			c, err := opts.mount(ctx, surface)
			if err != nil {
				return err
			}
			if err := waitResolved(ctx, c); err != nil {
				return err
			}

			outcome, err := c.Send(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if outcome.Kind == widget.OutcomeError {
				return errQueryFailed
			}
			return nil
		},
	}
}

func newProfileCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Print the workspace's resolved presentation profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := opts.mount(ctx, nil)
			if err != nil {
				return err
			}
			if err := waitResolved(ctx, c); err != nil {
				return err
			}

			profile := c.Profile()
			out := cmd.OutOrStdout()
			if asJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(profile.Settings())
			}

			fmt.Fprintf(out, "workspace: %s\n", c.WorkspaceID())
			fmt.Fprintf(out, "name:      %s\n", profile.DisplayName)
			fmt.Fprintf(out, "color:     %s\n", profile.AccentColor)
			fmt.Fprintf(out, "position:  %s\n", profile.AnchorSide)
			fmt.Fprintf(out, "greeting:  %s\n", profile.Greeting)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON settings")
	return cmd
}
