package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/lexcodex/djangoagent/agents"
)

func newAskCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "ask [question...]",
		Short: "Run a single request and print the response",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()
			rt, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			res := rt.Core.Execute(ctx, strings.Join(args, " "))
			out := cmd.OutOrStdout()
			if raw || res.Mode != agents.ModeAnswer || !isTerminal(out) {
				fmt.Fprintln(out, res.Render())
				return nil
			}
			return renderMarkdown(out, res.Render())
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the response without markdown rendering")
	return cmd
}

// renderMarkdown pretty-prints answer text, falling back to plain output
// when the renderer cannot be built.
func renderMarkdown(out io.Writer, text string) error {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		_, err = fmt.Fprintln(out, text)
		return err
	}
	rendered, err := renderer.Render(text)
	if err != nil {
		_, err = fmt.Fprintln(out, text)
		return err
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}
