package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/lexcodex/djangoagent/app/tui"
)

func newChatCmd() *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()
			rt, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			if plain || !isTerminal(cmd.InOrStdin()) {
				return runPlainChat(ctx, rt.Core, cmd.InOrStdin(), out)
			}
			err = tui.Run(ctx, rt.Core, tui.Session{
				Workspace: rt.Workspace.Root,
				Model:     globalCfg.LLM.Model,
			}, cmd.InOrStdin(), out)
			fmt.Fprintln(out, tui.Goodbye())
			if err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "Use a plain line prompt instead of the terminal UI")
	return cmd
}

// isTerminal reports whether v is a file descriptor attached to a terminal.
func isTerminal(v interface{}) bool {
	f, ok := v.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// runPlainChat is the line-oriented loop used for pipes and --plain. EOF or
// cancellation end the session.
func runPlainChat(ctx context.Context, runner tui.Runner, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, tui.Banner())
	fmt.Fprintln(out)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, "Ask: ")
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			fmt.Fprintln(out, tui.Goodbye())
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				fmt.Fprintln(out, tui.Goodbye())
				return nil
			}
			line = l
		}
		request := strings.TrimSpace(line)
		if request == "" {
			continue
		}
		response := runner.Run(ctx, request)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Agent:")
		fmt.Fprintln(out, response)
		fmt.Fprintln(out, tui.Separator(60))
	}
}
