package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexcodex/djangoagent/app/runtime"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the model server, docs directory and index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()
			report := runtime.ProbeEnvironment(ctx, globalCfg)
			printDoctor(cmd.OutOrStdout(), report)
			if !report.LLM.Healthy {
				return fmt.Errorf("language model backend unreachable")
			}
			return nil
		},
	}
}

func printDoctor(out io.Writer, report runtime.EnvironmentReport) {
	fmt.Fprintf(out, "Workspace: %s\n", report.Workspace)
	printBackend(out, "LLM", report.LLM)
	printBackend(out, "Embedding", report.Embedding)
	fmt.Fprintf(out, "Docs:  %s (%s)\n", report.Docs.Path, status(report.Docs.Exists, report.Docs.Detail))
	fmt.Fprintf(out, "Index: %s (%s)\n", report.Index.Path, status(report.Index.Exists, report.Index.Detail))
}

func printBackend(out io.Writer, label string, r runtime.OllamaReport) {
	if r.Error != "" {
		fmt.Fprintf(out, "%s: %s unreachable: %s\n", label, r.Endpoint, r.Error)
		return
	}
	installed := "installed"
	if !r.ModelInstalled {
		installed = "NOT installed; run: ollama pull " + r.SelectedModel
	}
	fmt.Fprintf(out, "%s: %s ok, model %s %s\n", label, r.Endpoint, r.SelectedModel, installed)
	if len(r.Models) > 0 {
		fmt.Fprintf(out, "  available: %s\n", strings.Join(r.Models, ", "))
	}
}

func status(ok bool, detail string) string {
	if ok {
		return "ok, " + detail
	}
	return "missing, " + detail
}
