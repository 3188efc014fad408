package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexcodex/djangoagent/embedding"
	"github.com/lexcodex/djangoagent/rag"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that the vector index exists and answers a probe query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()
			cfg := globalCfg
			engine, err := embedding.Shared(ctx, cfg.Embedding)
			if err != nil {
				return fmt.Errorf("embedding engine: %w", err)
			}
			report, err := rag.Verify(ctx, cfg.Resolve(cfg.RAG.IndexPath), cfg.RAG.Collection, engine)
			if err != nil {
				return err
			}
			report.Print(cmd.OutOrStdout())
			if !report.Healthy() {
				return fmt.Errorf("vector index is not healthy")
			}
			return nil
		},
	}
}
