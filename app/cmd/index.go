package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexcodex/djangoagent/app/runtime"
	"github.com/lexcodex/djangoagent/embedding"
	"github.com/lexcodex/djangoagent/rag"
)

func newIndexCmd() *cobra.Command {
	var rebuild bool
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the documentation vector index",
		Long: `Loads every .txt file in rag.docs_dir, splits it into overlapping chunks,
embeds each chunk and stores it in the SQLite index at rag.index_path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()
			cfg := globalCfg
			if err := cfg.Validate(); err != nil {
				return err
			}
			engine, err := embedding.Shared(ctx, cfg.Embedding)
			if err != nil {
				return fmt.Errorf("embedding engine: %w", err)
			}
			store, err := runtime.OpenStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			report, err := rag.Setup(ctx, rag.SetupOptions{
				DocsDir:      cfg.Resolve(cfg.RAG.DocsDir),
				Collection:   cfg.RAG.Collection,
				ChunkSize:    cfg.RAG.ChunkSize,
				ChunkOverlap: cfg.RAG.ChunkOverlap,
				Rebuild:      rebuild,
			}, engine, store, logger.Named("rag"))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Indexed %d documents into %d chunks (%d records) in collection %s\n",
				report.Documents, report.Chunks, report.Records, report.Collection)
			fmt.Fprintf(out, "Build %s written to %s\n", report.BuildID, store.Path())
			return nil
		},
	}
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Drop the collection before indexing")
	return cmd
}
