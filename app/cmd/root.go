package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lexcodex/djangoagent/agents"
	"github.com/lexcodex/djangoagent/internal/logging"
)

var (
	cfgFile   string
	workspace string
	verbose   bool

	globalCfg *agents.Config
	logger    *zap.Logger
)

// Execute is the entry point for the CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd wires the cobra tree. Running it without a subcommand starts chat.
func NewRootCmd() *cobra.Command {
	chat := newChatCmd()
	root := &cobra.Command{
		Use:   "djangoagent",
		Short: "Django assistant that answers questions and writes code",
		Long: `djangoagent answers Django questions from a local documentation index and,
when asked to act, writes generated code into files of the current workspace.

Run without arguments to start the interactive chat.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ws, err := ensureWorkspace()
			if err != nil {
				return err
			}
			if cfgFile == "" {
				cfgFile = agents.DefaultConfigPath(ws)
			}
			cfg, err := agents.Load(cfgFile, ws)
			if err != nil {
				return err
			}
			globalCfg = cfg
			logger, err = logging.New(cfg.Logging, verbose)
			if err != nil {
				return err
			}
			if verbose {
				cfg.LLM.Debug = true
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		RunE: chat.RunE,
		Args: cobra.NoArgs,
	}
	root.PersistentFlags().StringVar(&workspace, "workspace", "", "Workspace directory (default: current directory)")
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file (default: <workspace>/.djangoagent/config.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	root.Flags().AddFlagSet(chat.Flags())

	root.AddCommand(
		chat,
		newAskCmd(),
		newIndexCmd(),
		newVerifyCmd(),
		newDoctorCmd(),
		newConfigCmd(),
	)
	return root
}
