package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dusk-indust/memogen/internal/config"
	"github.com/dusk-indust/memogen/internal/store"
)

// version is set by goreleaser at build time.
var version = "dev"

var (
	flagOutputDir string
	flagVerbose   bool

	cfg    *config.ProjectConfig
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "memogen",
	Short: "Generate, correct, and assemble investment memos",
	Long: `memogen runs a staged document pipeline that turns a pitch deck and web
research into a versioned investment memo: per-section drafts with local
citations, validation and bounded revision, and a final draft with one
globally numbered citation list.

Runs are stored under the output directory as memos/<company>/vX.Y.Z/ and
every stage checkpoint is resumable.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.Load(".")
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if flagOutputDir == "" {
			flagOutputDir = cfg.OutputDir
		}
		if flagOutputDir == "" {
			flagOutputDir = "memos"
		}

		zcfg := zap.NewProductionConfig()
		if flagVerbose || cfg.Verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if logger != nil {
			logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the memogen version",
	Run: func(*cobra.Command, []string) {
		fmt.Println(version)
	},
}

// memoStore opens the store rooted at the resolved output directory.
func memoStore() *store.Store {
	return store.New(flagOutputDir)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagOutputDir, "output-dir", "", "memo store root (default: memos)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(assembleCmd)
	rootCmd.AddCommand(correctCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveMCPCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
