package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/goran-ethernal/SubgraphWatcher/internal/logger"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

var configPath string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log := logger.GetDefaultLogger()
		log.Errorw("command failed", "command", commandName(os.Args), "error", err)
		_ = log.Close()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "watcher",
	Short: "SubgraphWatcher - reorg-aware subgraph indexer for EVM chains",
	Long: `SubgraphWatcher follows an EVM chain, decodes the events of watched contracts
and maintains versioned subgraph entities per block. Blocks above the finality
depth are kept per branch so reorgs resolve without reindexing, canonical blocks
are pruned into state diffs and checkpoints.`,
	Version:       version,
	RunE:          runStart,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// commandName is the subcommand path of args without flags.
func commandName(args []string) string {
	name := "watcher"
	for _, a := range args[1:] {
		if strings.HasPrefix(a, "-") {
			break
		}
		name += " " + a
	}
	return name
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start indexing and serve the query API",
	RunE:  runStart,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List supported contract kinds and watched contracts",
	RunE:  runList,
}

var watchContractCmd = &cobra.Command{
	Use:   "watch-contract",
	Short: "Add a contract to the watched set",
	RunE:  runWatchContract,
}

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Manage state checkpoints",
}

var checkpointCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a checkpoint of a watched contract",
	RunE:  runCheckpointCreate,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Roll the watcher back to a processed canonical block",
	RunE:  runReset,
}

var backfillCmd = &cobra.Command{
	Use:   "backfill-events-data",
	Short: "Move legacy event topics and data into their columns",
	RunE:  runBackfillEventsData,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the configuration file",
	RunE:  runConfigSchema,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")

	watchContractCmd.Flags().String("address", "", "contract address")
	watchContractCmd.Flags().String("kind", "", "contract kind")
	watchContractCmd.Flags().Bool("checkpoint", false, "create state diffs and checkpoints for the contract")
	watchContractCmd.Flags().Uint64("starting-block", 0, "block at which the initial state is created")
	watchContractCmd.Flags().StringToString("context", nil, "per-kind context values, e.g. factory=0x1f98...")
	_ = watchContractCmd.MarkFlagRequired("address")
	_ = watchContractCmd.MarkFlagRequired("kind")

	checkpointCreateCmd.Flags().String("address", "", "checkpoint contract address")
	checkpointCreateCmd.Flags().String("block-hash", "", "block hash, defaults to the latest canonical block")
	_ = checkpointCreateCmd.MarkFlagRequired("address")

	resetCmd.Flags().Uint64("block-number", 0, "canonical block to reset to")
	_ = resetCmd.MarkFlagRequired("block-number")

	backfillCmd.Flags().Int("batch-size", defaultBackfillBatchSize, "rows updated per batch")

	checkpointCmd.AddCommand(checkpointCreateCmd)
	configCmd.AddCommand(configSchemaCmd)
	rootCmd.AddCommand(startCmd, listCmd, watchContractCmd, checkpointCmd, resetCmd, backfillCmd, configCmd)
}
