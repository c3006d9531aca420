package main

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	internalcommon "github.com/goran-ethernal/SubgraphWatcher/internal/common"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/config"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/uniswap"
	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"
)

const defaultBackfillBatchSize = 1000

func runList(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.close()

	out := cmd.OutOrStdout()

	kinds := make([]string, 0, len(uniswap.ABIs()))
	for kind := range uniswap.ABIs() {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)

	fmt.Fprintln(out, "Contract kinds:")
	for _, kind := range kinds {
		fmt.Fprintf(out, "  - %s\n", kind)
	}

	contracts := a.indexer.GetWatchedContracts()
	fmt.Fprintln(out, "Watched contracts:")
	if len(contracts) == 0 {
		fmt.Fprintln(out, "  (none)")
		return nil
	}
	slices.SortFunc(contracts, func(x, y *subgraph.Contract) int {
		return cmp.Or(cmp.Compare(x.StartingBlock, y.StartingBlock), x.Address.Cmp(y.Address))
	})
	for _, c := range contracts {
		fmt.Fprintf(out, "  - %s kind=%s checkpoint=%t starting_block=%d\n",
			c.Address.Hex(), c.Kind, c.Checkpoint, c.StartingBlock)
	}
	return nil
}

func runWatchContract(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	addressFlag, _ := flags.GetString("address")
	kind, _ := flags.GetString("kind")
	checkpoint, _ := flags.GetBool("checkpoint")
	startingBlock, _ := flags.GetUint64("starting-block")
	contextFlag, _ := flags.GetStringToString("context")

	address, err := internalcommon.ParseAddress(addressFlag)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.close()

	kind = internalcommon.ToLowerWithTrim(kind)
	if err := a.indexer.WatchContract(cmd.Context(), address, kind, checkpoint, startingBlock,
		contractContext(contextFlag)); err != nil {
		return fmt.Errorf("failed to watch contract: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (%s) from block %d\n", address.Hex(), kind, startingBlock)
	return nil
}

// contractContext converts --context key=value pairs into a contract context.
func contractContext(pairs map[string]string) map[string]any {
	if len(pairs) == 0 {
		return nil
	}
	out := make(map[string]any, len(pairs))
	for k, v := range pairs {
		if common.IsHexAddress(v) {
			v = strings.ToLower(common.HexToAddress(v).Hex())
		}
		out[k] = v
	}
	return out
}

func runCheckpointCreate(cmd *cobra.Command, _ []string) error {
	addressFlag, _ := cmd.Flags().GetString("address")
	hashFlag, _ := cmd.Flags().GetString("block-hash")

	address, err := internalcommon.ParseAddress(addressFlag)
	if err != nil {
		return err
	}
	var blockHash *common.Hash
	if hashFlag != "" {
		h, err := internalcommon.ParseHash(hashFlag)
		if err != nil {
			return err
		}
		blockHash = &h
	}

	a, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.close()

	cid, err := a.indexer.ProcessCLICheckpoint(cmd.Context(), address, blockHash)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created checkpoint for contract %s with CID %s\n", address.Hex(), cid)
	return nil
}

func runReset(cmd *cobra.Command, _ []string) error {
	blockNumber, _ := cmd.Flags().GetUint64("block-number")

	a, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.indexer.ResetWatcherToBlock(cmd.Context(), blockNumber); err != nil {
		return fmt.Errorf("failed to reset watcher: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Reset watcher to block %d\n", blockNumber)
	return nil
}

func runBackfillEventsData(cmd *cobra.Command, _ []string) error {
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	if batchSize < 1 {
		return fmt.Errorf("batch-size must be positive")
	}

	a, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.close()

	updated, err := a.indexer.BackfillEventsData(cmd.Context(), batchSize)
	if err != nil {
		return fmt.Errorf("failed to backfill events data: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Backfilled %d events\n", updated)
	return nil
}

func runConfigSchema(cmd *cobra.Command, _ []string) error {
	r := &jsonschema.Reflector{
		FieldNameTag:   "yaml",
		DoNotReference: true,
	}
	schema := r.Reflect(&config.Config{})
	schema.Title = "SubgraphWatcher configuration"

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(schema)
}
