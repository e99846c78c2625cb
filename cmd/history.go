package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tiksnap/internal/ui"
)

var (
	flagLimit int
	flagPick  bool
	flagYes   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent resolutions",
	Args:  cobra.NoArgs,
	RunE:  historyRun,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all recorded resolutions",
	Args:  cobra.NoArgs,
	RunE:  historyClearRun,
}

func init() {
	historyCmd.Flags().IntVarP(&flagLimit, "limit", "n", 20, "Number of entries to show (0 for all)")
	historyCmd.Flags().BoolVarP(&flagPick, "pick", "p", false, "Pick an entry with fzf and resolve it again")
	historyClearCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Skip the confirmation prompt")
	historyCmd.AddCommand(historyClearCmd)
}

func historyRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openHistory(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	if store == nil {
		return errors.New("history is disabled")
	}

	entries, err := store.List(ctx, flagLimit)
	store.Close()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No history entries found.")
		return nil
	}

	if !flagPick {
		fmt.Fprintln(cmd.OutOrStdout(), ui.HistoryTable(entries))
		return nil
	}

	idx, err := ui.Select("History", ui.HistoryItems(entries))
	if err != nil {
		return err
	}
	selected := entries[idx]
	logger.Debug("re-resolving", "id", selected.ID, "source", selected.Source)
	return resolveRun(cmd, []string{selected.Source})
}

func historyClearRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openHistory(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	if store == nil {
		return errors.New("history is disabled")
	}
	defer store.Close()

	if !flagYes {
		ok, err := ui.Confirm("Delete all history?")
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	n, err := store.Clear(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d entries.\n", n)
	return nil
}
