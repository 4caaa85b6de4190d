package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/factsync-cli/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status [platform]",
	Short: "Show connection and sync state",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if engine == nil {
		return errors.New("engine not configured")
	}

	var platform domain.Platform
	if len(args) > 0 {
		platform = domain.Platform(args[0])
	}

	statuses, err := engine.Status(context.Background(), platform)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	cmd.Printf("%-12s %-12s %-20s %8s %8s\n", "PLATFORM", "CONNECTED", "LAST SYNC", "FACTS", "ITEMS")
	for _, s := range statuses {
		connected := "no"
		if s.Connected {
			connected = "yes"
		}
		lastSync := "never"
		if !s.LastSyncAt.IsZero() {
			lastSync = s.LastSyncAt.Format("2006-01-02 15:04:05")
		}
		cmd.Printf("%-12s %-12s %-20s %8d %8d\n",
			s.Platform, connected, lastSync, s.FactCount, s.ItemsTracked)
	}

	return nil
}
