package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/factsync-cli/internal/core/domain"
)

var disconnectCmd = &cobra.Command{
	Use:   "disconnect <platform>",
	Short: "Remove the stored credential for a platform",
	Args:  cobra.ExactArgs(1),
	RunE:  runDisconnect,
}

func init() {
	rootCmd.AddCommand(disconnectCmd)
}

func runDisconnect(cmd *cobra.Command, args []string) error {
	if engine == nil {
		return errors.New("engine not configured")
	}

	platform := domain.Platform(args[0])
	if err := engine.Disconnect(context.Background(), platform); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			cmd.Printf("%s was not connected.\n", platform)
			return nil
		}
		return fmt.Errorf("failed to disconnect %s: %w", platform, err)
	}

	cmd.Printf("Disconnected %s.\n", platform)
	return nil
}
