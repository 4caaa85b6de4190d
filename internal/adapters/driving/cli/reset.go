package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/factsync-cli/internal/core/domain"
)

var resetCmd = &cobra.Command{
	Use:   "reset [platform]",
	Short: "Clear sync cursors so the next sync starts from scratch",
	Long: `Deletes the incremental-sync cursor for a platform, or for all
platforms when none is given. Stored facts are kept; already-extracted
facts are not re-created because extraction deduplicates them.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	if engine == nil {
		return errors.New("engine not configured")
	}

	var platform domain.Platform
	if len(args) > 0 {
		platform = domain.Platform(args[0])
	}

	if err := engine.Reset(context.Background(), platform); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}

	if platform == "" {
		cmd.Println("Reset sync state for all platforms.")
	} else {
		cmd.Printf("Reset sync state for %s.\n", platform)
	}
	return nil
}
