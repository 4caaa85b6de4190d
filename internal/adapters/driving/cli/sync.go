package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/factsync-cli/internal/core/domain"
)

var syncCmd = &cobra.Command{
	Use:   "sync [platform]",
	Short: "Fetch new activity and extract facts",
	Long: `Triggers an incremental sync. If a platform is given, only that
platform is synced. Otherwise every connected platform is synced in
turn; platforms without a stored credential are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if engine == nil || catalogue == nil {
		return errors.New("engine not configured")
	}

	ctx := context.Background()

	if len(args) > 0 {
		platform := domain.Platform(args[0])
		cmd.Printf("Syncing %s...\n", platform)

		count, err := engine.Sync(ctx, platform)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		cmd.Printf("%s: %d new facts.\n", platform, count)
		return nil
	}

	var total, synced int
	for _, platform := range catalogue.Platforms() {
		count, err := engine.Sync(ctx, platform)
		if err != nil {
			if errors.Is(err, domain.ErrNoCredential) {
				continue
			}
			cmd.Printf("%s: sync failed: %v\n", platform, err)
			continue
		}
		cmd.Printf("%s: %d new facts.\n", platform, count)
		total += count
		synced++
	}

	if synced == 0 {
		cmd.Println("No connected platforms. Connect one with: factsync connect <platform>")
		return nil
	}
	cmd.Printf("Done. %d new facts across %d platforms.\n", total, synced)
	return nil
}
