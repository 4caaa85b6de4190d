package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/factsync-cli/internal/core/domain"
)

var connectCmd = &cobra.Command{
	Use:   "connect <platform>",
	Short: "Authorize a platform and run the first sync",
	Long: `Starts the OAuth flow for a platform. For browser-based flows this
opens the authorization page and waits for the redirect; on success the
first sync runs immediately.

Platforms using an external sign-in page (linkedin) open the page and
return. Once that page hands you a token, finish with:

  factsync connect linkedin --token <access-token> --expires-in 3600`,
	Args: cobra.ExactArgs(1),
	RunE: runConnect,
}

// Flags for the external-delegated completion path.
var (
	connectToken        string
	connectRefreshToken string
	connectExpiresIn    int
)

func init() {
	connectCmd.Flags().StringVar(
		&connectToken, "token", "", "Access token issued by an external sign-in page")
	connectCmd.Flags().StringVar(
		&connectRefreshToken, "refresh-token", "", "Refresh token, if the external page issued one")
	connectCmd.Flags().IntVar(
		&connectExpiresIn, "expires-in", 0, "Token lifetime in seconds (0 means unknown)")
	rootCmd.AddCommand(connectCmd)
}

func runConnect(cmd *cobra.Command, args []string) error {
	if engine == nil || catalogue == nil {
		return errors.New("engine not configured")
	}

	platform := domain.Platform(args[0])
	cfg, err := catalogue.Config(platform)
	if err != nil {
		return fmt.Errorf("unknown platform %q (run 'factsync platforms' to list them): %w", args[0], err)
	}

	ctx := context.Background()

	if connectToken != "" {
		if !cfg.IsExternal() {
			return fmt.Errorf("--token only applies to external-delegated platforms, not %s", platform)
		}
		if err := engine.HandleExternalToken(ctx, platform, connectToken, connectRefreshToken, connectExpiresIn); err != nil {
			return fmt.Errorf("failed to store token: %w", err)
		}
		cmd.Printf("Connected %s.\n", cfg.DisplayName)
		return nil
	}

	if cfg.ClientID == "" && !cfg.IsExternal() {
		return fmt.Errorf("no client_id configured for %s; run 'factsync config set %s' first", platform, platform)
	}

	cmd.Printf("Connecting %s...\n", cfg.DisplayName)

	if err := engine.InitiateOAuth(ctx, platform); err != nil {
		if errors.Is(err, domain.ErrUserCancelled) {
			cmd.Println("Authorization cancelled.")
			return nil
		}
		return fmt.Errorf("authorization failed: %w", err)
	}

	if cfg.IsExternal() {
		cmd.Println("Sign-in page opened. Complete authorization there, then run:")
		cmd.Printf("  factsync connect %s --token <access-token>\n", platform)
		return nil
	}

	cmd.Printf("Connected %s.\n", cfg.DisplayName)
	return nil
}
