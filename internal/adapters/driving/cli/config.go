package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/factsync-cli/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage platform OAuth credentials",
	Long: `View and set the OAuth client credentials used to authorize
platforms. Credentials are stored in the config file; secrets are read
without echo when entered interactively.

Examples:
  factsync config set spotify                 # Interactive prompt
  factsync config set github --client-id xxx --client-secret yyy
  factsync config get spotify
  factsync config path`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <platform>",
	Short: "Set client credentials for a platform",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigSet,
}

var configGetCmd = &cobra.Command{
	Use:   "get <platform>",
	Short: "Show the configured credentials for a platform",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE:  runConfigPath,
}

// Flags for config set.
var (
	configClientID     string
	configClientSecret string
)

func init() {
	configSetCmd.Flags().StringVar(
		&configClientID, "client-id", "", "OAuth client ID")
	configSetCmd.Flags().StringVar(
		&configClientSecret, "client-secret", "", "OAuth client secret")

	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}
	if catalogue == nil {
		return errors.New("catalogue not configured")
	}

	platform := domain.Platform(args[0])
	cfg, err := catalogue.Config(platform)
	if err != nil {
		return fmt.Errorf("unknown platform %q: %w", args[0], err)
	}
	if cfg.IsExternal() {
		return fmt.Errorf("%s delegates authorization externally and needs no client credentials", platform)
	}

	reader := bufio.NewReader(os.Stdin)

	clientID := configClientID
	if clientID == "" {
		cmd.Printf("Client ID for %s: ", cfg.DisplayName)
		clientID = readLine(reader)
	}
	if clientID == "" {
		return errors.New("client ID is required")
	}

	clientSecret := configClientSecret
	if clientSecret == "" && cfg.Flow == domain.FlowAuthorizationCode && !cfg.RequiresPKCE {
		cmd.Print("Client Secret (hidden): ")
		clientSecret = readPassword()
		cmd.Println()
	}

	prefix := "platforms." + string(platform) + "."
	if err := configStore.Set(prefix+"client_id", clientID); err != nil {
		return fmt.Errorf("failed to set client_id: %w", err)
	}
	if clientSecret != "" {
		if err := configStore.Set(prefix+"client_secret", clientSecret); err != nil {
			return fmt.Errorf("failed to set client_secret: %w", err)
		}
	}
	if err := configStore.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	cmd.Printf("Credentials saved for %s.\n", cfg.DisplayName)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	platform := domain.Platform(args[0])
	prefix := "platforms." + string(platform) + "."

	clientID := configStore.GetString(prefix + "client_id")
	if clientID == "" {
		cmd.Printf("No credentials configured for %s.\n", platform)
		return nil
	}

	cmd.Printf("Platform: %s\n", platform)
	cmd.Printf("Client ID: %s\n", clientID)
	if secret := configStore.GetString(prefix + "client_secret"); secret != "" {
		cmd.Printf("Client Secret: %s\n", maskSecret(secret))
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}
	cmd.Println(configStore.Path())
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
