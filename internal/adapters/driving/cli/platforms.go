package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List supported platforms",
	RunE:  runPlatforms,
}

func init() {
	rootCmd.AddCommand(platformsCmd)
}

func runPlatforms(cmd *cobra.Command, _ []string) error {
	if catalogue == nil {
		return errors.New("catalogue not configured")
	}

	cmd.Printf("%-12s %-20s %-20s %s\n", "PLATFORM", "NAME", "FLOW", "CONFIGURED")
	for _, p := range catalogue.Platforms() {
		cfg, err := catalogue.Config(p)
		if err != nil {
			continue
		}
		configured := "no"
		if cfg.ClientID != "" || cfg.IsExternal() {
			configured = "yes"
		}
		cmd.Printf("%-12s %-20s %-20s %s\n",
			cfg.ID, cfg.DisplayName, strings.ReplaceAll(string(cfg.Flow), "_", "-"), configured)
	}

	return nil
}
