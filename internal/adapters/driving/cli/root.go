// Package cli implements the command-line interface. Commands are
// wired to core services through package-level variables set once at
// startup via SetServices.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/factsync-cli/internal/core/domain"
	"github.com/custodia-labs/factsync-cli/internal/core/ports/driven"
	"github.com/custodia-labs/factsync-cli/internal/core/ports/driving"
	"github.com/custodia-labs/factsync-cli/internal/logger"
)

// PlatformCatalogue is the narrow registry view the CLI needs.
type PlatformCatalogue interface {
	Config(platform domain.Platform) (*domain.PlatformConfig, error)
	Platforms() []domain.Platform
}

// Injected services.
var (
	engine      driving.Engine
	catalogue   PlatformCatalogue
	configStore driven.ConfigStore
)

var version = "dev"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "factsync",
	Short: "Connect platforms and sync your activity into facts",
	Long: `Factsync connects to third-party platforms via OAuth, pulls your
recent activity, and converts it into subject-predicate-object facts
stored locally. Repeated syncs are incremental: only activity that is
new since the last sync produces facts.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "Enable verbose debug output")
}

// SetServices injects the services the commands depend on. Must be
// called before Execute.
func SetServices(e driving.Engine, c PlatformCatalogue, cfg driven.ConfigStore) {
	engine = e
	catalogue = c
	configStore = cfg
}

// SetVersion overrides the version string printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
