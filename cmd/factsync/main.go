// Command factsync connects third-party platforms over OAuth and syncs
// activity into locally stored facts.
package main

import (
	"fmt"
	"os"

	"github.com/custodia-labs/factsync-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/factsync-cli/internal/adapters/driven/notify"
	drivenoauth "github.com/custodia-labs/factsync-cli/internal/adapters/driven/oauth"
	"github.com/custodia-labs/factsync-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/factsync-cli/internal/adapters/driving/cli"
	drivingoauth "github.com/custodia-labs/factsync-cli/internal/adapters/driving/oauth"
	"github.com/custodia-labs/factsync-cli/internal/core/services"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}
	defer configStore.Close()

	if err := configStore.Watch(); err != nil {
		// Live reload is a convenience; a missing watcher is not fatal.
		fmt.Fprintf(os.Stderr, "Warning: config watch unavailable: %v\n", err)
	}

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	registry := services.NewRegistry(configStore)
	exchanger := drivenoauth.NewExchanger(nil)
	authorizer := drivingoauth.NewBrowserAuthorizer(0)
	notifier := notify.NewLogNotifier()

	tokens := services.NewTokenManager(store.TokenStore(), registry, exchanger)
	syncs := services.NewSyncManager(store.SyncStateStore(), registry, tokens)
	extractor := services.NewExtractor(registry, store.FactStore(), notifier)
	fetcher := services.NewFetcher(registry, tokens, syncs, extractor, nil)
	flow := services.NewFlowManager(
		registry, tokens, store.PendingAuthStore(), authorizer, exchanger,
		authorizer.RedirectURI(),
	)
	engine := services.NewEngine(registry, flow, fetcher, extractor, tokens, syncs)

	cli.SetVersion(version)
	cli.SetServices(engine, registry, configStore)
	return cli.Execute()
}
