// Package services implements the core business logic for Factsync.
//
// Services orchestrate domain entities and driven ports to implement
// the engine's operations:
//
//   - Registry: static per-platform configuration and extraction rules
//   - TokenManager: credential lifecycle with silent refresh
//   - SyncManager: per-platform incremental-sync cursors
//   - Fetcher: authenticated retrieval with incremental filtering
//   - Extractor: declarative rule application producing deduplicated facts
//   - FlowManager: the three OAuth variants behind one interface
//   - Engine: the façade exposed to the UI boundary
//
// # Import Rules
//
//   - Can Import: domain, ports, logger
//   - Cannot Import: Any adapter package
package services
