// Package domain defines the core business entities for Factsync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - PlatformConfig: Declarative per-platform OAuth and API configuration
//   - TripletRule: Declarative extraction rule mapping raw items to facts
//   - UserToken: Stored OAuth credentials for one platform
//   - SyncInfo: Incremental-sync cursor for one platform
//   - Triplet: A subject-predicate-object fact with provenance
//   - PendingAuth: One-shot state record for an in-flight authorization
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
