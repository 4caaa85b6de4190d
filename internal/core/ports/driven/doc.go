// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - TokenStore: per-platform OAuth token persistence
//   - SyncStateStore: per-platform sync cursor persistence
//   - PendingAuthStore: one-shot pending authorization persistence
//   - FactStore: fact batch and dedup-key persistence
//   - TokenExchanger: code exchange and refresh against token endpoints
//   - Authorizer: the interactive authorization collaborator
//   - ConfigStore: application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Notifier: fire-and-forget UI notification after fact persistence.
//     Notification failure never rolls back persisted facts.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
