// Package history keeps a SQLite ledger of published posts. The ledger is
// observational: the per-month marker file remains the source of truth for
// idempotency, while the ledger feeds the dashboard and status views.
package history
