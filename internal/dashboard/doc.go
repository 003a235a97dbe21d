// Package dashboard serves the HTTP control surface: per-month content
// statistics, manual post triggers, and content uploads, plus a small
// embedded web UI.
package dashboard
