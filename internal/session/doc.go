// Package session establishes and persists an authenticated Instagram
// session. Strategies are tried in order of cost: saved state on disk,
// manually supplied tokens, then a full credential login.
package session
