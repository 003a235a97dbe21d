// Package services defines shared utilities consumed by the posting workflow
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp month identifiers and run correlation IDs
//     for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification consistent (fatal vs contained) across components.
//
// Use these helpers when wiring new workflow logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
