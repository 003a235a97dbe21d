// Package workflow drives the monthly posting pipeline: it walks the content
// library, assembles and optionally enhances captions, publishes through an
// authenticated session, and records outcomes.
package workflow
