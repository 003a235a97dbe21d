// Package publisher turns a verified session plus an image and caption into
// a single Instagram post, appending the configured hashtag suffix.
package publisher
