// Package instaweb implements a cookie-based client for the Instagram web
// API: credential login, session probing, and single-photo publishing.
package instaweb
