// Command gramline is the CLI for the monthly Instagram posting pipeline:
// posting runs, content status, the dashboard server, and the daily
// scheduler.
package main
