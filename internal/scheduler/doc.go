// Package scheduler fires the posting workflow once per day at the
// configured time.
package scheduler
