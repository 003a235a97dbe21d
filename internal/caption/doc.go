// Package caption assembles post captions from a month's text files and
// optionally rewrites them through a text-generation API.
//
// Both operations are deliberately forgiving: an unreadable caption file is
// skipped, and any enhancement failure degrades to the raw assembled text.
// Nothing in this package can abort a publish.
package caption
