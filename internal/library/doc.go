// Package library scans the content directory for monthly folders and their
// caption, image, and marker files.
//
// A month is any direct child directory whose name parses as an integer.
// Months are always returned in ascending numeric order and files within a
// month in lexical order, so caption concatenation and image selection are
// reproducible regardless of the underlying filesystem's enumeration order.
package library
