// Package transcript normalizes final dictation text before delivery.
package transcript

import "strings"

// Options controls delivery formatting.
type Options struct {
	TrailingSpace bool
}

// Normalize collapses whitespace runs to single spaces and trims the ends.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// ForDelivery normalizes text and appends a trailing space when configured so
// consecutive dictations do not run together. Empty text stays empty.
func ForDelivery(text string, opts Options) string {
	normalized := Normalize(text)
	if normalized == "" {
		return ""
	}
	if opts.TrailingSpace {
		return normalized + " "
	}
	return normalized
}
