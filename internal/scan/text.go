package scan

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CleanOptions controls post-processing of detected text.
type CleanOptions struct {
	Normalize bool // Unicode NFC
	Trim      bool // trailing whitespace per line and trailing blank lines
}

// DefaultCleanOptions enables every step.
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{Normalize: true, Trim: true}
}

// CleanText normalises line endings to LF and applies opts.
func CleanText(s string, opts CleanOptions) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	if opts.Normalize {
		s = norm.NFC.String(s)
	}
	if opts.Trim {
		lines := strings.Split(s, "\n")
		for i, l := range lines {
			lines[i] = strings.TrimRight(l, " \t")
		}
		s = strings.TrimRight(strings.Join(lines, "\n"), "\n")
	}
	return s
}
