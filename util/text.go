// util/text.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"crypto/sha256"
	"io"
	"strings"
)

// WrapLines breaks s into lines of at most columnLimit runes, breaking at
// spaces where possible. Continuation lines are indented by indent
// spaces; a word longer than the available width is split.
func WrapLines(s string, columnLimit int, indent int) []string {
	if columnLimit <= 0 {
		return []string{s}
	}
	indent = max(0, min(indent, columnLimit-1))

	var lines []string
	var line []rune
	for _, word := range strings.Fields(s) {
		w := []rune(word)
		for len(w) > 0 {
			limit := columnLimit
			if len(lines) > 0 {
				limit -= indent
			}

			sep := 0
			if len(line) > 0 {
				sep = 1
			}
			if len(line)+sep+len(w) <= limit {
				if sep == 1 {
					line = append(line, ' ')
				}
				line = append(line, w...)
				w = nil
			} else if len(line) > 0 {
				lines = append(lines, string(line))
				line = line[:0]
			} else {
				// The word doesn't fit on a line of its own.
				lines = append(lines, string(w[:limit]))
				w = w[limit:]
			}
		}
	}
	if len(line) > 0 || len(lines) == 0 {
		lines = append(lines, string(line))
	}

	pad := strings.Repeat(" ", indent)
	for i := 1; i < len(lines); i++ {
		lines[i] = pad + lines[i]
	}
	return lines
}

// Hash returns the SHA-256 digest of everything read from r.
func Hash(r io.Reader) ([]byte, error) {
	hash := sha256.New()
	if _, err := io.Copy(hash, r); err != nil {
		return nil, err
	}
	return hash.Sum(nil), nil
}
