// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug turns free-form dataset names into safe download file names.
package slug

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxNameBytes caps the base name so the full file name stays under the
// 255-byte limit of common filesystems.
const maxNameBytes = 200

var (
	// unsafeChars matches control characters and characters reserved by
	// Windows or POSIX paths.
	unsafeChars = regexp.MustCompile(`[\x00-\x1f\x7f/\\:*?"<>|]+`)
	// multipleSpaces collapses runs of whitespace into one space.
	multipleSpaces = regexp.MustCompile(`\s+`)
)

// Filename returns name made safe for use as a file name, with ext
// appended. Letters of any script are kept. When nothing usable remains,
// fallback is used instead.
// Example: Filename("Cotton / NIR", "dataset-9", ".csv") → "Cotton NIR.csv"
func Filename(name, fallback, ext string) string {
	base := unsafeChars.ReplaceAllString(name, " ")
	base = multipleSpaces.ReplaceAllString(base, " ")
	base = strings.Trim(base, " .")

	if len(base) > maxNameBytes {
		base = base[:maxNameBytes]
		for !utf8.ValidString(base) {
			base = base[:len(base)-1]
		}
		base = strings.TrimRight(base, " .")
	}
	if base == "" {
		base = fallback
	}
	return base + ext
}
