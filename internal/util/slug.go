// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides general-purpose utility functions including
// URL slug generation and validation with Unicode transliteration.
package util

import (
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/unicode/norm"
)

var (
	// slugRegex matches everything outside the slug alphabet
	slugRegex = regexp.MustCompile(`[^a-z0-9-]+`)
	// multipleHyphens matches multiple consecutive hyphens
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Slugify converts a string to a single URL-friendly slug segment.
// Compatibility characters are folded (NFKC), non-ASCII letters are
// transliterated, the result is lowercased and trimmed, internal whitespace
// runs become one hyphen and every character outside [a-z0-9-] is removed.
func Slugify(s string) string {
	result := norm.NFKC.String(s)
	result = unidecode.Unidecode(result)
	result = strings.ToLower(strings.TrimSpace(result))

	// Collapse any whitespace run into a single hyphen
	result = strings.Join(strings.Fields(result), "-")

	result = slugRegex.ReplaceAllString(result, "")
	result = multipleHyphens.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// IsValidSlug checks if a string is a valid single slug segment.
func IsValidSlug(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return false
		}
	}

	if s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}

	return !strings.Contains(s, "--")
}

// IsValidSlugPath checks a hierarchical slug: one or more valid segments joined by '/'.
func IsValidSlugPath(s string) bool {
	if s == "" {
		return false
	}
	for _, seg := range strings.Split(s, "/") {
		if !IsValidSlug(seg) {
			return false
		}
	}
	return true
}
