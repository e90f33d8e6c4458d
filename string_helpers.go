package main

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// This file contains helper functions for string manipulation.

// normalizeRegionName takes a region name and returns a standardized
// version: diacritical marks removed and lowercased, so that lookups for
// "Région 1" and "region 1" resolve to the same region.
func normalizeRegionName(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("input string is not valid UTF-8")
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(result)), nil
}
