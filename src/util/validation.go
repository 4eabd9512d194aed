package util

import (
	"regexp"
	"strconv"
)

// ids are embedded in record keys, where '#' separates key segments.
var idPattern = regexp.MustCompile(`^[^#\s]{1,128}$`)

func ValidateID(id string) bool {
	return idPattern.MatchString(id)
}

// ParseLimit parses an optional page size. An empty value yields 0, meaning
// the server default.
func ParseLimit(raw string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
