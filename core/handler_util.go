package core

import (
	"strconv"
	"strings"
)

// parseNumericID parses a strictly numeric identifier from a path parameter.
func parseNumericID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, BadRequest("invalid id")
	}
	return id, nil
}

// parseListParams reads the after/count query pair with the catalog defaults.
func parseListParams(afterStr, countStr string) (int, int, error) {
	after := 0
	count := 10
	if strings.TrimSpace(afterStr) != "" {
		a, err := strconv.Atoi(afterStr)
		if err != nil || a < 0 {
			return 0, 0, BadRequest("after must be a non-negative integer")
		}
		after = a
	}
	if strings.TrimSpace(countStr) != "" {
		n, err := strconv.Atoi(countStr)
		if err != nil || n <= 0 {
			return 0, 0, BadRequest("count must be a positive integer")
		}
		count = n
	}
	return after, count, nil
}
