package store

import (
	"fmt"
	"strconv"
	"strings"
)

// NextID derives the next sequential identifier for a prefix from the
// maximum numeric suffix in the existing set. Identifiers that do not carry
// the prefix followed by a purely numeric remainder are ignored. The first
// record of a type gets suffix 00001.
//
// Pure and deterministic: the UI previews the identifier before save and
// assigns it at save time, and the two calls must agree while the dataset
// is unchanged. Nothing coordinates concurrent writers.
func NextID(ids []string, prefix string) string {
	if len(ids) == 0 {
		return fmt.Sprintf("%s%05d", prefix, 1)
	}
	max := 0
	for _, id := range ids {
		rest := strings.Replace(id, prefix, "", 1)
		if !isNumeric(rest) {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%05d", prefix, max+1)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
