// Package strings parses the comma separated lists used in configuration.
package strings

import (
	"strings"
)

// SplitList splits raw on sep, trims every element and drops empty and
// repeated ones. Order of first appearance is preserved.
//
//	SplitList(" kafka-1:9092, ,kafka-2:9092,kafka-1:9092", ",")
//	// []string{"kafka-1:9092", "kafka-2:9092"}
func SplitList(raw, sep string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return Dedupe(strings.Split(raw, sep))
}

// Dedupe trims values and removes blanks and duplicates, keeping the first
// occurrence of each.
func Dedupe(values []string) []string {
	if values == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
