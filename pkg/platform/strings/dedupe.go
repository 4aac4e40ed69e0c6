// Package strings provides string helpers shared by configuration parsing.
package strings

import (
	"strings"
)

// SplitList splits a comma-separated value, trimming each element and
// dropping empty and repeated entries. Order is preserved.
//
//	SplitList(" kafka-1:9092,kafka-2:9092, kafka-1:9092,")
//	// []string{"kafka-1:9092", "kafka-2:9092"}
func SplitList(raw string) []string {
	return DedupeAndTrim(strings.Split(raw, ","))
}

// DedupeAndTrim removes duplicates and blank strings from values, trimming
// whitespace from each element. It returns nil when nothing remains.
func DedupeAndTrim(values []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(values))
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
