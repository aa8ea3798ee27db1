package utils

import "strings"

// UniqueUint removes duplicate values from a slice of uints, keeping first occurrences.
func UniqueUint(slice []uint) []uint {
	keys := make(map[uint]bool)
	list := []uint{}
	for _, entry := range slice {
		if _, value := keys[entry]; !value {
			keys[entry] = true
			list = append(list, entry)
		}
	}
	return list
}

// SplitCommaList splits "a, b,,a" into ["a", "b"]: trimmed, non-empty, first occurrence wins.
func SplitCommaList(raw string) []string {
	seen := make(map[string]bool)
	list := []string{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		list = append(list, part)
	}
	return list
}
