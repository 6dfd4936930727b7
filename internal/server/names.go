package server

import "strings"

// ParsePlayerNames splits a comma separated roster, trimming spaces and
// dropping empty entries. Order is kept; duplicates are left for validation.
func ParsePlayerNames(text string) []string {
	var names []string
	for _, part := range strings.Split(text, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}
