package handlers

import "strings"

// commandArgs returns the whitespace-separated arguments following the
// command itself, handling the /command@botname form.
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}
