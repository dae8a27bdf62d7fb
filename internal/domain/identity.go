package domain

import "strings"

// botMarker identifies platform-operated accounts by username convention.
const botMarker = "-bot"

// SameIdentifier compares two player identifiers case-insensitively.
// Usernames are unique on the platform up to case.
func SameIdentifier(a, b string) bool {
	return strings.EqualFold(a, b)
}

// NormalizeIdentifier lowercases an identifier for use as a map or table key.
func NormalizeIdentifier(id string) string {
	return strings.ToLower(id)
}

// IsAutomated reports whether a username belongs to a platform bot account.
func IsAutomated(username string) bool {
	return strings.Contains(strings.ToLower(username), botMarker)
}
