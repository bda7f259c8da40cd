// Package normalize trims and case-folds user input before it is validated
// or stored.
package normalize

import "strings"

// Name trims surrounding whitespace and collapses inner runs of spaces.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Status lowercases and trims a status value.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a query string value, preserving case.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// ConditionType uppercases a condition type ("business" -> "BUSINESS").
func ConditionType(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Scope uppercases a condition scope ("network" -> "NETWORK").
func Scope(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
