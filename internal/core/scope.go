package core

import "strings"

// SplitScope tokenizes a space-delimited scope string into the individually
// displayed permission identifiers. Order is preserved as sent by the server;
// no sorting, no deduplication. Display order is part of the contract.
func SplitScope(scope string) []string {
	return strings.Fields(scope)
}
