package search

import (
	"strconv"
	"strings"
)

// Query represents the structured parameters of a history search.
// It decouples the raw input from the actual index engine requirements.
type Query struct {
	RawInput string // The original input from the operator
	Terms    string // The actual text to search in Bluge
	Author   string // Optional sender filter
	RoomID   string // Target room for the search
	Limit    int    // Pagination: number of results
}

// ParseQuery parses a raw string to extract command-line style arguments.
// Example: /find invoice overdue --room war-room-01 --from u-42 --limit 5
func ParseQuery(input string) *Query {
	query := &Query{
		RawInput: input,
		Limit:    10, // Default limit
	}

	parts := strings.Fields(input)
	var textTerms []string

	for i := 0; i < len(parts); i++ {
		part := parts[i]

		// Handle flags like --room war-room-01 or --from u-42
		if strings.HasPrefix(part, "--") && i+1 < len(parts) {
			key := strings.TrimPrefix(part, "--")
			val := parts[i+1]

			switch key {
			case "room":
				query.RoomID = val
			case "from":
				query.Author = val
			case "limit":
				if limit, err := strconv.Atoi(val); err == nil && limit > 0 {
					query.Limit = limit
				}
			}
			i++ // Skip the value part in next iteration
			continue
		}

		// If it's not a flag, it's a search term
		if !strings.HasPrefix(part, "/") {
			textTerms = append(textTerms, part)
		}
	}

	query.Terms = strings.Join(textTerms, " ")
	return query
}
