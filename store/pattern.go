package store

import (
	"strings"

	"gorm.io/gorm"
)

// likeEscaper escapes LIKE metacharacters so only '*' acts as a wildcard.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern converts a name filter into a LIKE pattern. Every '*' matches
// any substring, including the empty one. ok is false when the filter
// matches every name.
func likePattern(filter string) (pattern string, ok bool) {
	if filter == "" || strings.Trim(filter, "*") == "" {
		return "", false
	}
	return strings.ReplaceAll(likeEscaper.Replace(filter), "*", "%"), true
}

// whereNameMatches applies a case-insensitive name filter to column.
func whereNameMatches(q *gorm.DB, column, filter string) *gorm.DB {
	pattern, ok := likePattern(filter)
	if !ok {
		return q
	}
	return q.Where("LOWER("+column+") LIKE LOWER(?) ESCAPE '\\'", pattern)
}
