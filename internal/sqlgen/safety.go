package sqlgen

import (
	"strings"

	"retail-insights/internal/domain"
)

// bannedKeywords are substrings that must never appear in a generated
// statement, matched case-insensitively against the whole text.
var bannedKeywords = []string{
	"insert",
	"update",
	"delete",
	"drop",
	"alter",
	"create",
	"attach",
	"copy",
	"pragma",
}

// AssertSelectOnly rejects any statement that is not a plain SELECT or
// that contains a write/DDL keyword anywhere in its text. It runs on
// every statement immediately before execution, including the ones this
// package generated itself.
func AssertSelectOnly(sql string) error {
	lowered := strings.ToLower(strings.TrimSpace(sql))
	if !strings.HasPrefix(lowered, "select") {
		return domain.ErrValidation("unsafe SQL: only SELECT statements are allowed")
	}
	for _, kw := range bannedKeywords {
		if strings.Contains(lowered, kw) {
			return domain.ErrValidation("unsafe SQL: statement contains banned keyword %q", kw)
		}
	}
	return nil
}
