package store

import (
	"strconv"
	"strings"
)

// EscapeString makes s safe to embed in a single-quoted SQLite string
// literal: single quotes are doubled. Backslashes need no
// transformation because SQLite literals do not process escape
// sequences, so the stored value reads back byte-for-byte equal to s.
//
// Every string property interpolated into a statement must pass through
// here; this is the one escaping code path in the repository.
func EscapeString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// QuoteString escapes s and wraps it in single quotes, ready to place
// in a VALUES list.
func QuoteString(s string) string {
	return "'" + EscapeString(s) + "'"
}

// QuoteBool renders b as the 0/1 SQLite stores for booleans.
func QuoteBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// QuoteInt renders an int64 id or count.
func QuoteInt(n int64) string {
	return strconv.FormatInt(n, 10)
}
