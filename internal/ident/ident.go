// Package ident rewrites Snowflake identifiers into BigQuery-safe column
// names, matching the behavior of column_name_character_map="V2" in
// BigQuery load jobs.
package ident

import "strings"

// DefaultMaxLength is BigQuery's column name length limit.
const DefaultMaxLength = 300

// DefaultReservedPrefixes are name prefixes BigQuery reserves for
// pseudo-columns. A name starting with one of these (case-insensitive)
// gets a trailing underscore appended.
var DefaultReservedPrefixes = []string{"_TABLE_", "_FILE_", "_PARTITION_"}

// Normalizer maps arbitrary source column names to identifiers that
// satisfy BigQuery's naming rules: lowercase, `[a-z_][a-z0-9_]*`, at most
// MaxLength characters, not starting with a reserved prefix.
type Normalizer struct {
	ReservedPrefixes []string
	MaxLength        int
}

// Default returns a Normalizer with BigQuery's documented limits.
func Default() *Normalizer {
	return &Normalizer{
		ReservedPrefixes: DefaultReservedPrefixes,
		MaxLength:        DefaultMaxLength,
	}
}

// Normalize converts a source column name, quoted or not, into a
// BigQuery-safe identifier. It is total: any input, including the empty
// string, yields a valid identifier (the empty string becomes "_").
// Normalizing an already-normalized name is a no-op.
func (n *Normalizer) Normalize(name string) string {
	if name == "" {
		return "_"
	}

	s := strings.TrimSpace(name)
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = s[1 : len(s)-1]
	}
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, `""`, `"`)

	var b strings.Builder
	b.Grow(len(s))
	for _, c := range s {
		if isAlnum(c) || c == '_' {
			b.WriteRune(c)
		} else {
			b.WriteByte('_')
		}
	}
	out := b.String()

	if out != "" && out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}

	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	out = strings.TrimRight(out, "_")

	if out == "" {
		out = "_"
	}

	max := n.MaxLength
	if max <= 0 {
		max = DefaultMaxLength
	}
	if len(out) > max {
		out = out[:max]
	}

	upper := strings.ToUpper(out)
	for _, prefix := range n.ReservedPrefixes {
		if strings.HasPrefix(upper, strings.ToUpper(prefix)) {
			out += "_"
			break
		}
	}

	return strings.ToLower(out)
}

func isAlnum(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
