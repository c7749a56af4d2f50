package schema

import (
	"fmt"
	"regexp"

	"github.com/snowlift/snowlift/internal/ident"
	"github.com/snowlift/snowlift/internal/typemap"
)

var (
	selectRe = regexp.MustCompile(`(?is)SELECT\s+(.*?)\s+FROM`)
	aliasRe  = regexp.MustCompile(`(?i)AS\s+"([^"]*)"`)
)

// ExtractAliases returns the quoted AS aliases from the SELECT list of a
// copy query, in order. A query with no SELECT...FROM section, or an
// empty query, yields no aliases; callers then fall back to the raw
// column names.
func ExtractAliases(copyQuery string) []string {
	if copyQuery == "" {
		return nil
	}
	m := selectRe.FindStringSubmatch(copyQuery)
	if m == nil {
		return nil
	}

	var aliases []string
	for _, g := range aliasRe.FindAllStringSubmatch(m[1], -1) {
		aliases = append(aliases, g[1])
	}
	return aliases
}

// Infer derives a BigQuery schema for a table from its source columns
// and its copy query. Aliases from the copy query take precedence over
// the raw column names, positionally. Names are normalized and
// deduplicated with numeric suffixes starting at 2, so the result always
// has exactly one field per source column.
func Infer(t *Table, n *ident.Normalizer, tm *typemap.TypeMap) []Field {
	if len(t.Columns) == 0 {
		return nil
	}

	aliases := ExtractAliases(t.CopyQuery)

	fields := make([]Field, 0, len(t.Columns))
	used := make(map[string]bool, len(t.Columns))

	for i, col := range t.Columns {
		var base string
		if i < len(aliases) {
			base = n.Normalize(aliases[i])
		} else {
			base = n.Normalize(col.Name)
		}

		name := base
		for counter := 2; used[name]; counter++ {
			if base == "_" {
				name = fmt.Sprintf("_%d", counter)
			} else {
				name = fmt.Sprintf("%s_%d", base, counter)
			}
		}
		used[name] = true

		fields = append(fields, Field{
			Name: name,
			Type: string(tm.Resolve(col.DataType)),
			Mode: "NULLABLE",
		})
	}

	return fields
}

// TemporalFields filters fields down to those eligible as a time
// partitioning key.
func TemporalFields(fields []Field) []Field {
	var out []Field
	for _, f := range fields {
		switch typemap.BQType(f.Type) {
		case typemap.BQDate, typemap.BQDatetime, typemap.BQTimestamp:
			out = append(out, f)
		}
	}
	return out
}
