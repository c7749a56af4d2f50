package typemap

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// BQType represents a BigQuery standard SQL type.
type BQType string

const (
	BQNumeric   BQType = "NUMERIC"
	BQInteger   BQType = "INTEGER"
	BQFloat64   BQType = "FLOAT64"
	BQString    BQType = "STRING"
	BQBytes     BQType = "BYTES"
	BQBoolean   BQType = "BOOLEAN"
	BQDate      BQType = "DATE"
	BQDatetime  BQType = "DATETIME"
	BQTime      BQType = "TIME"
	BQTimestamp BQType = "TIMESTAMP"
	BQJSON      BQType = "JSON"
	BQGeography BQType = "GEOGRAPHY"
)

// AllBQTypes lists all known BigQuery types for cycling in the editor.
var AllBQTypes = []BQType{
	BQNumeric,
	BQInteger,
	BQFloat64,
	BQString,
	BQBytes,
	BQBoolean,
	BQDate,
	BQDatetime,
	BQTime,
	BQTimestamp,
	BQJSON,
	BQGeography,
}

// TemporalTypes are the BigQuery types eligible as a time partitioning key.
var TemporalTypes = []BQType{BQDate, BQDatetime, BQTimestamp}

// TypeMap holds the mapping from Snowflake base types to BigQuery types.
type TypeMap struct {
	Mappings  map[string]BQType `yaml:"mappings"`
	Overrides map[string]BQType `yaml:"overrides,omitempty"`
	defaults  map[string]BQType // not serialized; populated by DefaultSnowflake
}

// DefaultSnowflake returns the default Snowflake type mapping.
func DefaultSnowflake() *TypeMap {
	m := map[string]BQType{
		"NUMBER":  BQNumeric,
		"DECIMAL": BQNumeric,
		"NUMERIC": BQNumeric,

		"INT":      BQInteger,
		"INTEGER":  BQInteger,
		"BIGINT":   BQInteger,
		"SMALLINT": BQInteger,
		"TINYINT":  BQInteger,
		"BYTEINT":  BQInteger,

		"FLOAT":            BQFloat64,
		"FLOAT4":           BQFloat64,
		"FLOAT8":           BQFloat64,
		"DOUBLE":           BQFloat64,
		"DOUBLE_PRECISION": BQFloat64,
		"REAL":             BQFloat64,

		"VARCHAR":   BQString,
		"CHAR":      BQString,
		"CHARACTER": BQString,
		"STRING":    BQString,
		"TEXT":      BQString,

		"BINARY":    BQBytes,
		"VARBINARY": BQBytes,

		"BOOLEAN": BQBoolean,

		"DATE":          BQDate,
		"DATETIME":      BQDatetime,
		"TIME":          BQTime,
		"TIMESTAMP":     BQTimestamp,
		"TIMESTAMP_LTZ": BQTimestamp,
		"TIMESTAMP_NTZ": BQTimestamp,
		"TIMESTAMP_TZ":  BQTimestamp,

		"VARIANT": BQJSON,
		"OBJECT":  BQJSON,
		"ARRAY":   BQJSON,

		"GEOGRAPHY": BQGeography,
	}

	tm := &TypeMap{
		Mappings:  m,
		Overrides: make(map[string]BQType),
		defaults:  make(map[string]BQType, len(m)),
	}
	for k, v := range m {
		tm.defaults[k] = v
	}
	return tm
}

// BaseType strips precision and scale from a Snowflake type declaration,
// so "NUMBER(10,2)" and "number (10, 2)" both yield "NUMBER".
func BaseType(sourceType string) string {
	base, _, _ := strings.Cut(strings.ToUpper(sourceType), "(")
	return strings.TrimSpace(base)
}

// Resolve returns the BigQuery type for the given Snowflake type
// declaration. Unknown types fall back to STRING.
func (tm *TypeMap) Resolve(sourceType string) BQType {
	if bqType, ok := tm.Mappings[BaseType(sourceType)]; ok {
		return bqType
	}
	return BQString // fallback
}

// Override applies a user override for a source base type.
func (tm *TypeMap) Override(sourceType string, bqType BQType) {
	base := BaseType(sourceType)
	tm.Mappings[base] = bqType
	if tm.Overrides == nil {
		tm.Overrides = make(map[string]BQType)
	}
	// Track override only if different from default
	if tm.defaults != nil {
		if def, ok := tm.defaults[base]; ok && def == bqType {
			delete(tm.Overrides, base)
			return
		}
	}
	tm.Overrides[base] = bqType
}

// RestoreDefault restores the default mapping for a source base type.
func (tm *TypeMap) RestoreDefault(sourceType string) {
	base := BaseType(sourceType)
	if tm.defaults != nil {
		if def, ok := tm.defaults[base]; ok {
			tm.Mappings[base] = def
			delete(tm.Overrides, base)
		}
	}
}

// IsOverridden returns true if the source base type has been overridden
// from its default.
func (tm *TypeMap) IsOverridden(sourceType string) bool {
	if tm.Overrides == nil {
		return false
	}
	_, ok := tm.Overrides[BaseType(sourceType)]
	return ok
}

// SortedTypes returns the source type names sorted alphabetically.
func (tm *TypeMap) SortedTypes() []string {
	types := make([]string, 0, len(tm.Mappings))
	for k := range tm.Mappings {
		types = append(types, k)
	}
	sort.Strings(types)
	return types
}

// WriteYAML writes the type mapping to a YAML file.
func (tm *TypeMap) WriteYAML(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	data, err := yaml.Marshal(tm)
	if err != nil {
		return fmt.Errorf("marshaling type map: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// LoadYAML reads a type mapping from a YAML file.
func LoadYAML(path string) (*TypeMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading type map file: %w", err)
	}
	tm := &TypeMap{}
	if err := yaml.Unmarshal(data, tm); err != nil {
		return nil, fmt.Errorf("parsing type map: %w", err)
	}
	if tm.Mappings == nil {
		tm.Mappings = make(map[string]BQType)
	}
	if tm.Overrides == nil {
		tm.Overrides = make(map[string]BQType)
	}
	return tm, nil
}
