package typemap

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultSnowflakeMapping(t *testing.T) {
	tm := DefaultSnowflake()

	tests := []struct {
		sourceType string
		want       BQType
	}{
		{"NUMBER", BQNumeric},
		{"NUMBER(10,2)", BQNumeric},
		{"INT", BQInteger},
		{"BIGINT", BQInteger},
		{"FLOAT8", BQFloat64},
		{"DOUBLE_PRECISION", BQFloat64},
		{"VARCHAR(255)", BQString},
		{"TEXT", BQString},
		{"BINARY", BQBytes},
		{"BOOLEAN", BQBoolean},
		{"DATE", BQDate},
		{"DATETIME", BQDatetime},
		{"TIME", BQTime},
		{"TIMESTAMP_TZ", BQTimestamp},
		{"TIMESTAMP_NTZ", BQTimestamp},
		{"VARIANT", BQJSON},
		{"OBJECT", BQJSON},
		{"ARRAY", BQJSON},
		{"GEOGRAPHY", BQGeography},
	}

	for _, tt := range tests {
		t.Run(tt.sourceType, func(t *testing.T) {
			got := tm.Resolve(tt.sourceType)
			if got != tt.want {
				t.Errorf("Resolve(%q) = %s, want %s", tt.sourceType, got, tt.want)
			}
		})
	}
}

func TestResolveNormalizesDeclaration(t *testing.T) {
	tm := DefaultSnowflake()

	// Lowercase and whitespace around the precision spec are tolerated.
	if got := tm.Resolve("number (10, 2)"); got != BQNumeric {
		t.Errorf("Resolve = %s, want NUMERIC", got)
	}
	if got := tm.Resolve("  varchar(16777216)"); got != BQString {
		t.Errorf("Resolve = %s, want STRING", got)
	}
}

func TestUnknownTypeFallsBackToString(t *testing.T) {
	tm := DefaultSnowflake()
	got := tm.Resolve("SOME_UNKNOWN_TYPE")
	if got != BQString {
		t.Errorf("expected fallback to STRING, got %s", got)
	}
}

func TestOverride(t *testing.T) {
	tm := DefaultSnowflake()

	// Override the VARIANT mapping
	tm.Override("VARIANT", BQString)
	if tm.Resolve("VARIANT") != BQString {
		t.Errorf("expected STRING after override, got %s", tm.Resolve("VARIANT"))
	}
	if !tm.IsOverridden("VARIANT") {
		t.Error("VARIANT should be marked as overridden")
	}

	// Restore default
	tm.RestoreDefault("VARIANT")
	if tm.Resolve("VARIANT") != BQJSON {
		t.Errorf("expected JSON after restore, got %s", tm.Resolve("VARIANT"))
	}
	if tm.IsOverridden("VARIANT") {
		t.Error("VARIANT should not be overridden after restore")
	}
}

func TestOverride_SameAsDefault(t *testing.T) {
	tm := DefaultSnowflake()

	// Overriding to the same value as default should not mark as override
	tm.Override("NUMBER", BQNumeric)
	if tm.IsOverridden("NUMBER") {
		t.Error("overriding to default value should not be tracked as override")
	}
}

func TestWriteAndLoadYAML(t *testing.T) {
	tm := DefaultSnowflake()
	tm.Override("VARIANT", BQString)

	dir := t.TempDir()
	path := filepath.Join(dir, "typemap.yaml")

	if err := tm.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file to exist: %v", err)
	}

	loaded, err := LoadYAML(path)
	if err != nil {
		t.Fatalf("LoadYAML: %v", err)
	}

	if loaded.Resolve("VARIANT") != BQString {
		t.Errorf("loaded mapping: expected STRING, got %s", loaded.Resolve("VARIANT"))
	}

	if loaded.Resolve("TEXT") != BQString {
		t.Errorf("loaded mapping: expected STRING for TEXT, got %s", loaded.Resolve("TEXT"))
	}
}

func TestLoadYAML_NotFound(t *testing.T) {
	_, err := LoadYAML("/nonexistent/typemap.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestSortedTypes(t *testing.T) {
	tm := DefaultSnowflake()
	types := tm.SortedTypes()

	if len(types) == 0 {
		t.Fatal("expected non-empty sorted types")
	}

	for i := 1; i < len(types); i++ {
		if types[i] < types[i-1] {
			t.Errorf("types not sorted: %s before %s", types[i-1], types[i])
		}
	}
}
