package querygen

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/snowlift/snowlift/internal/schema"
)

func testGenerator() *Generator {
	return New("MY_STAGE", slog.Default())
}

func TestStoragePath(t *testing.T) {
	got := StoragePath("ANALYTICS", "PUBLIC", "Orders")
	if got != "analytics/public/orders/" {
		t.Errorf("StoragePath = %q", got)
	}
}

func TestCleaningQuery(t *testing.T) {
	g := testGenerator()
	got := g.CleaningQuery("DB", "PUBLIC", "ORDERS")
	want := "REMOVE @MY_STAGE/db/public/orders/"
	if got != want {
		t.Errorf("CleaningQuery = %q, want %q", got, want)
	}
}

func TestCopyQuery(t *testing.T) {
	g := testGenerator()
	tbl := &schema.Table{
		Database: "DB", Schema: "PUBLIC", Name: "ORDERS",
		Columns: []schema.Column{
			{Name: "ID", DataType: "NUMBER(38,0)"},
			{Name: "Order Total", DataType: "FLOAT"},
			{Name: "CREATED_AT", DataType: "TIMESTAMP_TZ"},
		},
	}

	got, err := g.CopyQuery(tbl, false)
	if err != nil {
		t.Fatalf("CopyQuery: %v", err)
	}

	want := `COPY INTO @MY_STAGE/db/public/orders/
FROM (
    SELECT
        "ID" AS "id",
        "Order Total" AS "order_total",
        "CREATED_AT"::TIMESTAMP_NTZ AS "created_at"
    FROM DB.PUBLIC.ORDERS
)
FILE_FORMAT = (TYPE = PARQUET, SNAPPY_COMPRESSION = TRUE)
OVERWRITE = TRUE
HEADER = TRUE;`

	if got != want {
		t.Errorf("CopyQuery mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestCopyQuery_Sample(t *testing.T) {
	g := testGenerator()
	g.SampleLimit = 25
	tbl := &schema.Table{
		Database: "DB", Schema: "S", Name: "T",
		Columns: []schema.Column{{Name: "A", DataType: "TEXT"}},
	}

	got, err := g.CopyQuery(tbl, true)
	if err != nil {
		t.Fatalf("CopyQuery: %v", err)
	}
	if !strings.Contains(got, "\n    LIMIT 25\n)") {
		t.Errorf("expected LIMIT 25 inside subquery, got:\n%s", got)
	}

	noSample, err := g.CopyQuery(tbl, false)
	if err != nil {
		t.Fatalf("CopyQuery: %v", err)
	}
	if strings.Contains(noSample, "LIMIT") {
		t.Errorf("unexpected LIMIT without sample mode:\n%s", noSample)
	}
}

func TestCopyQuery_QuoteEscaping(t *testing.T) {
	g := testGenerator()
	tbl := &schema.Table{
		Database: "DB", Schema: "S", Name: "T",
		Columns: []schema.Column{{Name: `a"b`, DataType: "TEXT"}},
	}

	got, err := g.CopyQuery(tbl, false)
	if err != nil {
		t.Fatalf("CopyQuery: %v", err)
	}
	if !strings.Contains(got, `"a""b" AS "a_b"`) {
		t.Errorf("expected escaped quoted column, got:\n%s", got)
	}
}

func TestCopyQuery_TimestampCastDisabled(t *testing.T) {
	g := testGenerator()
	g.CastTimestamps = false
	tbl := &schema.Table{
		Database: "DB", Schema: "S", Name: "T",
		Columns: []schema.Column{{Name: "AT", DataType: "TIMESTAMP_LTZ"}},
	}

	got, err := g.CopyQuery(tbl, false)
	if err != nil {
		t.Fatalf("CopyQuery: %v", err)
	}
	if strings.Contains(got, "TIMESTAMP_NTZ") {
		t.Errorf("unexpected cast with CastTimestamps disabled:\n%s", got)
	}
}

func TestCopyQuery_NoColumns(t *testing.T) {
	g := testGenerator()
	tbl := &schema.Table{Database: "DB", Schema: "S", Name: "T"}
	if _, err := g.CopyQuery(tbl, false); err == nil {
		t.Error("expected error for table without columns")
	}
}

func TestGenerate_FailureIsolation(t *testing.T) {
	g := testGenerator()
	tables := []schema.Table{
		{Database: "DB", Schema: "S", Name: "GOOD",
			Columns: []schema.Column{{Name: "A", DataType: "TEXT"}}},
		{Database: "DB", Schema: "S", Name: "EMPTY"},
	}

	out := g.Generate(tables, false)

	if out[0].CopyQuery == "" || out[0].CleaningQuery == "" {
		t.Errorf("good table missing queries: %+v", out[0])
	}
	if out[1].CopyQuery != "" {
		t.Errorf("empty table should have no copy query, got %q", out[1].CopyQuery)
	}
	if out[1].CleaningQuery != "REMOVE @MY_STAGE/db/s/empty/" {
		t.Errorf("empty table cleaning query = %q", out[1].CleaningQuery)
	}
}

func TestGenerate_RoundTripsThroughInference(t *testing.T) {
	g := testGenerator()
	tables := []schema.Table{
		{Database: "DB", Schema: "S", Name: "T",
			Columns: []schema.Column{
				{Name: "ID", DataType: "NUMBER"},
				{Name: "Order Total", DataType: "FLOAT"},
			}},
	}

	out := g.Generate(tables, false)

	aliases := schema.ExtractAliases(out[0].CopyQuery)
	want := []string{"id", "order_total"}
	if len(aliases) != len(want) {
		t.Fatalf("aliases = %v, want %v", aliases, want)
	}
	for i := range want {
		if aliases[i] != want[i] {
			t.Errorf("alias[%d] = %q, want %q", i, aliases[i], want[i])
		}
	}
}
