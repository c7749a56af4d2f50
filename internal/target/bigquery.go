package target

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"

	"github.com/snowlift/snowlift/internal/schema"
)

// Default BigQuery settings when the config leaves them unset.
const (
	DefaultLocation      = "EU"
	DefaultDatasetPrefix = "snowflake_"
)

// BigQuery implements Loader with the official client. Every load job
// reads Parquet from GCS, truncates the destination and maps column
// names with the V2 character map, so load-time name handling matches
// the aliases the copy queries produce.
type BigQuery struct {
	ProjectID     string
	GCSBaseURI    string
	Location      string
	DatasetPrefix string
	Logger        *slog.Logger

	client *bigquery.Client
}

// NewBigQuery creates a BigQuery loader. The GCS base URI is the bucket
// prefix the Snowflake external stage unloads into.
func NewBigQuery(projectID, gcsBaseURI, location, datasetPrefix string, logger *slog.Logger) *BigQuery {
	if location == "" {
		location = DefaultLocation
	}
	if datasetPrefix == "" {
		datasetPrefix = DefaultDatasetPrefix
	}
	return &BigQuery{
		ProjectID:     projectID,
		GCSBaseURI:    strings.TrimRight(gcsBaseURI, "/"),
		Location:      location,
		DatasetPrefix: datasetPrefix,
		Logger:        logger,
	}
}

func (b *BigQuery) Connect(ctx context.Context) error {
	client, err := bigquery.NewClient(ctx, b.ProjectID)
	if err != nil {
		return &ConnectionError{ProjectID: b.ProjectID, Err: err}
	}
	client.Location = b.Location
	b.client = client
	return nil
}

// DatasetID returns the destination dataset for a source database and
// schema: the configured prefix plus database_schema, lowercased with
// hyphens replaced by underscores.
func (b *BigQuery) DatasetID(database, schemaName string) string {
	id := fmt.Sprintf("%s%s_%s", b.DatasetPrefix, database, schemaName)
	return strings.ToLower(strings.ReplaceAll(id, "-", "_"))
}

// SourceURI returns the GCS wildcard URI covering a table's staged
// Parquet files.
func (b *BigQuery) SourceURI(database, schemaName, table string) string {
	return fmt.Sprintf("%s/%s/%s/%s/*",
		b.GCSBaseURI, strings.ToLower(database), strings.ToLower(schemaName), strings.ToLower(table))
}

// ensureDataset creates the dataset in the configured location if it
// does not exist yet.
func (b *BigQuery) ensureDataset(ctx context.Context, datasetID string) error {
	err := b.client.Dataset(datasetID).Create(ctx, &bigquery.DatasetMetadata{Location: b.Location})
	if err != nil && !hasStatusCode(err, 409) {
		return fmt.Errorf("creating dataset %s: %w", datasetID, err)
	}
	b.Logger.Debug("ensured dataset exists", "dataset", datasetID, "location", b.Location)
	return nil
}

func (b *BigQuery) Load(ctx context.Context, t *schema.Table) (int64, error) {
	if b.client == nil {
		return 0, &ConnectionError{ProjectID: b.ProjectID, Err: errors.New("no active client")}
	}

	datasetID := b.DatasetID(t.Database, t.Schema)
	if err := b.ensureDataset(ctx, datasetID); err != nil {
		return 0, err
	}

	tableID := strings.ToLower(t.Name)
	tbl := b.client.Dataset(datasetID).Table(tableID)

	var customFields []schema.Field
	if t.CustomSchema != "" {
		fields, err := schema.ParseFieldsJSON(t.CustomSchema)
		if err != nil {
			return 0, fmt.Errorf("custom schema for %s: %w", t.FullName(), err)
		}
		customFields = fields
	}

	// Any load option means starting from a clean slate: drop the table,
	// and with a custom schema precreate it so partitioning and
	// clustering live on the table itself.
	if t.HasLoadOptions() {
		if err := tbl.Delete(ctx); err != nil && !hasStatusCode(err, 404) {
			b.Logger.Debug("deleting existing table", "table", datasetID+"."+tableID, "error", err)
		}
		if customFields != nil {
			if err := b.createTableWithOptions(ctx, tbl, t, customFields); err != nil {
				return 0, err
			}
		}
	}

	b.Logger.Info("loading table from GCS", "table", t.FullName(), "dataset", datasetID)

	gcsRef := bigquery.NewGCSReference(b.SourceURI(t.Database, t.Schema, t.Name))
	gcsRef.SourceFormat = bigquery.Parquet

	loader := tbl.LoaderFrom(gcsRef)
	loader.WriteDisposition = bigquery.WriteTruncate
	loader.ColumnNameCharacterMap = bigquery.V2ColumnNameCharacterMap

	if customFields != nil {
		gcsRef.Schema = toBQSchema(customFields)
	} else {
		gcsRef.AutoDetect = true
		// Without a custom schema the options ride on the job config.
		if t.PartitionField != "" {
			loader.TimePartitioning = &bigquery.TimePartitioning{
				Type:  partitioningType(t.PartitionType),
				Field: t.PartitionField,
			}
		}
		if len(t.ClusterFields) > 0 {
			loader.Clustering = &bigquery.Clustering{Fields: t.ClusterFields}
		}
	}

	job, err := loader.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("starting load job for %s: %w", t.FullName(), err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("waiting for load job for %s: %w", t.FullName(), err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("load job for %s: %w", t.FullName(), err)
	}

	md, err := tbl.Metadata(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading metadata for %s.%s: %w", datasetID, tableID, err)
	}

	b.Logger.Info("loaded table", "table", datasetID+"."+tableID, "rows", md.NumRows)
	return int64(md.NumRows), nil
}

// createTableWithOptions precreates the destination table with the
// custom schema plus any partitioning and clustering settings.
func (b *BigQuery) createTableWithOptions(ctx context.Context, tbl *bigquery.Table, t *schema.Table, fields []schema.Field) error {
	md := &bigquery.TableMetadata{Schema: toBQSchema(fields)}

	if t.PartitionField != "" {
		md.TimePartitioning = &bigquery.TimePartitioning{
			Type:  partitioningType(t.PartitionType),
			Field: t.PartitionField,
		}
		b.Logger.Info("creating table with partitioning",
			"table", t.FullName(), "field", t.PartitionField, "type", string(partitioningType(t.PartitionType)))
	}
	if len(t.ClusterFields) > 0 {
		md.Clustering = &bigquery.Clustering{Fields: t.ClusterFields}
		b.Logger.Info("creating table with clustering",
			"table", t.FullName(), "fields", strings.Join(t.ClusterFields, ", "))
	}

	if err := tbl.Create(ctx, md); err != nil {
		return fmt.Errorf("creating table for %s: %w", t.FullName(), err)
	}
	return nil
}

func (b *BigQuery) CreateExternalTable(ctx context.Context, t *schema.Table) error {
	if b.client == nil {
		return &ConnectionError{ProjectID: b.ProjectID, Err: errors.New("no active client")}
	}

	datasetID := b.DatasetID(t.Database, t.Schema)
	if err := b.ensureDataset(ctx, datasetID); err != nil {
		return err
	}

	tableID := strings.ToLower(t.Name) + "_external"
	tbl := b.client.Dataset(datasetID).Table(tableID)
	sourceURI := b.SourceURI(t.Database, t.Schema, t.Name)

	if err := tbl.Delete(ctx); err != nil && !hasStatusCode(err, 404) {
		b.Logger.Debug("deleting existing external table", "table", datasetID+"."+tableID, "error", err)
	}

	md := &bigquery.TableMetadata{
		ExternalDataConfig: &bigquery.ExternalDataConfig{
			SourceFormat: bigquery.Parquet,
			SourceURIs:   []string{sourceURI},
			AutoDetect:   true,
		},
	}
	if err := tbl.Create(ctx, md); err != nil {
		return fmt.Errorf("creating external table %s.%s: %w", datasetID, tableID, err)
	}

	b.Logger.Info("created external table", "table", datasetID+"."+tableID, "source", sourceURI)
	return nil
}

func (b *BigQuery) Close() error {
	if b.client != nil {
		err := b.client.Close()
		b.client = nil
		return err
	}
	return nil
}

// toBQSchema converts custom schema fields to the client's schema type.
func toBQSchema(fields []schema.Field) bigquery.Schema {
	out := make(bigquery.Schema, len(fields))
	for i, f := range fields {
		out[i] = &bigquery.FieldSchema{
			Name:     f.Name,
			Type:     fieldType(f.Type),
			Required: f.Mode == "REQUIRED",
			Repeated: f.Mode == "REPEATED",
		}
	}
	return out
}

// fieldType maps schema type names to the client's constants. FLOAT64
// is the standard SQL alias the type mapper emits for the API's FLOAT.
func fieldType(name string) bigquery.FieldType {
	switch strings.ToUpper(name) {
	case "FLOAT64", "FLOAT":
		return bigquery.FloatFieldType
	case "INT64", "INTEGER":
		return bigquery.IntegerFieldType
	case "BOOL", "BOOLEAN":
		return bigquery.BooleanFieldType
	default:
		return bigquery.FieldType(strings.ToUpper(name))
	}
}

// partitioningType maps a partition granularity name to the client's
// type, defaulting to daily.
func partitioningType(name string) bigquery.TimePartitioningType {
	switch strings.ToUpper(name) {
	case "HOUR":
		return bigquery.HourPartitioningType
	case "MONTH":
		return bigquery.MonthPartitioningType
	case "YEAR":
		return bigquery.YearPartitioningType
	default:
		return bigquery.DayPartitioningType
	}
}

// hasStatusCode reports whether err is a BigQuery service error with the
// given HTTP status.
func hasStatusCode(err error, code int) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}

var _ Loader = (*BigQuery)(nil)
