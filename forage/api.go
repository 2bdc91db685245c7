// Package forage discovers, loads, and structurally analyzes heterogeneous
// dataset files (JSON, JSONL, CSV, Parquet, and ZIP archives of JSON/JSONL)
// spread across multiple root directories.
//
// Forage focuses on ingestion structure: a discovery walk produces file
// descriptors, a format loader turns descriptors into in-memory payloads,
// a registry aggregates payloads per dataset, and a schema analyzer infers
// record shape across files. It does not implement feature engineering,
// model training, or any persistence of its own.
package forage

import (
	"time"
)

// -----------------------------------------------------------------------------
// Core types
// -----------------------------------------------------------------------------

// Descriptor identifies one discovered file without its contents.
//
// Descriptors are created during discovery and never mutated. Archive
// members do not get descriptors of their own; they are resolved inside
// the ZIP loader.
type Descriptor struct {
	// Name is the path relative to the dataset root, slash-separated.
	// It is the unique key for this file inside its dataset.
	Name string `json:"name"`

	// Path is the absolute path on disk.
	Path string `json:"path"`

	// SizeBytes is the file size in bytes.
	SizeBytes int64 `json:"size_bytes"`

	// Ext is the lowercased extension including the leading dot,
	// or "" for files without one.
	Ext string `json:"extension"`

	// Dataset names the dataset this file belongs to.
	Dataset string `json:"dataset"`
}

// Frame is the tabular payload produced by the CSV loader.
//
// Cell values are kept as raw strings; Record applies best-effort value
// typing when a row is viewed as a record.
type Frame struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// RowCount returns the number of data rows (the header is not a row).
func (f *Frame) RowCount() int {
	return len(f.Rows)
}

// Record returns row i as a column-name to value mapping.
// Values are typed best-effort: integers, floats, and booleans are
// converted; everything else stays a string.
func (f *Frame) Record(i int) map[string]any {
	rec := make(map[string]any, len(f.Columns))
	row := f.Rows[i]
	for j, col := range f.Columns {
		if j < len(row) {
			rec[col] = inferValue(row[j])
		}
	}
	return rec
}

// Payload is the parsed, in-memory content of one file.
//
// Data holds one of:
//   - []any: a record sequence (JSON array, JSONL, Parquet)
//   - map[string]any: a JSON object, or a ZIP archive's member-name to
//     parsed-content mapping
//   - *Frame: a tabular CSV payload
//
// Payloads are owned by the Registry once created and never mutated.
type Payload struct {
	Data     any        `json:"data"`
	Source   Descriptor `json:"source"`
	LoadedAt time.Time  `json:"loaded_at"`
}

// Registry maps dataset name to relative file name to loaded payload.
// It is built by LoadAll and read-only afterwards.
type Registry map[string]map[string]*Payload

// -----------------------------------------------------------------------------
// Type tags
// -----------------------------------------------------------------------------

// TypeTag classifies an observed field value into one of the variants a
// schemaless record value can take.
type TypeTag string

// Type tags recorded in Analysis.DataSchema.
const (
	TagNull     TypeTag = "null"
	TagBool     TypeTag = "bool"
	TagNumber   TypeTag = "number"
	TagString   TypeTag = "string"
	TagSequence TypeTag = "sequence"
	TagMapping  TypeTag = "mapping"
)

// -----------------------------------------------------------------------------
// Analysis results
// -----------------------------------------------------------------------------

// Analysis describes the structure of one loaded dataset.
type Analysis struct {
	// FileCount is the number of successfully loaded files.
	FileCount int `json:"file_count"`

	// TotalRecords counts records across all payloads, including ZIP
	// member sequences and CSV rows.
	TotalRecords int `json:"total_records"`

	// RecordTypes describes each sequence- or frame-shaped payload,
	// keyed by relative file name.
	RecordTypes map[string]string `json:"record_types"`

	// CommonKeys is the intersection of first-record key sets across all
	// files that yielded at least one mapping-shaped record. Empty, never
	// nil, when no key sets were captured.
	CommonKeys map[string]bool `json:"common_keys"`

	// AllKeys is the union of the same key sets. CommonKeys is always a
	// subset of AllKeys.
	AllKeys map[string]bool `json:"all_unique_keys"`

	// Samples holds up to the first two records of each file (and of each
	// ZIP member), for eyeballing. Ordering follows file iteration order.
	Samples []any `json:"sample_records"`

	// DataSchema maps field name to the set of value-type tags observed
	// in the first record of each file.
	DataSchema map[string]map[TypeTag]bool `json:"data_schema"`
}

// Summary is the cross-dataset report structure consumed by reporting
// layers. It has no wire format obligations beyond its JSON tags.
type Summary struct {
	TotalDatasets int                       `json:"total_datasets"`
	TotalFiles    int                       `json:"total_files"`
	TotalRecords  int                       `json:"total_records"`
	Datasets      map[string]DatasetSummary `json:"datasets"`
	AnalyzedAt    time.Time                 `json:"analysis_timestamp"`
}

// DatasetSummary condenses one dataset's Analysis for reporting.
type DatasetSummary struct {
	Files int `json:"files"`

	Records int `json:"records"`

	// CommonKeys is sorted for stable output. Empty, never nil.
	CommonKeys []string `json:"common_keys"`

	// SampleSchema maps field name to sorted observed type tags.
	SampleSchema map[string][]TypeTag `json:"sample_schema"`
}

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

// Error sentinel values for expected load outcomes. Parse failures are
// returned as wrapped errors carrying the underlying decoder error.
var (
	// ErrFileTooSmall indicates a file below the loadable size floor.
	// Such files are treated as empty or metadata noise and skipped.
	ErrFileTooSmall = errFileTooSmall{}

	// ErrUnsupportedFormat indicates an extension no loader handles.
	// This outcome is expected and benign.
	ErrUnsupportedFormat = errUnsupportedFormat{}
)

type errFileTooSmall struct{}

func (errFileTooSmall) Error() string { return "file too small" }

type errUnsupportedFormat struct{}

func (errUnsupportedFormat) Error() string { return "unsupported format" }
