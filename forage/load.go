package forage

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
)

// json is a drop-in replacement for encoding/json with better performance.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// minLoadableSize is the size floor below which files are skipped
// unconditionally. Smaller files are metadata noise or empty.
const minLoadableSize = 50

// Loader parses a descriptor's file into an in-memory payload value.
//
// Loaders are stateless: every call is independent, opens its own handle,
// and closes it before returning. The only side effect is logging.
type Loader struct {
	log zerolog.Logger
}

// NewLoader creates a Loader. Only WithLogger is consulted.
func NewLoader(opts ...Option) *Loader {
	cfg := resolveConfig(opts)
	return &Loader{log: cfg.Logger}
}

// Load dispatches on the descriptor's extension and returns the parsed
// data value: []any for JSON arrays, JSONL, and Parquet; map[string]any
// for JSON objects and ZIP archives; *Frame for CSV.
//
// Expected skip outcomes are sentinel errors: ErrFileTooSmall below the
// size floor, ErrUnsupportedFormat for extensions no loader handles.
// Parse failures return the wrapped decoder error. Success is err == nil.
func (l *Loader) Load(desc Descriptor, maxRecords int) (any, error) {
	if desc.SizeBytes < minLoadableSize {
		l.log.Debug().Str("file", desc.Name).Int64("size", desc.SizeBytes).Msg("skipping small file")
		return nil, ErrFileTooSmall
	}
	return l.loadAs(desc, desc.Ext, maxRecords)
}

func (l *Loader) loadAs(desc Descriptor, ext string, maxRecords int) (any, error) {
	switch ext {
	case ".json":
		return l.loadJSON(desc, maxRecords)
	case ".jsonl":
		return l.loadJSONL(desc, maxRecords)
	case ".csv":
		return l.loadCSV(desc, maxRecords)
	case ".zip":
		return l.loadZip(desc, maxRecords)
	case ".parquet":
		return l.loadParquet(desc, maxRecords)
	case ".gz", ".zst":
		return l.loadCompressed(desc, ext, maxRecords)
	default:
		l.log.Debug().Str("file", desc.Name).Str("extension", ext).Msg("unsupported file type")
		return nil, ErrUnsupportedFormat
	}
}

// -----------------------------------------------------------------------------
// JSON
// -----------------------------------------------------------------------------

func (l *Loader) loadJSON(desc Descriptor, maxRecords int) (any, error) {
	f, err := os.Open(desc.Path)
	if err != nil {
		l.log.Error().Err(err).Str("file", desc.Name).Msg("error loading JSON file")
		return nil, fmt.Errorf("open %s: %w", desc.Name, err)
	}
	defer func() { _ = f.Close() }()

	data, err := decodeJSON(f, maxRecords)
	if err != nil {
		l.log.Error().Err(err).Str("file", desc.Name).Msg("error loading JSON file")
		return nil, fmt.Errorf("parse json %s: %w", desc.Name, err)
	}

	l.log.Info().Str("file", desc.Name).Msg("loaded JSON file")
	return data, nil
}

// decodeJSON reads a single JSON value. Top-level arrays are truncated to
// maxRecords elements; objects and scalars pass through untouched.
func decodeJSON(r io.Reader, maxRecords int) (any, error) {
	var data any
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, err
	}
	if arr, ok := data.([]any); ok && maxRecords > 0 && len(arr) > maxRecords {
		data = arr[:maxRecords]
	}
	return data, nil
}

// -----------------------------------------------------------------------------
// JSONL
// -----------------------------------------------------------------------------

func (l *Loader) loadJSONL(desc Descriptor, maxRecords int) (any, error) {
	f, err := os.Open(desc.Path)
	if err != nil {
		l.log.Error().Err(err).Str("file", desc.Name).Msg("error loading JSONL file")
		return nil, fmt.Errorf("open %s: %w", desc.Name, err)
	}
	defer func() { _ = f.Close() }()

	records, err := decodeJSONL(f, maxRecords)
	if err != nil {
		l.log.Error().Err(err).Str("file", desc.Name).Msg("error loading JSONL file")
		return nil, fmt.Errorf("parse jsonl %s: %w", desc.Name, err)
	}

	l.log.Info().Str("file", desc.Name).Int("records", len(records)).Msg("loaded JSONL file")
	return records, nil
}

// decodeJSONL reads one JSON value per non-blank line. The cap is applied
// to the line index, not the emitted record count: reading stops once
// maxRecords lines have been consumed, so blank lines spend budget without
// emitting anything. A single malformed line aborts the whole decode.
func decodeJSONL(r io.Reader, maxRecords int) ([]any, error) {
	records := []any{}
	scanner := bufio.NewScanner(r)

	i := 0
	for scanner.Scan() {
		if maxRecords > 0 && i >= maxRecords {
			break
		}
		i++

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var record any
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// -----------------------------------------------------------------------------
// CSV
// -----------------------------------------------------------------------------

func (l *Loader) loadCSV(desc Descriptor, maxRecords int) (any, error) {
	f, err := os.Open(desc.Path)
	if err != nil {
		l.log.Error().Err(err).Str("file", desc.Name).Msg("error loading CSV file")
		return nil, fmt.Errorf("open %s: %w", desc.Name, err)
	}
	defer func() { _ = f.Close() }()

	frame, err := decodeCSV(f, maxRecords)
	if err != nil {
		l.log.Error().Err(err).Str("file", desc.Name).Msg("error loading CSV file")
		return nil, fmt.Errorf("parse csv %s: %w", desc.Name, err)
	}

	l.log.Info().Str("file", desc.Name).Int("rows", frame.RowCount()).Msg("loaded CSV file")
	return frame, nil
}

// decodeCSV reads a header row plus at most maxRecords data rows.
func decodeCSV(r io.Reader, maxRecords int) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}

	frame := &Frame{Columns: header}
	for {
		if maxRecords > 0 && len(frame.Rows) >= maxRecords {
			break
		}
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		frame.Rows = append(frame.Rows, row)
	}
	return frame, nil
}

// -----------------------------------------------------------------------------
// Compressed single-file payloads
// -----------------------------------------------------------------------------

// loadCompressed strips one compression suffix (.gz or .zst), wraps the
// file in the matching decompressor, and re-dispatches on the inner
// extension. Only stream-decodable formats qualify; compressed ZIP or
// Parquet would need random access and stays unsupported.
func (l *Loader) loadCompressed(desc Descriptor, ext string, maxRecords int) (any, error) {
	inner := strings.ToLower(filepath.Ext(strings.TrimSuffix(desc.Name, ext)))
	switch inner {
	case ".json", ".jsonl", ".csv":
	default:
		l.log.Debug().Str("file", desc.Name).Str("extension", ext).Msg("unsupported compressed payload")
		return nil, ErrUnsupportedFormat
	}

	f, err := os.Open(desc.Path)
	if err != nil {
		l.log.Error().Err(err).Str("file", desc.Name).Msg("error loading compressed file")
		return nil, fmt.Errorf("open %s: %w", desc.Name, err)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader
	switch ext {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			l.log.Error().Err(err).Str("file", desc.Name).Msg("error loading compressed file")
			return nil, fmt.Errorf("gzip %s: %w", desc.Name, err)
		}
		defer func() { _ = zr.Close() }()
		r = zr
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			l.log.Error().Err(err).Str("file", desc.Name).Msg("error loading compressed file")
			return nil, fmt.Errorf("zstd %s: %w", desc.Name, err)
		}
		defer zr.Close()
		r = zr
	}

	var data any
	switch inner {
	case ".json":
		data, err = decodeJSON(r, maxRecords)
	case ".jsonl":
		var records []any
		records, err = decodeJSONL(r, maxRecords)
		data = records
	case ".csv":
		data, err = decodeCSV(r, maxRecords)
	}
	if err != nil {
		l.log.Error().Err(err).Str("file", desc.Name).Msg("error loading compressed file")
		return nil, fmt.Errorf("parse %s: %w", desc.Name, err)
	}

	l.log.Info().Str("file", desc.Name).Msg("loaded compressed file")
	return data, nil
}
