package forage

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
)

// loadParquet reads a Parquet file into a sequence of map records,
// honoring the record cap.
func (l *Loader) loadParquet(desc Descriptor, maxRecords int) (any, error) {
	f, err := os.Open(desc.Path)
	if err != nil {
		l.log.Error().Err(err).Str("file", desc.Name).Msg("error loading Parquet file")
		return nil, fmt.Errorf("open %s: %w", desc.Name, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		l.log.Error().Err(err).Str("file", desc.Name).Msg("error loading Parquet file")
		return nil, fmt.Errorf("stat %s: %w", desc.Name, err)
	}

	records, err := decodeParquet(f, info.Size(), maxRecords)
	if err != nil {
		l.log.Error().Err(err).Str("file", desc.Name).Msg("error loading Parquet file")
		return nil, fmt.Errorf("parse parquet %s: %w", desc.Name, err)
	}

	l.log.Info().Str("file", desc.Name).Int("records", len(records)).Msg("loaded Parquet file")
	return records, nil
}

func decodeParquet(r io.ReaderAt, size int64, maxRecords int) ([]any, error) {
	file, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, err
	}

	// Leaf values arrive in schema field order; flat dataset schemas map
	// one leaf per field.
	fields := file.Schema().Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name()
	}

	reader := parquet.NewReader(file)
	defer func() { _ = reader.Close() }()

	records := []any{}
	rows := make([]parquet.Row, 100)
	for {
		if maxRecords > 0 && len(records) >= maxRecords {
			break
		}
		n, err := reader.ReadRows(rows)
		for i := 0; i < n; i++ {
			if maxRecords > 0 && len(records) >= maxRecords {
				break
			}
			records = append(records, parquetRecord(rows[i], names))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
	}
	return records, nil
}

func parquetRecord(row parquet.Row, names []string) map[string]any {
	record := make(map[string]any, len(names))
	for i, name := range names {
		if i >= len(row) {
			continue
		}
		val := row[i]
		if val.IsNull() {
			record[name] = nil
			continue
		}
		record[name] = parquetValue(val)
	}
	return record
}

func parquetValue(val parquet.Value) any {
	switch val.Kind() {
	case parquet.Boolean:
		return val.Boolean()
	case parquet.Int32:
		return int64(val.Int32())
	case parquet.Int64:
		return val.Int64()
	case parquet.Float:
		return float64(val.Float())
	case parquet.Double:
		return val.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(val.ByteArray())
	default:
		return val.String()
	}
}
