package forage

import (
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
)

// writeFile writes content under dir and returns a descriptor the way
// discovery would have produced it.
func writeFile(t *testing.T, dir, name, content string) Descriptor {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	return Descriptor{
		Name:      name,
		Path:      path,
		SizeBytes: info.Size(),
		Ext:       strings.ToLower(filepath.Ext(name)),
		Dataset:   "test",
	}
}

func testLoader() *Loader {
	return NewLoader(WithLogger(zerolog.Nop()))
}

// -----------------------------------------------------------------------------
// Size floor and dispatch
// -----------------------------------------------------------------------------

func TestLoader_Load_SkipsSmallFiles(t *testing.T) {
	dir := t.TempDir()
	l := testLoader()

	// Below 50 bytes every extension is skipped, even valid content.
	for _, name := range []string{"tiny.json", "tiny.jsonl", "tiny.csv", "tiny.zip", "tiny.xyz"} {
		desc := writeFile(t, dir, name, `{"a":1}`)
		if desc.SizeBytes >= minLoadableSize {
			t.Fatalf("test content too large: %d bytes", desc.SizeBytes)
		}
		_, err := l.Load(desc, 0)
		if !errors.Is(err, ErrFileTooSmall) {
			t.Errorf("%s: expected ErrFileTooSmall, got %v", name, err)
		}
	}
}

func TestLoader_Load_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	l := testLoader()

	desc := writeFile(t, dir, "readme.txt", strings.Repeat("notes about the dataset\n", 5))
	_, err := l.Load(desc, 0)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}

	desc = writeFile(t, dir, "noext", strings.Repeat("x", 60))
	_, err = l.Load(desc, 0)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("no extension: expected ErrUnsupportedFormat, got %v", err)
	}
}

// -----------------------------------------------------------------------------
// JSON
// -----------------------------------------------------------------------------

func jsonArrayOfInts(n int) string {
	var b strings.Builder
	b.WriteString("[\n")
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",\n")
		}
		b.WriteString("    ")
		b.WriteByte(byte('0' + i%10))
	}
	b.WriteString("\n]\n")
	return b.String()
}

func TestLoader_LoadJSON_ArrayTruncation(t *testing.T) {
	dir := t.TempDir()
	l := testLoader()

	desc := writeFile(t, dir, "nums.json", jsonArrayOfInts(10))
	data, err := l.Load(desc, 3)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	arr, ok := data.([]any)
	if !ok {
		t.Fatalf("expected []any, got %T", data)
	}
	if len(arr) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(arr))
	}
	for i, want := range []float64{0, 1, 2} {
		if arr[i] != want {
			t.Errorf("element %d: expected %v, got %v", i, want, arr[i])
		}
	}
}

func TestLoader_LoadJSON_ObjectNotTruncated(t *testing.T) {
	dir := t.TempDir()
	l := testLoader()

	content := `{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5, "label": "not a list"}`
	desc := writeFile(t, dir, "obj.json", content)
	data, err := l.Load(desc, 3)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	obj, ok := data.(map[string]any)
	if !ok {
		t.Fatalf("expected map[string]any, got %T", data)
	}
	if len(obj) != 6 {
		t.Errorf("expected full object with 6 keys, got %d", len(obj))
	}
}

func TestLoader_LoadJSON_ParseFailure(t *testing.T) {
	dir := t.TempDir()
	l := testLoader()

	desc := writeFile(t, dir, "bad.json", strings.Repeat("{not json at all}", 5))
	if _, err := l.Load(desc, 0); err == nil {
		t.Fatal("expected parse error, got nil")
	}
}

// -----------------------------------------------------------------------------
// JSONL
// -----------------------------------------------------------------------------

// pad widens a line with trailing spaces so small fixtures clear the
// size floor without changing their parsed value.
func pad(line string) string {
	return line + strings.Repeat(" ", 20)
}

func TestLoader_LoadJSONL_AllLines(t *testing.T) {
	dir := t.TempDir()
	l := testLoader()

	content := pad(`{"a": 1}`) + "\n" + pad(`{"a": 2}`) + "\n" + pad(`{"a": 3}`) + "\n"
	desc := writeFile(t, dir, "recs.jsonl", content)
	data, err := l.Load(desc, 0)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	records := data.([]any)
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
}

func TestLoader_LoadJSONL_CapIsLineIndexed(t *testing.T) {
	dir := t.TempDir()
	l := testLoader()

	// The cap counts consumed lines, not emitted records: the blank line
	// at index 1 spends budget, so with a cap of 2 reading stops before
	// line index 2 and only the first record is emitted.
	content := pad(`{"a": 1}`) + "\n" + pad("") + "\n" + pad(`{"a": 2}`) + "\n" + pad(`{"a": 3}`) + "\n"
	desc := writeFile(t, dir, "gaps.jsonl", content)
	data, err := l.Load(desc, 2)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	records := data.([]any)
	if len(records) != 1 {
		t.Fatalf("expected 1 record (line index cap), got %d", len(records))
	}
	first := records[0].(map[string]any)
	if first["a"] != float64(1) {
		t.Errorf("expected a=1, got %v", first["a"])
	}
}

func TestLoader_LoadJSONL_BlankLinesEmitNothing(t *testing.T) {
	dir := t.TempDir()
	l := testLoader()

	content := pad(`{"a": 1}`) + "\n" + pad("") + "\n" + pad(`{"a": 2}`) + "\n"
	desc := writeFile(t, dir, "blank.jsonl", content)
	data, err := l.Load(desc, 0)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	records := data.([]any)
	if len(records) != 2 {
		t.Fatalf("expected 2 records with uncapped read, got %d", len(records))
	}
}

func TestLoader_LoadJSONL_MalformedLineAbortsFile(t *testing.T) {
	dir := t.TempDir()
	l := testLoader()

	content := pad(`{"a": 1}`) + "\n" + pad(`{oops`) + "\n" + pad(`{"a": 2}`) + "\n"
	desc := writeFile(t, dir, "broken.jsonl", content)
	if _, err := l.Load(desc, 0); err == nil {
		t.Fatal("expected parse error for malformed line, got nil")
	}
}

// -----------------------------------------------------------------------------
// CSV
// -----------------------------------------------------------------------------

func TestLoader_LoadCSV_HeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	l := testLoader()

	content := "species,cap_diameter,poisonous\namanita,8.2,true\nboletus,12.0,false\n"
	desc := writeFile(t, dir, "shrooms.csv", content)
	data, err := l.Load(desc, 0)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	frame, ok := data.(*Frame)
	if !ok {
		t.Fatalf("expected *Frame, got %T", data)
	}
	if len(frame.Columns) != 3 || frame.Columns[0] != "species" {
		t.Errorf("unexpected columns: %v", frame.Columns)
	}
	if frame.RowCount() != 2 {
		t.Fatalf("expected 2 rows, got %d", frame.RowCount())
	}

	rec := frame.Record(0)
	if rec["species"] != "amanita" {
		t.Errorf("expected species=amanita, got %v", rec["species"])
	}
	if rec["cap_diameter"] != 8.2 {
		t.Errorf("expected cap_diameter=8.2, got %v", rec["cap_diameter"])
	}
	if rec["poisonous"] != true {
		t.Errorf("expected poisonous=true, got %v", rec["poisonous"])
	}
}

func TestLoader_LoadCSV_RowCap(t *testing.T) {
	dir := t.TempDir()
	l := testLoader()

	var b strings.Builder
	b.WriteString("id,value\n")
	for i := 0; i < 10; i++ {
		b.WriteString("row,")
		b.WriteByte(byte('0' + i))
		b.WriteString("\n")
	}
	desc := writeFile(t, dir, "many.csv", b.String())
	data, err := l.Load(desc, 4)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := data.(*Frame).RowCount(); got != 4 {
		t.Errorf("expected 4 rows, got %d", got)
	}
}

func TestLoader_LoadCSV_MalformedFails(t *testing.T) {
	dir := t.TempDir()
	l := testLoader()

	// Ragged rows violate the header's field count.
	content := "a,b,c\n1,2,3\n4,5\n6,7,8\n" + strings.Repeat("# pad\n", 5)
	desc := writeFile(t, dir, "ragged.csv", content)
	if _, err := l.Load(desc, 0); err == nil {
		t.Fatal("expected error for ragged csv, got nil")
	}
}

// -----------------------------------------------------------------------------
// Compressed payloads
// -----------------------------------------------------------------------------

func writeCompressed(t *testing.T, dir, name string, compress func(*os.File) error) Descriptor {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := compress(f); err != nil {
		t.Fatalf("compress failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	return Descriptor{
		Name:      name,
		Path:      path,
		SizeBytes: info.Size(),
		Ext:       strings.ToLower(filepath.Ext(name)),
		Dataset:   "test",
	}
}

func jsonlFixture(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString(`{"idx": `)
		b.WriteByte(byte('0' + i%10))
		b.WriteString(`, "note": "record padding for compression"}` + "\n")
	}
	return b.String()
}

func TestLoader_LoadCompressed_GzipJSONL(t *testing.T) {
	dir := t.TempDir()
	l := testLoader()

	desc := writeCompressed(t, dir, "recs.jsonl.gz", func(f *os.File) error {
		zw := gzip.NewWriter(f)
		if _, err := zw.Write([]byte(jsonlFixture(20))); err != nil {
			return err
		}
		return zw.Close()
	})

	data, err := l.Load(desc, 5)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	records := data.([]any)
	if len(records) != 5 {
		t.Fatalf("expected 5 records, got %d", len(records))
	}
}

func TestLoader_LoadCompressed_ZstdJSONL(t *testing.T) {
	dir := t.TempDir()
	l := testLoader()

	desc := writeCompressed(t, dir, "recs.jsonl.zst", func(f *os.File) error {
		zw, err := zstd.NewWriter(f)
		if err != nil {
			return err
		}
		if _, err := zw.Write([]byte(jsonlFixture(20))); err != nil {
			return err
		}
		return zw.Close()
	})

	data, err := l.Load(desc, 0)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := len(data.([]any)); got != 20 {
		t.Fatalf("expected 20 records, got %d", got)
	}
}

func TestLoader_LoadCompressed_UnknownInnerExtension(t *testing.T) {
	dir := t.TempDir()
	l := testLoader()

	desc := writeCompressed(t, dir, "blob.bin.gz", func(f *os.File) error {
		// Incompressible payload so the .gz file clears minLoadableSize
		// and the unknown-inner-extension path is actually exercised.
		payload := make([]byte, 256)
		for i := range payload {
			payload[i] = byte(i)
		}
		zw := gzip.NewWriter(f)
		if _, err := zw.Write(payload); err != nil {
			return err
		}
		return zw.Close()
	})

	if _, err := l.Load(desc, 0); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}
