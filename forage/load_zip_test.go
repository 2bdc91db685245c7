package forage

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeZip builds an archive from member name to raw content and returns
// its descriptor.
func writeZip(t *testing.T, dir, name string, members map[string]string) Descriptor {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	zw := zip.NewWriter(f)
	for member, content := range members {
		w, err := zw.Create(member)
		if err != nil {
			t.Fatalf("zip Create failed: %v", err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip Write failed: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip Close failed: %v", err)
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
		Ext:       ".zip",
		Dataset:   "test",
	}
}

func TestLoader_LoadZip_DataMembers(t *testing.T) {
	dir := t.TempDir()
	l := testLoader()

	desc := writeZip(t, dir, "bundle.zip", map[string]string{
		"train.jsonl": `{"id": 1}` + "\n" + `{"id": 2}` + "\n",
		"labels.json": `[{"id": 1, "label": "edible"}, {"id": 2, "label": "toxic"}]`,
		"README.md":   "documentation, not data",
		"image.png":   "\x89PNG fake bytes",
		"nested/dir/": "",
		"notes.txt":   "ignored",
	})

	data, err := l.Load(desc, 0)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	contents, ok := data.(map[string]any)
	if !ok {
		t.Fatalf("expected map[string]any, got %T", data)
	}
	if len(contents) != 2 {
		t.Fatalf("expected 2 data members, got %d (%v)", len(contents), contents)
	}

	train := contents["train.jsonl"].([]any)
	if len(train) != 2 {
		t.Errorf("train.jsonl: expected 2 records, got %d", len(train))
	}
	labels := contents["labels.json"].([]any)
	if len(labels) != 2 {
		t.Errorf("labels.json: expected 2 records, got %d", len(labels))
	}
}

func TestLoader_LoadZip_CorruptMemberOmitted(t *testing.T) {
	dir := t.TempDir()
	l := testLoader()

	desc := writeZip(t, dir, "mixed.zip", map[string]string{
		"good.jsonl": `{"id": 1}` + "\n" + `{"id": 2}` + "\n" + `{"id": 3}` + "\n",
		"bad.json":   `{definitely not json`,
	})

	data, err := l.Load(desc, 0)
	if err != nil {
		t.Fatalf("expected archive-level success, got %v", err)
	}

	contents := data.(map[string]any)
	if _, present := contents["bad.json"]; present {
		t.Error("corrupt member should be absent from the result")
	}
	good, present := contents["good.jsonl"]
	if !present {
		t.Fatal("valid member missing from result")
	}
	if got := len(good.([]any)); got != 3 {
		t.Errorf("expected 3 records in valid member, got %d", got)
	}
}

func TestLoader_LoadZip_MemberTruncation(t *testing.T) {
	dir := t.TempDir()
	l := testLoader()

	var lines strings.Builder
	for i := 0; i < 10; i++ {
		lines.WriteString(`{"n": `)
		lines.WriteByte(byte('0' + i))
		lines.WriteString("}\n")
	}
	desc := writeZip(t, dir, "caps.zip", map[string]string{
		"seq.jsonl": lines.String(),
		"arr.json":  `[{"n": 0}, {"n": 1}, {"n": 2}, {"n": 3}, {"n": 4}]`,
	})

	data, err := l.Load(desc, 3)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	contents := data.(map[string]any)
	if got := len(contents["seq.jsonl"].([]any)); got != 3 {
		t.Errorf("jsonl member: expected 3 records, got %d", got)
	}
	if got := len(contents["arr.json"].([]any)); got != 3 {
		t.Errorf("json member: expected 3 records, got %d", got)
	}
}

func TestLoader_LoadZip_CorruptArchiveFails(t *testing.T) {
	dir := t.TempDir()
	l := testLoader()

	desc := writeFile(t, dir, "broken.zip", strings.Repeat("this is not a zip archive", 4))
	if _, err := l.Load(desc, 0); err == nil {
		t.Fatal("expected error for corrupt archive, got nil")
	}
}
