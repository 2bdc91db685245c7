package forage

import (
	"archive/zip"
	"fmt"
	"path"
	"strings"
)

// loadZip opens the archive and parses every data-bearing member.
//
// Only .json and .jsonl members are considered; anything else (docs,
// images, checksums) is skipped without logging, since archives commonly
// bundle non-data files. A member that fails to parse is logged as a
// warning and omitted from the result; it never aborts the archive.
// The result maps member name to its parsed content. Only a failure to
// open the archive itself fails the load.
func (l *Loader) loadZip(desc Descriptor, maxRecords int) (any, error) {
	r, err := zip.OpenReader(desc.Path)
	if err != nil {
		l.log.Error().Err(err).Str("file", desc.Name).Msg("error processing ZIP file")
		return nil, fmt.Errorf("open zip %s: %w", desc.Name, err)
	}
	defer func() { _ = r.Close() }()

	l.log.Info().Str("file", desc.Name).Int("members", len(r.File)).Msg("opened ZIP file")

	contents := map[string]any{}
	for _, member := range r.File {
		if member.FileInfo().IsDir() || strings.HasSuffix(member.Name, "/") {
			continue
		}

		ext := strings.ToLower(path.Ext(member.Name))
		if ext != ".json" && ext != ".jsonl" {
			continue
		}

		data, err := l.loadZipMember(member, ext, maxRecords)
		if err != nil {
			l.log.Warn().Err(err).Str("file", desc.Name).Str("member", member.Name).
				Msg("could not load ZIP member")
			continue
		}
		contents[member.Name] = data
		l.log.Debug().Str("member", member.Name).Msg("loaded from ZIP")
	}

	l.log.Info().Str("file", desc.Name).Msg("processed ZIP file")
	return contents, nil
}

// loadZipMember parses one member with the same truncation rules as the
// member extension's standalone loader.
func (l *Loader) loadZipMember(member *zip.File, ext string, maxRecords int) (any, error) {
	rc, err := member.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	switch ext {
	case ".json":
		return decodeJSON(rc, maxRecords)
	default: // ".jsonl"
		records, err := decodeJSONL(rc, maxRecords)
		if err != nil {
			return nil, err
		}
		return records, nil
	}
}
