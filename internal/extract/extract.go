// Package extract implements the one-off archive pre-extraction pass
// that runs before discovery: every .zip found at the top level of a raw
// input folder is extracted into its own subdirectory of the output
// path, so the core pipeline can walk plain files.
package extract

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// ErrInvalidMemberPath indicates an archive member whose path would
// escape the extraction directory.
var ErrInvalidMemberPath = errors.New("invalid member path: escapes extraction directory")

// Extractor unpacks top-level archives from raw input folders.
type Extractor struct {
	outputDir string
	log       zerolog.Logger
}

// New creates an Extractor that unpacks into outputDir, one
// subdirectory per archive, named after the archive's stem.
func New(outputDir string, log zerolog.Logger) *Extractor {
	return &Extractor{outputDir: outputDir, log: log}
}

// Run scans each folder for top-level .zip files and extracts any that
// have not been extracted yet. Already-extracted archives are skipped by
// destination presence; corrupt archives are logged and skipped. Run
// itself never fails: it returns the number of archives extracted.
func (e *Extractor) Run(folders []string) int {
	extracted := 0
	for _, folder := range folders {
		if _, err := os.Stat(folder); err != nil {
			e.log.Warn().Str("folder", folder).Msg("folder does not exist")
			continue
		}

		entries, err := os.ReadDir(folder)
		if err != nil {
			e.log.Error().Err(err).Str("folder", folder).Msg("error reading folder")
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".zip") {
				continue
			}

			archive := filepath.Join(folder, entry.Name())
			stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
			dest := filepath.Join(e.outputDir, stem)

			if _, err := os.Stat(dest); err == nil {
				e.log.Info().Str("archive", entry.Name()).Msg("skipping extraction (already exists)")
				continue
			}

			if err := extractArchive(archive, dest); err != nil {
				e.log.Error().Err(err).Str("archive", entry.Name()).Msg("corrupted or unreadable zip file")
				continue
			}
			e.log.Info().Str("archive", entry.Name()).Str("dest", dest).Msg("extracted")
			extracted++
		}
	}
	return extracted
}

func extractArchive(archive, dest string) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	for _, member := range r.File {
		if err := extractMember(member, dest); err != nil {
			return err
		}
	}
	return nil
}

func extractMember(member *zip.File, dest string) error {
	target, err := safeMemberPath(dest, member.Name)
	if err != nil {
		return err
	}

	if member.FileInfo().IsDir() || strings.HasSuffix(member.Name, "/") {
		return os.MkdirAll(target, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	rc, err := member.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	_, err = io.Copy(out, rc)
	return err
}

// safeMemberPath resolves a member name under dest, rejecting absolute
// paths and any path that would escape the extraction directory.
func safeMemberPath(dest, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) {
		return "", ErrInvalidMemberPath
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", ErrInvalidMemberPath
	}
	return filepath.Join(dest, cleaned), nil
}
