package forage

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Discoverer walks dataset root directories and builds descriptors for
// every regular file found.
type Discoverer struct {
	log zerolog.Logger
}

// NewDiscoverer creates a Discoverer. Only WithLogger is consulted.
func NewDiscoverer(opts ...Option) *Discoverer {
	cfg := resolveConfig(opts)
	return &Discoverer{log: cfg.Logger}
}

// Discover walks each dataset root recursively and returns, per dataset,
// the descriptors of every regular file found, in lexical walk order.
//
// A missing root is a warning, not an error: the dataset maps to an empty
// descriptor slice. A traversal failure mid-walk truncates that dataset's
// slice to whatever was found before the failure; other datasets are
// unaffected. Discover never fails as a whole.
func (d *Discoverer) Discover(roots map[string]string) map[string][]Descriptor {
	discovered := make(map[string][]Descriptor, len(roots))

	for dataset, root := range roots {
		d.log.Info().Str("dataset", dataset).Str("path", root).Msg("exploring dataset")

		if _, err := os.Stat(root); err != nil {
			d.log.Warn().Str("dataset", dataset).Str("path", root).Msg("path does not exist")
			discovered[dataset] = []Descriptor{}
			continue
		}

		files := []Descriptor{}
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			desc := Descriptor{
				Name:      filepath.ToSlash(rel),
				Path:      path,
				SizeBytes: info.Size(),
				Ext:       strings.ToLower(filepath.Ext(info.Name())),
				Dataset:   dataset,
			}
			files = append(files, desc)
			d.log.Debug().Str("file", desc.Name).Int64("size", desc.SizeBytes).Msg("found file")
			return nil
		})
		if err != nil {
			// Keep whatever was collected before the failure.
			d.log.Error().Err(err).Str("dataset", dataset).Msg("error exploring dataset")
		}

		d.log.Info().Str("dataset", dataset).Int("files", len(files)).Msg("discovery complete")
		discovered[dataset] = files
	}

	return discovered
}
