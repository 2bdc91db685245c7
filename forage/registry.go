package forage

import (
	"time"
)

// LoadAll invokes the loader for every discovered descriptor and
// aggregates successful payloads per dataset, keyed by relative name and
// stamped with the load time.
//
// A dataset whose files all fail (or that has no files) still appears in
// the registry with an empty mapping. Failures never cross dataset
// boundaries; per-dataset success counts are logged.
func LoadAll(l *Loader, files map[string][]Descriptor, maxRecords int) Registry {
	l.log.Info().Msg("starting dataset loading")

	registry := make(Registry, len(files))
	for dataset, descs := range files {
		l.log.Info().Str("dataset", dataset).Msg("loading dataset")

		loaded := map[string]*Payload{}
		for _, desc := range descs {
			data, err := l.Load(desc, maxRecords)
			if err != nil {
				continue
			}
			loaded[desc.Name] = &Payload{
				Data:     data,
				Source:   desc,
				LoadedAt: time.Now(),
			}
		}

		registry[dataset] = loaded
		l.log.Info().Str("dataset", dataset).
			Int("loaded", len(loaded)).Int("total", len(descs)).
			Msg("dataset loaded")
	}

	return registry
}
