package forage

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// sampleRecordsPerFile caps how many records each file (or archive
// member) contributes to Analysis.Samples.
const sampleRecordsPerFile = 2

// Analyzer inspects loaded payloads and infers per-dataset record shape.
//
// Schema inference is deliberately shallow: only the first record of each
// file contributes to DataSchema. Scanning whole files would change the
// output cardinality for existing consumers.
type Analyzer struct {
	log           zerolog.Logger
	archiveSchema bool
}

// NewAnalyzer creates an Analyzer. WithLogger and WithArchiveSchema are
// consulted.
func NewAnalyzer(opts ...Option) *Analyzer {
	cfg := resolveConfig(opts)
	return &Analyzer{log: cfg.Logger, archiveSchema: cfg.ArchiveSchema}
}

// Analyze inspects the target dataset, or all datasets when dataset is
// empty, and returns one Analysis per dataset name.
//
// Files are visited in sorted relative-name order; ordering affects only
// Samples, never the key-set or schema results.
func (a *Analyzer) Analyze(registry Registry, dataset string) map[string]*Analysis {
	if len(registry) == 0 {
		a.log.Warn().Msg("no datasets loaded")
		return map[string]*Analysis{}
	}

	var targets []string
	if dataset != "" {
		targets = []string{dataset}
	} else {
		for name := range registry {
			targets = append(targets, name)
		}
		sort.Strings(targets)
	}

	results := make(map[string]*Analysis, len(targets))
	for _, name := range targets {
		files, ok := registry[name]
		if !ok {
			a.log.Warn().Str("dataset", name).Msg("dataset not found in registry")
			continue
		}
		results[name] = a.analyzeDataset(name, files)
	}
	return results
}

func (a *Analyzer) analyzeDataset(name string, files map[string]*Payload) *Analysis {
	a.log.Info().Str("dataset", name).Msg("analyzing dataset structure")

	analysis := &Analysis{
		FileCount:   len(files),
		RecordTypes: map[string]string{},
		CommonKeys:  map[string]bool{},
		AllKeys:     map[string]bool{},
		Samples:     []any{},
		DataSchema:  map[string]map[TypeTag]bool{},
	}

	var keySets []map[string]bool

	for _, filename := range sortedKeys(files) {
		payload := files[filename]

		switch data := payload.Data.(type) {
		case []any:
			analysis.TotalRecords += len(data)
			analysis.RecordTypes[filename] = fmt.Sprintf("list (%d items)", len(data))

			if first, ok := firstMapping(data); ok {
				keySets = append(keySets, keySet(first))
				analysis.Samples = append(analysis.Samples, head(data, sampleRecordsPerFile)...)
				recordSchema(analysis.DataSchema, first)
			}

		case map[string]any:
			// ZIP contents or a nested JSON object: member sequences are
			// counted and sampled; their fields inform the schema only
			// when archive schema capture is enabled.
			for _, member := range sortedKeys(data) {
				seq, ok := data[member].([]any)
				if !ok || len(seq) == 0 {
					continue
				}
				analysis.TotalRecords += len(seq)
				if first, ok := firstMapping(seq); ok {
					keySets = append(keySets, keySet(first))
					analysis.Samples = append(analysis.Samples, head(seq, sampleRecordsPerFile)...)
					if a.archiveSchema {
						recordSchema(analysis.DataSchema, first)
					}
				}
			}

		case *Frame:
			rows := data.RowCount()
			analysis.TotalRecords += rows
			analysis.RecordTypes[filename] = fmt.Sprintf("dataframe (%dx%d)", rows, len(data.Columns))

			cols := map[string]bool{}
			for _, c := range data.Columns {
				cols[c] = true
			}
			keySets = append(keySets, cols)
			for i := 0; i < rows && i < sampleRecordsPerFile; i++ {
				analysis.Samples = append(analysis.Samples, data.Record(i))
			}
		}
	}

	analysis.CommonKeys = intersect(keySets)
	analysis.AllKeys = union(keySets)

	a.log.Info().Str("dataset", name).
		Int("files", analysis.FileCount).
		Int("records", analysis.TotalRecords).
		Int("common_keys", len(analysis.CommonKeys)).
		Int("unique_keys", len(analysis.AllKeys)).
		Msg("dataset analysis")

	return analysis
}

// Summarize condenses per-dataset analyses into the cross-dataset report
// structure consumed by reporting layers.
func Summarize(analyses map[string]*Analysis) *Summary {
	summary := &Summary{
		TotalDatasets: len(analyses),
		Datasets:      make(map[string]DatasetSummary, len(analyses)),
		AnalyzedAt:    time.Now(),
	}

	for name, analysis := range analyses {
		summary.TotalFiles += analysis.FileCount
		summary.TotalRecords += analysis.TotalRecords

		schema := make(map[string][]TypeTag, len(analysis.DataSchema))
		for field, tags := range analysis.DataSchema {
			list := make([]TypeTag, 0, len(tags))
			for tag := range tags {
				list = append(list, tag)
			}
			sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
			schema[field] = list
		}

		summary.Datasets[name] = DatasetSummary{
			Files:        analysis.FileCount,
			Records:      analysis.TotalRecords,
			CommonKeys:   sortedSet(analysis.CommonKeys),
			SampleSchema: schema,
		}
	}

	return summary
}

// -----------------------------------------------------------------------------
// Set helpers
// -----------------------------------------------------------------------------

func firstMapping(seq []any) (map[string]any, bool) {
	if len(seq) == 0 {
		return nil, false
	}
	m, ok := seq[0].(map[string]any)
	return m, ok
}

func keySet(m map[string]any) map[string]bool {
	set := make(map[string]bool, len(m))
	for k := range m {
		set[k] = true
	}
	return set
}

func recordSchema(schema map[string]map[TypeTag]bool, record map[string]any) {
	for key, value := range record {
		if schema[key] == nil {
			schema[key] = map[TypeTag]bool{}
		}
		schema[key][TagOf(value)] = true
	}
}

func head(seq []any, n int) []any {
	if len(seq) < n {
		n = len(seq)
	}
	return seq[:n]
}

// intersect returns the intersection of all sets, or an empty set when
// none were captured. Never nil.
func intersect(sets []map[string]bool) map[string]bool {
	out := map[string]bool{}
	if len(sets) == 0 {
		return out
	}
	for k := range sets[0] {
		inAll := true
		for _, s := range sets[1:] {
			if !s[k] {
				inAll = false
				break
			}
		}
		if inAll {
			out[k] = true
		}
	}
	return out
}

// union returns the union of all sets. Never nil.
func union(sets []map[string]bool) map[string]bool {
	out := map[string]bool{}
	for _, s := range sets {
		for k := range s {
			out[k] = true
		}
	}
	return out
}

func sortedSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
