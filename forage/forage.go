package forage

// Pipeline composes the four ingestion stages: discovery, format
// loading, registry aggregation, and schema analysis. Data flows
// strictly forward; no stage calls back upstream.
//
// Pipelines are single-threaded and fully synchronous: each stage runs
// to completion before the next begins, and no handle outlives the load
// call that opened it.
type Pipeline struct {
	cfg      Config
	disc     *Discoverer
	loader   *Loader
	analyzer *Analyzer

	files    map[string][]Descriptor
	registry Registry
}

// New creates a pipeline over the given dataset roots. A nil basePaths
// falls back to DefaultBasePaths().
func New(basePaths map[string]string, opts ...Option) *Pipeline {
	cfg := resolveConfig(opts)
	if basePaths != nil {
		cfg.BasePaths = basePaths
	}

	shared := []Option{
		WithLogger(cfg.Logger),
		WithArchiveSchema(cfg.ArchiveSchema),
	}
	return &Pipeline{
		cfg:      cfg,
		disc:     NewDiscoverer(shared...),
		loader:   NewLoader(shared...),
		analyzer: NewAnalyzer(shared...),
	}
}

// Discover walks the configured roots and caches the resulting file
// registry. Repeated calls re-walk.
func (p *Pipeline) Discover() map[string][]Descriptor {
	p.files = p.disc.Discover(p.cfg.BasePaths)
	return p.files
}

// LoadAll loads every discovered file, discovering first if needed, and
// caches the resulting registry.
func (p *Pipeline) LoadAll() Registry {
	if p.files == nil {
		p.Discover()
	}
	p.registry = LoadAll(p.loader, p.files, p.cfg.MaxRecords)
	return p.registry
}

// Analyze runs schema analysis over loaded payloads, honoring the
// configured dataset filter. Loads first if needed.
func (p *Pipeline) Analyze() map[string]*Analysis {
	if p.registry == nil {
		p.LoadAll()
	}
	return p.analyzer.Analyze(p.registry, p.cfg.Dataset)
}

// Summary runs the full pipeline and returns the cross-dataset report.
func (p *Pipeline) Summary() *Summary {
	return Summarize(p.Analyze())
}

// Registry returns the loaded registry, or nil before LoadAll.
func (p *Pipeline) Registry() Registry {
	return p.registry
}
