// Package extract wires the full metadata pipeline: PNG chunk reading,
// graph resolution, flat-text parsing, and coalescing, with a bounded
// fingerprint-keyed cache in front.
package extract

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/agentic-research/genmeta/api"
	"github.com/agentic-research/genmeta/internal/params"
	"github.com/agentic-research/genmeta/internal/pngchunk"
	"github.com/agentic-research/genmeta/internal/promptgraph"
	"github.com/agentic-research/genmeta/internal/summary"
)

const (
	DefaultCacheMaxEntries = 256
	DefaultCacheTTL        = 10 * time.Minute
)

type Config struct {
	CacheMaxEntries int
	CacheTTL        time.Duration
	// Inflate decompresses compressed iTXt chunks. Nil selects the
	// default zlib inflater.
	Inflate pngchunk.InflateFunc
	Logger  *slog.Logger
}

// Engine owns the extraction pipeline and its cache. Construct one per
// application lifetime and share it; there is no package-level state.
// All methods are safe for concurrent use.
type Engine struct {
	reader *pngchunk.Reader
	cache  *Cache
	logger *slog.Logger
}

func New(cfg Config) *Engine {
	if cfg.CacheMaxEntries <= 0 {
		cfg.CacheMaxEntries = DefaultCacheMaxEntries
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.Inflate == nil {
		cfg.Inflate = pngchunk.Inflate
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Engine{
		reader: &pngchunk.Reader{Inflate: cfg.Inflate, Logger: cfg.Logger},
		cache:  NewCache(cfg.CacheMaxEntries, cfg.CacheTTL),
		logger: cfg.Logger,
	}
}

// Close releases the engine's cached state.
func (e *Engine) Close() {
	e.cache.Clear()
}

// Extract runs the pipeline over raw image bytes. Format-level problems
// degrade the richness of the summary instead of failing it; the only
// error condition is input that is not a PNG container at all.
func (e *Engine) Extract(data []byte) (api.Summary, error) {
	chunks, err := e.reader.Read(data)
	if err != nil {
		return api.Summary{}, fmt.Errorf("read container: %w", err)
	}

	var resolved *promptgraph.Resolved
	if raw, ok := chunks["prompt"]; ok {
		g, perr := promptgraph.ParseGraph([]byte(raw))
		if perr != nil {
			e.logger.Warn("prompt chunk is not a valid graph, falling back to flat sources", "err", perr)
		} else {
			resolved = promptgraph.Resolve(g)
		}
	}

	var p params.Params
	if raw, ok := chunks["parameters"]; ok {
		p = params.Parse(raw)
	}

	return summary.Build(chunks, resolved, p), nil
}

// ExtractCached memoizes Extract under a caller-derived fingerprint.
// Computation happens outside the cache lock, so a hit on one
// fingerprint never waits on another fingerprint's extraction.
func (e *Engine) ExtractCached(fingerprint string, data []byte) (api.Summary, error) {
	return e.cache.GetOrCompute(fingerprint, func() (api.Summary, error) {
		return e.Extract(data)
	})
}
