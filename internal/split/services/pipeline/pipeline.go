// Package pipeline orchestrates one generation run: fetch every configured
// source, parse the bodies into candidate rules, classify each pattern into
// exactly one category, and hand the aggregated rule sets to the emitter.
package pipeline

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/velden/splitgen/internal/split/common/clock"
	"github.com/velden/splitgen/internal/split/common/log"
	"github.com/velden/splitgen/internal/split/domain"
	"github.com/velden/splitgen/internal/split/repos/parsers"
)

// OnError values select the degraded-mode policy for per-source failures.
const (
	OnErrorSkip  = "skip"
	OnErrorAbort = "abort"
)

// fetchConcurrency caps parallel upstream fetches.
const fetchConcurrency = 4

// Pipeline runs the fetch / parse / classify / aggregate sequence.
type Pipeline struct {
	sources   []domain.Source
	fetcher   Fetcher
	cache     ListCache
	overrides Overrides
	emitter   Emitter
	clock     clock.Clock
	logger    log.Logger
	tieBreak  domain.Category
	onError   string
}

// Options configures a Pipeline. Sources, Fetcher, Cache, Overrides and
// Logger are required; a nil Emitter skips the emit stage.
type Options struct {
	Sources   []domain.Source
	Fetcher   Fetcher
	Cache     ListCache
	Overrides Overrides
	Emitter   Emitter
	Clock     clock.Clock
	Logger    log.Logger
	TieBreak  domain.Category
	OnError   string
}

// New validates the options and constructs a Pipeline.
func New(opts Options) (*Pipeline, error) {
	if len(opts.Sources) == 0 {
		return nil, errors.New("pipeline requires at least one source")
	}
	if opts.Fetcher == nil {
		return nil, errors.New("pipeline requires a fetcher")
	}
	if opts.Cache == nil {
		return nil, errors.New("pipeline requires a list cache")
	}
	if opts.Overrides == nil {
		return nil, errors.New("pipeline requires an override repository")
	}
	if opts.Logger == nil {
		return nil, errors.New("pipeline requires a logger")
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	switch opts.TieBreak {
	case domain.CategoryDomestic, domain.CategoryForeign:
	default:
		return nil, fmt.Errorf("tie-break category must be domestic or foreign, got %s", opts.TieBreak)
	}
	switch opts.OnError {
	case OnErrorSkip, OnErrorAbort:
	default:
		return nil, fmt.Errorf("on_error policy must be %q or %q, got %q", OnErrorSkip, OnErrorAbort, opts.OnError)
	}
	return &Pipeline{
		sources:   opts.Sources,
		fetcher:   opts.Fetcher,
		cache:     opts.Cache,
		overrides: opts.Overrides,
		emitter:   opts.Emitter,
		clock:     opts.Clock,
		logger:    opts.Logger,
		tieBreak:  opts.TieBreak,
		onError:   opts.OnError,
	}, nil
}

// Stats summarizes one run for logging and the emitted headers.
type Stats struct {
	SourcesFetched int
	SourcesCached  int
	SourcesSkipped int
	LinesSeen      int
	RulesParsed    int
	Domestic       int
	Foreign        int
}

// Result is the outcome of a run: the two mutually exclusive rule sets plus
// the provenance needed by the emitter.
type Result struct {
	Domestic  *domain.RuleSet
	Foreign   *domain.RuleSet
	Decisions map[string]domain.Decision
	Lists     []domain.SourceList
	Stats     Stats
}

// sourceRules pairs a fetched list with its parsed rules.
type sourceRules struct {
	list  domain.SourceList
	rules []domain.Rule
}

// Run executes one full generation pass. It returns the aggregation result
// even when no emitter is configured, so callers can inspect dry outcomes.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	lists, stats, err := p.fetchAll(ctx)
	if err != nil {
		return nil, err
	}

	parsed, err := p.parseAll(lists, &stats)
	if err != nil {
		return nil, err
	}

	res, err := p.aggregate(p.classify(parsed), lists, stats)
	if err != nil {
		return nil, err
	}

	p.logger.Info(map[string]any{
		"sources_fetched": res.Stats.SourcesFetched,
		"sources_cached":  res.Stats.SourcesCached,
		"sources_skipped": res.Stats.SourcesSkipped,
		"rules_parsed":    res.Stats.RulesParsed,
		"domestic":        res.Stats.Domestic,
		"foreign":         res.Stats.Foreign,
	}, "aggregation complete")

	if p.emitter != nil {
		if err := p.emitter.Emit(ctx, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// fetchAll retrieves every source concurrently. Under the skip policy a
// failed fetch falls back to the list cache, then drops the source; the run
// only fails when nothing at all could be fetched.
func (p *Pipeline) fetchAll(ctx context.Context) ([]domain.SourceList, Stats, error) {
	var stats Stats
	results := make([]*domain.SourceList, len(p.sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, src := range p.sources {
		g.Go(func() error {
			body, err := p.fetcher.Fetch(gctx, src.URL)
			if err != nil {
				if p.onError == OnErrorAbort {
					return err
				}
				return p.fallback(results, i, src, err)
			}

			sum, err := p.cache.Put(src.Name, body, p.clock.Now())
			if err != nil {
				p.logger.Warn(map[string]any{"source": src.Name, "error": err.Error()}, "list cache write failed")
				raw := sha256.Sum256(body)
				sum = hex.EncodeToString(raw[:])
			}
			p.logger.Debug(map[string]any{"source": src.Name, "bytes": len(body), "checksum": sum}, "source fetched")
			results[i] = &domain.SourceList{Source: src, Body: body, Checksum: sum}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	lists := make([]domain.SourceList, 0, len(results))
	for _, r := range results {
		if r == nil {
			stats.SourcesSkipped++
			continue
		}
		if r.FromCache {
			stats.SourcesCached++
		} else {
			stats.SourcesFetched++
		}
		lists = append(lists, *r)
	}
	if len(lists) == 0 {
		return nil, stats, errors.New("every source failed to fetch and none had a cached copy")
	}
	return lists, stats, nil
}

// fallback serves a failed source from the list cache when possible.
func (p *Pipeline) fallback(results []*domain.SourceList, i int, src domain.Source, cause error) error {
	body, entry, ok, err := p.cache.Get(src.Name)
	if err != nil {
		return err
	}
	if !ok {
		p.logger.Warn(map[string]any{"source": src.Name, "error": cause.Error()}, "source skipped, no cached copy")
		return nil
	}
	p.logger.Warn(map[string]any{
		"source":     src.Name,
		"error":      cause.Error(),
		"fetched_at": entry.FetchedUnix,
	}, "fetch failed, using cached copy")
	results[i] = &domain.SourceList{Source: src, Body: body, Checksum: entry.Checksum, FromCache: true}
	return nil
}

// parseAll turns each fetched body into rules using the source's declared
// format, sniffing from the URL when none is declared.
func (p *Pipeline) parseAll(lists []domain.SourceList, stats *Stats) ([]sourceRules, error) {
	now := p.clock.Now()
	out := make([]sourceRules, 0, len(lists))
	for _, list := range lists {
		format := parsers.Format(list.Source.Format)
		if format == "" {
			format = parsers.SniffFormat(list.Source.URL)
		}

		rules, pstats, err := parsers.Parse(format, bytes.NewReader(list.Body), list.Source.Name, p.logger, now)
		if err != nil {
			if p.onError == OnErrorAbort {
				return nil, fmt.Errorf("parsing %s: %w", list.Source.Name, err)
			}
			p.logger.Warn(map[string]any{"source": list.Source.Name, "error": err.Error()}, "source skipped, parse failed")
			stats.SourcesSkipped++
			continue
		}
		stats.LinesSeen += pstats.Lines
		stats.RulesParsed += len(rules)
		out = append(out, sourceRules{list: list, rules: rules})
	}
	if len(out) == 0 {
		return nil, errors.New("no source produced any parseable rules")
	}
	return out, nil
}
