// Package analysis checks circuits against the gate constraints of a lab.
package analysis

import (
	"context"
	"os"

	"github.com/cse140l/digigrade/gatestats"
	"github.com/cse140l/digigrade/model"
	"github.com/rs/zerolog"
)

// Group is a set of top-level circuits that share one list of gate constraints.
type Group struct {
	TopLevels []string
	Gates     []gatestats.GateConstraint
}

// StatsSource fetches gate statistics for a schematic file.
type StatsSource interface {
	Stats(ctx context.Context, schematic string) (gatestats.Result, error)
}

// Locator maps a top-level circuit name to its schematic path.
type Locator func(topLevel string) string

// Analysis is the outcome of checking every configured group.
type Analysis struct {
	Failures model.AnalysisFailures
	// Circuits whose statistics could not be produced. Their constraints
	// were evaluated against zero gates.
	Unavailable []string
}

// Analyzer evaluates gate constraints. It owns the stats cache of one
// grading run and must not be shared between runs.
type Analyzer struct {
	logger zerolog.Logger
	source StatsSource
	locate Locator
	cache  *Cache
}

// New creates an analyzer with an empty cache.
func New(logger zerolog.Logger, source StatsSource, locate Locator) *Analyzer {
	return &Analyzer{
		logger: logger,
		source: source,
		locate: locate,
		cache:  NewCache(),
	}
}

// Analyze evaluates groups in order. Failures are keyed by circuit name.
func (a *Analyzer) Analyze(ctx context.Context, groups []Group) Analysis {
	result := Analysis{Failures: model.AnalysisFailures{}}
	missing := map[string]bool{}
	unavailable := map[string]bool{}

	for _, group := range groups {
		for _, circuit := range group.TopLevels {
			if err := ctx.Err(); err != nil {
				a.logger.Warn().Err(err).Msg("Analysis interrupted")
				return result
			}

			path := a.locate(circuit)
			if _, err := os.Stat(path); err != nil {
				if !missing[circuit] {
					missing[circuit] = true
					a.logger.Warn().Str("circuit", circuit).Str("path", path).Msg("Circuit not found, skipping analysis")
					result.Failures.Add(circuit, circuit+" not found!")
				}
				continue
			}

			stats := a.stats(ctx, circuit, path)
			if stats.Unavailable && !unavailable[circuit] {
				unavailable[circuit] = true
				result.Unavailable = append(result.Unavailable, circuit)
			}

			for _, gate := range group.Gates {
				count := gatestats.Count(stats.Stats, gate)
				for _, msg := range gate.Violations(count) {
					a.logger.Debug().Str("circuit", circuit).Str("gate", gate.Shape()).Int("count", count).Msg(msg)
					result.Failures.Add(circuit, msg)
				}
			}
		}
	}

	return result
}

func (a *Analyzer) stats(ctx context.Context, circuit, path string) gatestats.Result {
	if res, ok := a.cache.Get(circuit); ok {
		return res
	}

	res, err := a.source.Stats(ctx, path)
	if err != nil {
		a.logger.Error().Err(err).Str("circuit", circuit).Msg("Failed to read gate statistics")
		res = gatestats.Result{Stats: []gatestats.GateStat{}, Unavailable: true}
	}
	if res.Unavailable {
		a.logger.Warn().
			Str("circuit", circuit).
			Msg("Gate statistics unavailable, counting every gate as zero")
	}

	a.cache.Put(circuit, res)
	return res
}
