package stats

import (
	"context"
	"strings"

	"github.com/hanzitools/hanzistats/internal/errors"
	"github.com/hanzitools/hanzistats/internal/logger"
	"github.com/hanzitools/hanzistats/internal/models"
	"github.com/hanzitools/hanzistats/internal/repository"
)

// Policy controls how aggregation reacts when a selection's observations
// cannot be fetched.
type Policy int

const (
	// BestEffort skips failed selections and reports a partial result.
	BestEffort Policy = iota
	// FailFast aborts the whole aggregation on the first failed selection.
	FailFast
)

// ParsePolicy parses a configuration string into a Policy, defaulting to
// best-effort.
func ParsePolicy(s string) Policy {
	if strings.EqualFold(s, "fail_fast") {
		return FailFast
	}
	return BestEffort
}

// ProgressFunc receives aggregation progress as selections complete.
type ProgressFunc func(done, total int)

// Options configures one aggregation run.
type Options struct {
	Policy   Policy
	Progress ProgressFunc
}

// Aggregate merges the observations of every selection into one result.
// Total is the union of all observed characters; Reviewed is the union of
// characters reviewed in at least one contributing selection, so Reviewed is
// always a subset of Total. Overlapping selections union cleanly: a
// character never counts twice, and reviewed-in-any wins. Zero selections
// yield an empty result, not an error.
//
// The result depends only on the selection set and the data source, never on
// selection order. Cancellation is honored between selections.
func Aggregate(ctx context.Context, source repository.DeckDataSource, selections []models.Selection, opts Options) (models.AggregateResult, error) {
	log := logger.FromContext(ctx).WithPrefix("aggregator")

	result := models.NewAggregateResult()
	total := len(selections)
	if opts.Progress != nil {
		opts.Progress(0, total)
	}

	for i, sel := range selections {
		if err := ctx.Err(); err != nil {
			log.Debug("aggregation cancelled after %d/%d selections", i, total)
			return result, err
		}

		obs, err := source.Observe(ctx, sel)
		if err != nil {
			if opts.Policy == FailFast {
				log.Error("selection failed, aborting aggregation: deck_id=%d: %v", sel.DeckID, err)
				return models.NewAggregateResult(), errors.NewUnavailableError(err)
			}
			log.Warn("selection failed, continuing without it: deck_id=%d: %v", sel.DeckID, err)
			result.Failed = append(result.Failed, sel)
			continue
		}

		for _, o := range obs {
			result.Total.Add(o.Char)
			if o.Reviewed {
				result.Reviewed.Add(o.Char)
			}
		}

		if opts.Progress != nil {
			opts.Progress(i+1, total)
		}
	}

	log.Debug("aggregated %d selections: total=%d, reviewed=%d, failed=%d",
		total, result.Total.Len(), result.Reviewed.Len(), len(result.Failed))
	return result, nil
}
