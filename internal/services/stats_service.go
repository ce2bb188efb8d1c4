package services

import (
	"context"
	"fmt"

	"github.com/hanzitools/hanzistats/internal/errors"
	"github.com/hanzitools/hanzistats/internal/logger"
	"github.com/hanzitools/hanzistats/internal/models"
	"github.com/hanzitools/hanzistats/internal/repository"
	"github.com/hanzitools/hanzistats/internal/stats"
)

// StatsService handles Hanzi statistics business logic
type StatsService interface {
	ListDecks(ctx context.Context) ([]models.Deck, error)
	FieldNames(ctx context.Context, deckID int64) ([]string, error)
	Categories() []string
	// Report runs the full pipeline over the given selections and returns
	// the report plus the aggregate snapshot it was computed from. The
	// snapshot supports later Detail calls that stay consistent with the
	// report's counts.
	Report(ctx context.Context, selections []models.Selection, progress stats.ProgressFunc) (*models.Report, models.AggregateResult, error)
	// Detail returns the three-way character partition of one category
	// against an aggregate snapshot.
	Detail(ctx context.Context, category string, result models.AggregateResult) (*models.CategoryBreakdown, error)
}

type statsService struct {
	source repository.DeckDataSource
	cat    stats.Catalog
	policy stats.Policy
}

// NewStatsService creates a new StatsService
func NewStatsService(source repository.DeckDataSource, cat stats.Catalog, policy stats.Policy) StatsService {
	return &statsService{source: source, cat: cat, policy: policy}
}

func (s *statsService) ListDecks(ctx context.Context) ([]models.Deck, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing decks")

	decks, err := s.source.ListDecks(ctx)
	if err != nil {
		log.Error("failed to list decks: %v", err)
		return nil, wrapErr(err)
	}
	return decks, nil
}

func (s *statsService) FieldNames(ctx context.Context, deckID int64) ([]string, error) {
	log := logger.FromContext(ctx)
	log.Debug("fetching field names: deck_id=%d", deckID)

	names, err := s.source.FieldNames(ctx, deckID)
	if err != nil {
		log.Error("failed to fetch field names: %v", err)
		return nil, wrapErr(err)
	}
	return names, nil
}

func (s *statsService) Categories() []string {
	return s.cat.Categories()
}

func (s *statsService) Report(ctx context.Context, selections []models.Selection, progress stats.ProgressFunc) (*models.Report, models.AggregateResult, error) {
	log := logger.FromContext(ctx)
	log.Debug("building report: selections=%d", len(selections))

	for i, sel := range selections {
		if err := sel.Validate(); err != nil {
			log.Warn("invalid selection %d: %v", i, err)
			return nil, models.AggregateResult{}, errors.NewValidationError(fmt.Sprintf("selections[%d]", i), err.Error())
		}
	}

	result, err := stats.Aggregate(ctx, s.source, selections, stats.Options{
		Policy:   s.policy,
		Progress: progress,
	})
	if err != nil {
		log.Error("aggregation failed: %v", err)
		return nil, models.AggregateResult{}, wrapErr(err)
	}

	report := stats.BuildReport(result, s.cat)
	log.Debug("report built: total=%d, reviewed=%d, categories=%d",
		report.Total, report.Reviewed, len(report.Categories))
	return &report, result, nil
}

func (s *statsService) Detail(ctx context.Context, category string, result models.AggregateResult) (*models.CategoryBreakdown, error) {
	log := logger.FromContext(ctx)
	log.Debug("building category detail: category=%s", category)

	breakdown, err := stats.Breakdown(category, result, s.cat)
	if err != nil {
		log.Warn("breakdown failed for %q: %v", category, err)
		return nil, wrapErr(err)
	}
	return &breakdown, nil
}

// wrapErr keeps AppErrors (and cancellations) intact and hides everything
// else behind INTERNAL_ERROR.
func wrapErr(err error) error {
	if _, ok := err.(*errors.AppError); ok {
		return err
	}
	if err == context.Canceled || err == context.DeadlineExceeded {
		return err
	}
	return errors.NewInternalError(err)
}
