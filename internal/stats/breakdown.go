package stats

import (
	"github.com/hanzitools/hanzistats/internal/hanzi"
	"github.com/hanzitools/hanzistats/internal/models"
)

// Catalog is the view of the reference catalog the breakdown engine needs.
// Implemented by catalog.Catalog.
type Catalog interface {
	// Categories returns the registered category names in display order.
	Categories() []string
	// MembersOf returns a category's member set, or NOT_FOUND for an
	// unregistered name. The returned set is read-only.
	MembersOf(name string) (hanzi.Set, error)
	// Unavailable returns the categories whose reference data failed to load.
	Unavailable() []string
}

// Breakdown partitions a category's characters against an aggregate result:
// reviewed, present but unreviewed, and absent from the selected decks. The
// three sets are disjoint and always sum to the category size. Unknown
// category names fail with NOT_FOUND rather than reporting zero counts.
func Breakdown(name string, result models.AggregateResult, cat Catalog) (models.CategoryBreakdown, error) {
	members, err := cat.MembersOf(name)
	if err != nil {
		return models.CategoryBreakdown{}, err
	}

	reviewed := members.Intersect(result.Reviewed)
	presentUnreviewed := members.Intersect(result.Total).Diff(reviewed)
	absent := members.Diff(result.Total)

	return models.CategoryBreakdown{
		Category:          name,
		Reviewed:          reviewed.Strings(),
		PresentUnreviewed: presentUnreviewed.Strings(),
		Absent:            absent.Strings(),
		CategorySize:      members.Len(),
	}, nil
}

// Summarize computes the per-category count rows for the report table.
// PresentCount covers every category character observed in the decks,
// reviewed or not; absent characters are excluded from it.
func Summarize(names []string, result models.AggregateResult, cat Catalog) ([]models.CategorySummary, error) {
	summaries := make([]models.CategorySummary, 0, len(names))
	for _, name := range names {
		members, err := cat.MembersOf(name)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, models.CategorySummary{
			Name:          name,
			ReviewedCount: members.Intersect(result.Reviewed).Len(),
			PresentCount:  members.Intersect(result.Total).Len(),
			CategorySize:  members.Len(),
		})
	}
	return summaries, nil
}

// BuildReport assembles the full report for an aggregate result across every
// registered category. Categories whose reference data failed to load are
// listed as unavailable; their rows are present with zero counts.
func BuildReport(result models.AggregateResult, cat Catalog) models.Report {
	// Every name comes from the catalog itself, so Summarize cannot miss.
	summaries, _ := Summarize(cat.Categories(), result, cat)
	return models.Report{
		Total:            result.Total.Len(),
		Reviewed:         result.Reviewed.Len(),
		Categories:       summaries,
		Unavailable:      cat.Unavailable(),
		FailedSelections: len(result.Failed),
	}
}
