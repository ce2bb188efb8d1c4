package stats_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hanzitools/hanzistats/internal/errors"
	"github.com/hanzitools/hanzistats/internal/hanzi"
	"github.com/hanzitools/hanzistats/internal/models"
	"github.com/hanzitools/hanzistats/internal/stats"
)

// stubCatalog backs breakdown tests with hand-built categories.
type stubCatalog struct {
	order       []string
	members     map[string]hanzi.Set
	unavailable []string
}

func (s *stubCatalog) Categories() []string { return s.order }

func (s *stubCatalog) MembersOf(name string) (hanzi.Set, error) {
	members, ok := s.members[name]
	if !ok {
		return nil, apperrors.NewNotFoundError("category", name)
	}
	return members, nil
}

func (s *stubCatalog) Unavailable() []string { return s.unavailable }

func result(total, reviewed hanzi.Set) models.AggregateResult {
	return models.AggregateResult{Total: total, Reviewed: reviewed}
}

func TestBreakdown_ThreeWayPartition(t *testing.T) {
	cat := &stubCatalog{
		order:   []string{"TestBand"},
		members: map[string]hanzi.Set{"TestBand": hanzi.NewSet('安', '波', '次')},
	}
	// Deck has 安 (reviewed), 波 (unreviewed) and 东 (outside the category);
	// 次 was never seen.
	res := result(hanzi.NewSet('安', '波', '东'), hanzi.NewSet('安'))

	breakdown, err := stats.Breakdown("TestBand", res, cat)

	require.NoError(t, err)
	assert.Equal(t, "TestBand", breakdown.Category)
	assert.Equal(t, []string{"安"}, breakdown.Reviewed)
	assert.Equal(t, []string{"波"}, breakdown.PresentUnreviewed)
	assert.Equal(t, []string{"次"}, breakdown.Absent)
	assert.Equal(t, 3, breakdown.CategorySize)
}

func TestBreakdown_UnknownCategory(t *testing.T) {
	cat := &stubCatalog{members: map[string]hanzi.Set{}}

	_, err := stats.Breakdown("Missing", result(hanzi.NewSet(), hanzi.NewSet()), cat)

	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeNotFound, appErr.Code)
}

func TestBreakdown_EmptyResult(t *testing.T) {
	cat := &stubCatalog{
		order:   []string{"TestBand"},
		members: map[string]hanzi.Set{"TestBand": hanzi.NewSet('安', '波')},
	}

	breakdown, err := stats.Breakdown("TestBand", result(hanzi.NewSet(), hanzi.NewSet()), cat)

	require.NoError(t, err)
	assert.Empty(t, breakdown.Reviewed)
	assert.Empty(t, breakdown.PresentUnreviewed)
	assert.Equal(t, []string{"安", "波"}, breakdown.Absent)
}

func TestBreakdown_PartitionCompleteness(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	chars := []rune("你好吗再见学习汉字统计频率常用")

	for trial := 0; trial < 50; trial++ {
		members := hanzi.NewSet()
		total := hanzi.NewSet()
		reviewed := hanzi.NewSet()
		for _, char := range chars {
			if rng.Intn(2) == 0 {
				members.Add(char)
			}
			if rng.Intn(2) == 0 {
				total.Add(char)
				if rng.Intn(2) == 0 {
					reviewed.Add(char)
				}
			}
		}

		cat := &stubCatalog{members: map[string]hanzi.Set{"C": members}}
		breakdown, err := stats.Breakdown("C", result(total, reviewed), cat)
		require.NoError(t, err)

		sum := len(breakdown.Reviewed) + len(breakdown.PresentUnreviewed) + len(breakdown.Absent)
		assert.Equal(t, members.Len(), sum, "trial %d: partition must sum exactly to category size", trial)
	}
}

func TestSummarize_CountsExcludeAbsent(t *testing.T) {
	cat := &stubCatalog{
		order: []string{"A", "B"},
		members: map[string]hanzi.Set{
			"A": hanzi.NewSet('安', '波', '次'),
			"B": hanzi.NewSet('东'),
		},
	}
	res := result(hanzi.NewSet('安', '波', '东'), hanzi.NewSet('安', '东'))

	summaries, err := stats.Summarize([]string{"A", "B"}, res, cat)

	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, models.CategorySummary{Name: "A", ReviewedCount: 1, PresentCount: 2, CategorySize: 3}, summaries[0])
	assert.Equal(t, models.CategorySummary{Name: "B", ReviewedCount: 1, PresentCount: 1, CategorySize: 1}, summaries[1])
}

func TestSummarize_UnknownCategory(t *testing.T) {
	cat := &stubCatalog{members: map[string]hanzi.Set{}}

	_, err := stats.Summarize([]string{"Missing"}, result(hanzi.NewSet(), hanzi.NewSet()), cat)

	assert.Error(t, err)
}

func TestBuildReport(t *testing.T) {
	cat := &stubCatalog{
		order: []string{"A", "B"},
		members: map[string]hanzi.Set{
			"A": hanzi.NewSet('安', '波'),
			"B": hanzi.NewSet(),
		},
		unavailable: []string{"B"},
	}
	res := models.AggregateResult{
		Total:    hanzi.NewSet('安', '东'),
		Reviewed: hanzi.NewSet('安'),
		Failed:   []models.Selection{{DeckID: 9}},
	}

	report := stats.BuildReport(res, cat)

	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Reviewed)
	require.Len(t, report.Categories, 2)
	assert.Equal(t, "A", report.Categories[0].Name)
	assert.Equal(t, 1, report.Categories[0].ReviewedCount)
	assert.Equal(t, 1, report.Categories[0].PresentCount)
	assert.Equal(t, []string{"B"}, report.Unavailable)
	assert.Equal(t, 1, report.FailedSelections)
}
