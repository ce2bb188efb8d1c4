package services_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	apperrors "github.com/hanzitools/hanzistats/internal/errors"
	"github.com/hanzitools/hanzistats/internal/hanzi"
	"github.com/hanzitools/hanzistats/internal/models"
	"github.com/hanzitools/hanzistats/internal/services"
	"github.com/hanzitools/hanzistats/internal/stats"
	"github.com/hanzitools/hanzistats/internal/testutil/mocks"
)

type fixedCatalog struct {
	order   []string
	members map[string]hanzi.Set
}

func (c *fixedCatalog) Categories() []string { return c.order }

func (c *fixedCatalog) MembersOf(name string) (hanzi.Set, error) {
	members, ok := c.members[name]
	if !ok {
		return nil, apperrors.NewNotFoundError("category", name)
	}
	return members, nil
}

func (c *fixedCatalog) Unavailable() []string { return nil }

type StatsServiceSuite struct {
	suite.Suite
	source  *mocks.MockDeckDataSource
	service services.StatsService
}

func (s *StatsServiceSuite) SetupTest() {
	s.source = new(mocks.MockDeckDataSource)
	cat := &fixedCatalog{
		order: []string{"Level 1"},
		members: map[string]hanzi.Set{
			"Level 1": hanzi.NewSet('你', '好', '吗'),
		},
	}
	s.service = services.NewStatsService(s.source, cat, stats.BestEffort)
}

func (s *StatsServiceSuite) TestListDecks() {
	decks := []models.Deck{{ID: 1, Name: "Chinese"}}
	s.source.On("ListDecks", mock.Anything).Return(decks, nil)

	got, err := s.service.ListDecks(context.Background())

	s.NoError(err)
	s.Equal(decks, got)
	s.source.AssertExpectations(s.T())
}

func (s *StatsServiceSuite) TestListDecksWrapsUnknownErrors() {
	s.source.On("ListDecks", mock.Anything).Return(nil, fmt.Errorf("broken pipe"))

	_, err := s.service.ListDecks(context.Background())

	s.Require().Error(err)
	appErr, ok := err.(*apperrors.AppError)
	s.Require().True(ok)
	s.Equal(apperrors.ErrCodeInternal, appErr.Code)
}

func (s *StatsServiceSuite) TestFieldNamesKeepsAppErrors() {
	s.source.On("FieldNames", mock.Anything, int64(7)).
		Return(nil, apperrors.NewNotFoundError("deck", int64(7)))

	_, err := s.service.FieldNames(context.Background(), 7)

	s.Require().Error(err)
	appErr, ok := err.(*apperrors.AppError)
	s.Require().True(ok)
	s.Equal(apperrors.ErrCodeNotFound, appErr.Code)
}

func (s *StatsServiceSuite) TestCategories() {
	s.Equal([]string{"Level 1"}, s.service.Categories())
}

func (s *StatsServiceSuite) TestReport() {
	selection := models.Selection{DeckID: 1, Field: models.SortField()}
	s.source.On("Observe", mock.Anything, selection).Return([]models.Observation{
		{Char: '你', Reviewed: true},
		{Char: '好', Reviewed: false},
		{Char: '猫', Reviewed: false},
	}, nil)

	report, result, err := s.service.Report(context.Background(), []models.Selection{selection}, nil)

	s.Require().NoError(err)
	s.Equal(3, report.Total)
	s.Equal(1, report.Reviewed)
	s.Require().Len(report.Categories, 1)
	s.Equal("Level 1", report.Categories[0].Name)
	s.Equal(1, report.Categories[0].ReviewedCount)
	s.Equal(2, report.Categories[0].PresentCount)
	s.Equal(3, report.Categories[0].CategorySize)
	s.Equal(3, result.Total.Len(), "snapshot mirrors the report")
}

func (s *StatsServiceSuite) TestReportRejectsInvalidSelection() {
	selections := []models.Selection{
		{DeckID: 1, Field: models.SortField()},
		{DeckID: -2, Field: models.SortField()},
	}

	_, _, err := s.service.Report(context.Background(), selections, nil)

	s.Require().Error(err)
	appErr, ok := err.(*apperrors.AppError)
	s.Require().True(ok)
	s.Equal(apperrors.ErrCodeValidation, appErr.Code)
	s.Contains(appErr.Message, "selections[1]")
	s.source.AssertNotCalled(s.T(), "Observe", mock.Anything, mock.Anything)
}

func (s *StatsServiceSuite) TestReportBestEffortRecordsFailures() {
	good := models.Selection{DeckID: 1, Field: models.SortField()}
	bad := models.Selection{DeckID: 2, Field: models.SortField()}
	s.source.On("Observe", mock.Anything, good).
		Return([]models.Observation{{Char: '你', Reviewed: true}}, nil)
	s.source.On("Observe", mock.Anything, bad).
		Return(nil, fmt.Errorf("deck table locked"))

	report, result, err := s.service.Report(context.Background(), []models.Selection{good, bad}, nil)

	s.Require().NoError(err)
	s.Equal(1, report.Total)
	s.Equal(1, report.FailedSelections)
	s.Require().Len(result.Failed, 1)
	s.Equal(int64(2), result.Failed[0].DeckID)
}

func (s *StatsServiceSuite) TestReportForwardsProgress() {
	selection := models.Selection{DeckID: 1, Field: models.SortField()}
	s.source.On("Observe", mock.Anything, selection).
		Return([]models.Observation{{Char: '你', Reviewed: false}}, nil)

	var calls int
	_, _, err := s.service.Report(context.Background(), []models.Selection{selection}, func(done, total int) {
		calls++
	})

	s.Require().NoError(err)
	s.Equal(2, calls, "progress fires at start and after the selection")
}

func (s *StatsServiceSuite) TestDetail() {
	result := models.AggregateResult{
		Total:    hanzi.NewSet('你', '好'),
		Reviewed: hanzi.NewSet('你'),
	}

	breakdown, err := s.service.Detail(context.Background(), "Level 1", result)

	s.Require().NoError(err)
	s.Equal([]string{"你"}, breakdown.Reviewed)
	s.Equal([]string{"好"}, breakdown.PresentUnreviewed)
	s.Equal([]string{"吗"}, breakdown.Absent)
}

func (s *StatsServiceSuite) TestDetailUnknownCategory() {
	_, err := s.service.Detail(context.Background(), "Level 99", models.AggregateResult{
		Total:    hanzi.NewSet(),
		Reviewed: hanzi.NewSet(),
	})

	s.Require().Error(err)
	appErr, ok := err.(*apperrors.AppError)
	s.Require().True(ok)
	s.Equal(apperrors.ErrCodeNotFound, appErr.Code)
}

func TestStatsServiceSuite(t *testing.T) {
	suite.Run(t, new(StatsServiceSuite))
}
