package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/hanzitools/hanzistats/internal/errors"
	"github.com/hanzitools/hanzistats/internal/logger"
	"github.com/hanzitools/hanzistats/internal/models"
	"github.com/hanzitools/hanzistats/internal/services"
	"github.com/hanzitools/hanzistats/internal/worker"
)

// Server exposes the Hanzi statistics report API.
type Server struct {
	StatsService services.StatsService
	ReportPool   *worker.Pool

	mu      sync.Mutex
	reports map[string]*worker.ReportTracker
}

// NewServer creates a Server.
func NewServer(statsService services.StatsService, reportPool *worker.Pool) *Server {
	return &Server{
		StatsService: statsService,
		ReportPool:   reportPool,
		reports:      make(map[string]*worker.ReportTracker),
	}
}

func (s *Server) handleListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := s.StatsService.ListDecks(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, decks)
}

func (s *Server) handleDeckFields(w http.ResponseWriter, r *http.Request) {
	deckID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		handleError(w, r, errors.NewBadRequestError("invalid deck id"))
		return
	}

	fields, err := s.StatsService.FieldNames(r.Context(), deckID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"fields": fields})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{"categories": s.StatsService.Categories()})
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req struct {
		Selections []models.Selection `json:"selections"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, r, errors.NewBadRequestError("invalid request body"))
		return
	}
	// An empty selection list is a valid request; it yields an empty report.
	for i, sel := range req.Selections {
		if err := sel.Validate(); err != nil {
			handleError(w, r, errors.NewValidationError(fmt.Sprintf("selections[%d]", i), err.Error()))
			return
		}
	}

	tracker := worker.NewReportTracker(generateRequestID())
	job := &worker.ReportJob{
		Tracker:    tracker,
		Service:    s.StatsService,
		Selections: req.Selections,
	}
	if !s.ReportPool.Submit(job) {
		handleError(w, r, errors.NewUnavailableError(fmt.Errorf("report queue full")))
		return
	}

	s.mu.Lock()
	s.reports[tracker.ID()] = tracker
	s.mu.Unlock()

	log.Info("report queued: id=%s, selections=%d", tracker.ID(), len(req.Selections))
	writeJSON(w, r, http.StatusAccepted, map[string]string{"id": tracker.ID()})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	tracker, err := s.lookupReport(chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, tracker.Snapshot())
}

func (s *Server) handleCategoryDetail(w http.ResponseWriter, r *http.Request) {
	tracker, err := s.lookupReport(chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	result, ok := tracker.Result()
	if !ok {
		handleError(w, r, errors.NewBadRequestError("report is not completed yet"))
		return
	}

	breakdown, err := s.StatsService.Detail(r.Context(), chi.URLParam(r, "name"), result)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, breakdown)
}

func (s *Server) lookupReport(id string) (*worker.ReportTracker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tracker, ok := s.reports[id]
	if !ok {
		return nil, errors.NewNotFoundError("report", id)
	}
	return tracker, nil
}
