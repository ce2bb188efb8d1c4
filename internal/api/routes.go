package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/api/decks", s.handleListDecks)
	r.Get("/api/decks/{id}/fields", s.handleDeckFields)
	r.Get("/api/categories", s.handleListCategories)
	r.Post("/api/reports", s.handleCreateReport)
	r.Get("/api/reports/{id}", s.handleGetReport)
	r.Get("/api/reports/{id}/categories/{name}", s.handleCategoryDetail)

	return r
}
