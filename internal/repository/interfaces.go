package repository

import (
	"context"

	"github.com/hanzitools/hanzistats/internal/models"
)

// DeckDataSource is the contract the statistics core consumes to read a
// flashcard collection. Implementations resolve deck scopes (optionally with
// subdecks), skip suspended and buried cards, pick the configured fields per
// note, and report per-character review status. The core assumes nothing
// about the storage behind it and performs all deduplication itself.
type DeckDataSource interface {
	// ListDecks returns the decks available for selection.
	ListDecks(ctx context.Context) ([]models.Deck, error)
	// FieldNames returns the note field names used by cards of the deck, in
	// field order.
	FieldNames(ctx context.Context, deckID int64) ([]string, error)
	// Observe applies one selection and returns its raw (character,
	// reviewed) observations.
	Observe(ctx context.Context, sel models.Selection) ([]models.Observation, error)
}
