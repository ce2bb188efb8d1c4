package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hanzitools/hanzistats/internal/errors"
	"github.com/hanzitools/hanzistats/internal/hanzi"
	"github.com/hanzitools/hanzistats/internal/logger"
	"github.com/hanzitools/hanzistats/internal/models"
	"github.com/hanzitools/hanzistats/internal/repository"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

// sep separates deck name components and note fields in Anki collections.
const sep = "\x1f"

// Open opens an Anki collection database read-only. The collection is never
// written to; study data stays untouched.
func Open(path string) (*sql.DB, error) {
	log := logger.Default().WithPrefix("collection")

	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", path)
	log.Info("opening collection: %s", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		log.Error("failed to open collection: %v", err)
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		log.Error("collection not readable: %v", err)
		db.Close()
		return nil, err
	}
	log.Info("collection ready")
	return db, nil
}

type collectionRepository struct {
	db *sql.DB
}

// NewCollectionRepository creates a DeckDataSource over an Anki collection
// database.
func NewCollectionRepository(db *sql.DB) repository.DeckDataSource {
	return &collectionRepository{db: db}
}

func (r *collectionRepository) ListDecks(ctx context.Context) ([]models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("collection_repo")
	log.Debug("listing decks")

	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM decks`)
	if err != nil {
		log.Error("failed to query decks: %v", err)
		return nil, err
	}
	defer rows.Close()

	type rawDeck struct {
		id   int64
		name string
	}
	var raw []rawDeck
	idByName := make(map[string]int64)
	for rows.Next() {
		var d rawDeck
		if err := rows.Scan(&d.id, &d.name); err != nil {
			log.Error("failed to scan deck row: %v", err)
			return nil, err
		}
		raw = append(raw, d)
		idByName[d.name] = d.id
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	decks := make([]models.Deck, 0, len(raw))
	for _, d := range raw {
		deck := models.Deck{
			ID: d.id,
			// Deck name components are stored \x1f-separated; the display
			// form joins them with "::".
			Name: strings.ReplaceAll(d.name, sep, "::"),
		}
		if i := strings.LastIndex(d.name, sep); i >= 0 {
			deck.ParentID = idByName[d.name[:i]]
		}
		decks = append(decks, deck)
	}
	sort.Slice(decks, func(i, j int) bool { return decks[i].Name < decks[j].Name })

	log.Debug("found %d decks", len(decks))
	return decks, nil
}

func (r *collectionRepository) FieldNames(ctx context.Context, deckID int64) ([]string, error) {
	log := logger.FromContext(ctx).WithPrefix("collection_repo")
	log.Debug("fetching field names: deck_id=%d", deckID)

	query := sqlBuilder.
		Select("f.ord", "f.name").Distinct().
		From("fields f").
		Join("notes n ON n.mid = f.ntid").
		Join("cards c ON c.nid = n.id").
		OrderBy("f.ord", "f.name")

	if deckID != models.AllDecksID {
		ids, err := r.resolveDeckIDs(ctx, deckID, true)
		if err != nil {
			return nil, err
		}
		query = query.Where(squirrel.Eq{"c.did": ids})
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build field query: %v", err)
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to query field names: %v", err)
		return nil, err
	}
	defer rows.Close()

	var names []string
	seen := make(map[string]bool)
	for rows.Next() {
		var ord int
		var name string
		if err := rows.Scan(&ord, &name); err != nil {
			log.Error("failed to scan field row: %v", err)
			return nil, err
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	log.Debug("found %d field names", len(names))
	return names, rows.Err()
}

func (r *collectionRepository) Observe(ctx context.Context, sel models.Selection) ([]models.Observation, error) {
	log := logger.FromContext(ctx).WithPrefix("collection_repo")
	log.Debug("observing selection: deck_id=%d, field=%s, include_subdecks=%v",
		sel.DeckID, sel.Field, sel.IncludeSubdecks)

	var deckIDs []int64
	if sel.DeckID != models.AllDecksID {
		ids, err := r.resolveDeckIDs(ctx, sel.DeckID, sel.IncludeSubdecks)
		if err != nil {
			return nil, err
		}
		deckIDs = ids
	}

	// Total scope: every card not suspended or buried (queue >= 0),
	// including new cards.
	total, err := r.scanChars(ctx, sel.Field, deckIDs, false)
	if err != nil {
		log.Error("failed to scan total characters: %v", err)
		return nil, err
	}
	// Reviewed scope: cards with review history (revlog entry) in an active
	// queue (queue > 0).
	reviewed, err := r.scanChars(ctx, sel.Field, deckIDs, true)
	if err != nil {
		log.Error("failed to scan reviewed characters: %v", err)
		return nil, err
	}

	obs := make([]models.Observation, 0, total.Len())
	for char := range total {
		obs = append(obs, models.Observation{Char: char, Reviewed: reviewed.Contains(char)})
	}
	for char := range reviewed {
		if !total.Contains(char) {
			obs = append(obs, models.Observation{Char: char, Reviewed: true})
		}
	}
	log.Debug("observed %d characters (%d reviewed)", len(obs), reviewed.Len())
	return obs, nil
}

// scanChars extracts the distinct Hanzi from the note fields the selection
// covers, over either all active cards or only reviewed ones.
func (r *collectionRepository) scanChars(ctx context.Context, field models.FieldSpec, deckIDs []int64, reviewedOnly bool) (hanzi.Set, error) {
	query := sqlBuilder.
		Select("n.flds").Distinct().
		From("cards c").
		Join("notes n ON c.nid = n.id")

	if reviewedOnly {
		query = query.
			Join("revlog r ON r.cid = c.id").
			Where("c.queue > 0")
	} else {
		query = query.Where("c.queue >= 0")
	}
	if deckIDs != nil {
		query = query.Where(squirrel.Eq{"c.did": deckIDs})
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chars := make(hanzi.Set)
	for rows.Next() {
		var flds string
		if err := rows.Scan(&flds); err != nil {
			return nil, err
		}
		for _, text := range field.Select(strings.Split(flds, sep)) {
			for char := range hanzi.Extract(text) {
				chars.Add(char)
			}
		}
	}
	return chars, rows.Err()
}

// resolveDeckIDs expands a deck ID into the IDs covered by a selection,
// including descendant decks when requested.
func (r *collectionRepository) resolveDeckIDs(ctx context.Context, deckID int64, includeSubdecks bool) ([]int64, error) {
	var name string
	err := r.db.QueryRowContext(ctx, `SELECT name FROM decks WHERE id = ?`, deckID).Scan(&name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("deck", deckID)
		}
		return nil, err
	}
	if !includeSubdecks {
		return []int64{deckID}, nil
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id FROM decks WHERE name = ? OR name LIKE ?`, name, name+sep+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
