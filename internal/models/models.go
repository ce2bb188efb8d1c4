package models

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/hanzitools/hanzistats/internal/hanzi"
)

// FieldMode enumerates the ways a selection picks note fields.
type FieldMode int

const (
	// FieldModeSort uses only the note's sort field (the first field).
	FieldModeSort FieldMode = iota
	// FieldModeAll uses every field of the note.
	FieldModeAll
	// FieldModeIndex uses one specific field, addressed 1-based.
	FieldModeIndex
)

// FieldSpec is a tagged variant describing which note fields a selection
// reads. Index is only meaningful when Mode is FieldModeIndex.
type FieldSpec struct {
	Mode  FieldMode
	Index int
}

// SortField returns a FieldSpec for the note's sort field.
func SortField() FieldSpec {
	return FieldSpec{Mode: FieldModeSort}
}

// AllFields returns a FieldSpec covering every field.
func AllFields() FieldSpec {
	return FieldSpec{Mode: FieldModeAll}
}

// FieldIndex returns a FieldSpec for the 1-based field n.
func FieldIndex(n int) FieldSpec {
	return FieldSpec{Mode: FieldModeIndex, Index: n}
}

// Validate checks that the spec is internally consistent.
func (f FieldSpec) Validate() error {
	switch f.Mode {
	case FieldModeSort, FieldModeAll:
		return nil
	case FieldModeIndex:
		if f.Index < 1 {
			return fmt.Errorf("field index must be >= 1, got %d", f.Index)
		}
		return nil
	default:
		return fmt.Errorf("unknown field mode %d", f.Mode)
	}
}

// Select returns the fields of a note that the spec covers. Out-of-range
// indexes select nothing rather than failing.
func (f FieldSpec) Select(fields []string) []string {
	if len(fields) == 0 {
		return nil
	}
	switch f.Mode {
	case FieldModeAll:
		return fields
	case FieldModeSort:
		return fields[:1]
	case FieldModeIndex:
		if f.Index >= 1 && f.Index <= len(fields) {
			return fields[f.Index-1 : f.Index]
		}
		return nil
	default:
		return nil
	}
}

func (f FieldSpec) String() string {
	switch f.Mode {
	case FieldModeAll:
		return "all"
	case FieldModeIndex:
		return strconv.Itoa(f.Index)
	default:
		return "sortField"
	}
}

// MarshalJSON encodes the spec in the wire form the original addon config
// used: "sortField", "all", or a field number.
func (f FieldSpec) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// UnmarshalJSON accepts "sortField", "all", a numeric string, or a bare
// number.
func (f *FieldSpec) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n int
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("invalid field spec %s", data)
		}
		*f = FieldIndex(n)
		return nil
	}
	switch s {
	case "sortField", "":
		*f = SortField()
	case "all":
		*f = AllFields()
	default:
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid field spec %q", s)
		}
		*f = FieldIndex(n)
	}
	return nil
}

// AllDecksID is the pseudo deck ID spanning every deck in the collection.
const AllDecksID int64 = 0

// Deck describes a deck available for selection.
type Deck struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ParentID int64  `json:"parent_id,omitempty"`
}

// Selection is one user-chosen (deck, fields, subdecks) scope. Selections
// are independent inputs to the aggregator; overlapping selections are
// resolved by set union, never double-counted.
type Selection struct {
	DeckID          int64     `json:"deck_id"`
	Field           FieldSpec `json:"field"`
	IncludeSubdecks bool      `json:"include_subdecks"`
}

// Validate checks the selection can be interpreted.
func (s Selection) Validate() error {
	if s.DeckID < 0 {
		return fmt.Errorf("deck id must be >= 0, got %d", s.DeckID)
	}
	return s.Field.Validate()
}

// Observation is one (character, reviewed) pair produced by applying a
// selection to the data source. A character is reviewed for a selection when
// at least one card containing it within the selection's scope has review
// history.
type Observation struct {
	Char     rune
	Reviewed bool
}

// AggregateResult is the merged outcome of aggregating all active
// selections. Reviewed is always a subset of Total.
type AggregateResult struct {
	Total    hanzi.Set
	Reviewed hanzi.Set
	// Failed holds selections whose observations could not be fetched under
	// the best-effort policy. Empty on a complete aggregation.
	Failed []Selection
}

// NewAggregateResult returns an empty result, the valid outcome of
// aggregating zero selections.
func NewAggregateResult() AggregateResult {
	return AggregateResult{Total: make(hanzi.Set), Reviewed: make(hanzi.Set)}
}

// CategoryBreakdown partitions a category's characters three ways against an
// aggregate result. The three sets are disjoint and their union is the
// category's full member set.
type CategoryBreakdown struct {
	Category          string   `json:"category"`
	Reviewed          []string `json:"reviewed"`
	PresentUnreviewed []string `json:"present_unreviewed"`
	Absent            []string `json:"absent"`
	CategorySize      int      `json:"category_size"`
}

// CategorySummary is one row of the report table. PresentCount counts
// characters present in the decks (reviewed or not); it excludes Absent.
type CategorySummary struct {
	Name          string `json:"name"`
	ReviewedCount int    `json:"reviewed_count"`
	PresentCount  int    `json:"present_count"`
	CategorySize  int    `json:"category_size"`
}

// Report is the structured result consumed by the presentation layer.
type Report struct {
	Total      int               `json:"total"`
	Reviewed   int               `json:"reviewed"`
	Categories []CategorySummary `json:"categories"`
	// Unavailable lists categories whose reference data failed to load; their
	// rows are present but empty.
	Unavailable []string `json:"unavailable,omitempty"`
	// FailedSelections counts selections skipped under best-effort
	// aggregation; non-zero means the report is partial.
	FailedSelections int `json:"failed_selections,omitempty"`
}
