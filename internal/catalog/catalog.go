package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/hanzitools/hanzistats/internal/errors"
	"github.com/hanzitools/hanzistats/internal/hanzi"
	"github.com/hanzitools/hanzistats/internal/logger"
)

// Paths identifies the reference datasets backing a catalog. It doubles as
// the process-wide cache key: loading the same paths twice returns the same
// catalog without re-parsing.
type Paths struct {
	// HSKChars is a CSV with columns Hanzi, Traditional, HSK2012, HSK2021.
	HSKChars string
	// Frequency is a CSV with columns simplified, traditional,
	// frequency_junda.
	Frequency string
}

var frequencyThresholds = []struct {
	name string
	rank int
}{
	{"Top 500", 500},
	{"Top 1000", 1000},
	{"Top 1500", 1500},
	{"Top 2000", 2000},
}

func hsk2012Name(level int) string { return fmt.Sprintf("HSK (2012) Level %d", level) }
func hsk2021Name(band int) string  { return fmt.Sprintf("HSK (2021) Band %d", band) }

// Catalog holds the immutable reference category sets and the inverse
// character index. Built once per dataset identity; safe for concurrent
// reads, never mutated after Load returns.
type Catalog struct {
	names       []string
	members     map[string]hanzi.Set
	index       map[rune][]string
	unavailable []string
}

var (
	cacheMu sync.Mutex
	cache   = make(map[Paths]*Catalog)
)

// Load builds the catalog for the given dataset paths, or returns the cached
// one. A missing or malformed dataset file empties the affected categories
// and marks them unavailable; it never fails the load. HSK and frequency
// data degrade independently.
func Load(p Paths) *Catalog {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if c, ok := cache[p]; ok {
		return c
	}
	c := build(p)
	cache[p] = c
	return c
}

func build(p Paths) *Catalog {
	log := logger.Default().WithPrefix("catalog")

	c := &Catalog{
		members: make(map[string]hanzi.Set),
		index:   make(map[rune][]string),
	}

	// Register every category up front so partial loads still expose the
	// full category list, just with empty member sets.
	for level := 1; level <= 6; level++ {
		c.register(hsk2012Name(level))
	}
	for band := 1; band <= 9; band++ {
		c.register(hsk2021Name(band))
	}
	for _, band := range frequencyThresholds {
		c.register(band.name)
	}

	if err := c.loadHSK(p.HSKChars); err != nil {
		log.Warn("HSK dataset unavailable: %v", err)
		c.markUnavailable(func(name string) bool { return strings.HasPrefix(name, "HSK") })
	}
	if err := c.loadFrequency(p.Frequency); err != nil {
		log.Warn("frequency dataset unavailable: %v", err)
		c.markUnavailable(func(name string) bool { return strings.HasPrefix(name, "Top") })
	}

	for _, name := range c.names {
		for r := range c.members[name] {
			c.index[r] = append(c.index[r], name)
		}
	}

	log.Info("catalog loaded: %d categories, %d indexed characters, %d unavailable",
		len(c.names), len(c.index), len(c.unavailable))
	return c
}

func (c *Catalog) register(name string) {
	c.names = append(c.names, name)
	c.members[name] = make(hanzi.Set)
}

func (c *Catalog) markUnavailable(match func(string) bool) {
	for _, name := range c.names {
		if match(name) {
			c.members[name] = make(hanzi.Set)
			c.unavailable = append(c.unavailable, name)
		}
	}
}

func (c *Catalog) add(name string, r rune) {
	c.members[name].Add(r)
}

// normalizeChar returns the NFC code point for a single-character dataset
// cell, or false when the cell is empty or not a lone character.
func normalizeChar(cell string) (rune, bool) {
	s := norm.NFC.String(strings.TrimSpace(cell))
	if utf8.RuneCountInString(s) != 1 {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, true
}

func readRows(path string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%s: empty dataset", path)
	}

	header := make(map[string]int, len(rows[0]))
	for i, col := range rows[0] {
		header[strings.TrimSpace(col)] = i
	}
	return rows[1:], header, nil
}

func cell(row []string, header map[string]int, col string) string {
	i, ok := header[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (c *Catalog) loadHSK(path string) error {
	rows, header, err := readRows(path)
	if err != nil {
		return err
	}
	if _, ok := header["Hanzi"]; !ok {
		return fmt.Errorf("%s: missing Hanzi column", path)
	}

	for _, row := range rows {
		char, ok := normalizeChar(cell(row, header, "Hanzi"))
		if !ok {
			continue
		}
		chars := []rune{char}
		// The traditional variant, when present and distinct, joins the same
		// categories as the simplified form.
		if trad, ok := normalizeChar(cell(row, header, "Traditional")); ok && trad != char {
			chars = append(chars, trad)
		}

		if level, err := strconv.Atoi(cell(row, header, "HSK2012")); err == nil && level >= 1 && level <= 6 {
			for _, r := range chars {
				c.add(hsk2012Name(level), r)
			}
		}
		for _, band := range parse2021Bands(cell(row, header, "HSK2021")) {
			for _, r := range chars {
				c.add(hsk2021Name(band), r)
			}
		}
	}
	return nil
}

// parse2021Bands interprets the dataset's Level values. The 2021 standard
// publishes a combined vocabulary for its top bands, which the dataset
// records as "7-9"; such rows belong to bands 7, 8 and 9.
func parse2021Bands(value string) []int {
	if value == "7-9" {
		return []int{7, 8, 9}
	}
	band, err := strconv.Atoi(value)
	if err != nil || band < 1 || band > 9 {
		return nil
	}
	return []int{band}
}

func (c *Catalog) loadFrequency(path string) error {
	rows, header, err := readRows(path)
	if err != nil {
		return err
	}
	if _, ok := header["simplified"]; !ok {
		return fmt.Errorf("%s: missing simplified column", path)
	}

	for _, row := range rows {
		rank, err := strconv.Atoi(cell(row, header, "frequency_junda"))
		if err != nil || rank < 1 {
			continue
		}

		var chars []rune
		if simp, ok := normalizeChar(cell(row, header, "simplified")); ok {
			chars = append(chars, simp)
		}
		if trad, ok := normalizeChar(cell(row, header, "traditional")); ok {
			if len(chars) == 0 || trad != chars[0] {
				chars = append(chars, trad)
			}
		}

		// Bands are cumulative: rank 321 is in Top 500 and every band above.
		for _, band := range frequencyThresholds {
			if rank <= band.rank {
				for _, r := range chars {
					c.add(band.name, r)
				}
			}
		}
	}
	return nil
}

// Categories returns the registered category names in display order.
func (c *Catalog) Categories() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// MembersOf returns the member set of a category. The returned set is shared
// and must be treated as read-only. Unknown names fail with NOT_FOUND.
func (c *Catalog) MembersOf(name string) (hanzi.Set, error) {
	members, ok := c.members[name]
	if !ok {
		return nil, errors.NewNotFoundError("category", name)
	}
	return members, nil
}

// CategoriesOf returns the categories containing r, in display order. A
// character may belong to any number of categories; membership is
// many-to-many.
func (c *Catalog) CategoriesOf(r rune) []string {
	names := c.index[r]
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Unavailable returns the categories whose reference data failed to load.
func (c *Catalog) Unavailable() []string {
	out := make([]string, len(c.unavailable))
	copy(out, c.unavailable)
	return out
}
