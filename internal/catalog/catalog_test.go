package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanzitools/hanzistats/internal/catalog"
	apperrors "github.com/hanzitools/hanzistats/internal/errors"
)

const hskCSV = `Hanzi,Traditional,HSK2012,HSK2021
爱,愛,1,1
八,,1,1
队,隊,2,3
蹦,,6,7-9
`

const frequencyCSV = `simplified,traditional,frequency_junda
的,,1
爱,愛,394
队,隊,777
冷,,1200
蹦,,1800
`

func writeDatasets(t *testing.T, hsk, freq string) catalog.Paths {
	t.Helper()
	dir := t.TempDir()
	paths := catalog.Paths{
		HSKChars:  filepath.Join(dir, "hsk-chars.csv"),
		Frequency: filepath.Join(dir, "hanzi-frequency.csv"),
	}
	if hsk != "" {
		require.NoError(t, os.WriteFile(paths.HSKChars, []byte(hsk), 0o644))
	}
	if freq != "" {
		require.NoError(t, os.WriteFile(paths.Frequency, []byte(freq), 0o644))
	}
	return paths
}

func TestLoad_RegistersAllCategories(t *testing.T) {
	cat := catalog.Load(writeDatasets(t, hskCSV, frequencyCSV))

	names := cat.Categories()
	require.Len(t, names, 19, "6 HSK 2012 levels + 9 HSK 2021 bands + 4 frequency bands")
	assert.Equal(t, "HSK (2012) Level 1", names[0])
	assert.Equal(t, "HSK (2012) Level 6", names[5])
	assert.Equal(t, "HSK (2021) Band 1", names[6])
	assert.Equal(t, "HSK (2021) Band 9", names[14])
	assert.Equal(t, "Top 500", names[15])
	assert.Equal(t, "Top 2000", names[18])
	assert.Empty(t, cat.Unavailable())
}

func TestLoad_HSKMembership(t *testing.T) {
	cat := catalog.Load(writeDatasets(t, hskCSV, frequencyCSV))

	level1, err := cat.MembersOf("HSK (2012) Level 1")
	require.NoError(t, err)
	assert.True(t, level1.Contains('爱'))
	assert.True(t, level1.Contains('愛'), "traditional variant joins the same category")
	assert.True(t, level1.Contains('八'))
	assert.False(t, level1.Contains('队'))

	band3, err := cat.MembersOf("HSK (2021) Band 3")
	require.NoError(t, err)
	assert.True(t, band3.Contains('队'))
	assert.True(t, band3.Contains('隊'))
}

func TestLoad_CombinedTopBands(t *testing.T) {
	cat := catalog.Load(writeDatasets(t, hskCSV, frequencyCSV))

	// A "7-9" dataset row belongs to bands 7, 8 and 9.
	for _, name := range []string{"HSK (2021) Band 7", "HSK (2021) Band 8", "HSK (2021) Band 9"} {
		members, err := cat.MembersOf(name)
		require.NoError(t, err)
		assert.True(t, members.Contains('蹦'), name)
	}
}

func TestLoad_FrequencyBandsAreCumulative(t *testing.T) {
	cat := catalog.Load(writeDatasets(t, hskCSV, frequencyCSV))

	top500, err := cat.MembersOf("Top 500")
	require.NoError(t, err)
	top1000, err := cat.MembersOf("Top 1000")
	require.NoError(t, err)
	top1500, err := cat.MembersOf("Top 1500")
	require.NoError(t, err)
	top2000, err := cat.MembersOf("Top 2000")
	require.NoError(t, err)

	// Rank 394 sits inside every band.
	assert.True(t, top500.Contains('爱'))
	assert.True(t, top2000.Contains('爱'))

	// Rank 1200 starts at Top 1500.
	assert.False(t, top500.Contains('冷'))
	assert.False(t, top1000.Contains('冷'))
	assert.True(t, top1500.Contains('冷'))
	assert.True(t, top2000.Contains('冷'))

	// Rank 1800 only makes Top 2000.
	assert.False(t, top1500.Contains('蹦'))
	assert.True(t, top2000.Contains('蹦'))
}

func TestCategoriesOf_ManyToMany(t *testing.T) {
	cat := catalog.Load(writeDatasets(t, hskCSV, frequencyCSV))

	names := cat.CategoriesOf('爱')
	assert.Contains(t, names, "HSK (2012) Level 1")
	assert.Contains(t, names, "HSK (2021) Band 1")
	assert.Contains(t, names, "Top 500")
	assert.Contains(t, names, "Top 2000")

	assert.Empty(t, cat.CategoriesOf('猫'), "unlisted character belongs to no category")
}

func TestMembersOf_UnknownCategory(t *testing.T) {
	cat := catalog.Load(writeDatasets(t, hskCSV, frequencyCSV))

	_, err := cat.MembersOf("HSK (2031) Band 1")
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeNotFound, appErr.Code)
}

func TestLoad_MissingFrequencyFileDegrades(t *testing.T) {
	cat := catalog.Load(writeDatasets(t, hskCSV, ""))

	// HSK categories keep working.
	level1, err := cat.MembersOf("HSK (2012) Level 1")
	require.NoError(t, err)
	assert.True(t, level1.Contains('爱'))

	// Frequency categories are registered but empty and flagged.
	top500, err := cat.MembersOf("Top 500")
	require.NoError(t, err)
	assert.Equal(t, 0, top500.Len())
	assert.ElementsMatch(t,
		[]string{"Top 500", "Top 1000", "Top 1500", "Top 2000"},
		cat.Unavailable())
}

func TestLoad_MissingHSKFileDegrades(t *testing.T) {
	cat := catalog.Load(writeDatasets(t, "", frequencyCSV))

	top500, err := cat.MembersOf("Top 500")
	require.NoError(t, err)
	assert.True(t, top500.Contains('的'))

	assert.Len(t, cat.Unavailable(), 15, "all HSK categories flagged")
}

func TestLoad_MalformedDatasetDegrades(t *testing.T) {
	cat := catalog.Load(writeDatasets(t, "Hanzi,Traditional\n\"broken", frequencyCSV))

	band1, err := cat.MembersOf("HSK (2021) Band 1")
	require.NoError(t, err)
	assert.Equal(t, 0, band1.Len())
	assert.Contains(t, cat.Unavailable(), "HSK (2021) Band 1")
}

func TestLoad_SkipsMalformedRows(t *testing.T) {
	hsk := "Hanzi,Traditional,HSK2012,HSK2021\n爱,,not-a-level,99\n八,,1,1\nabc,,1,1\n"
	cat := catalog.Load(writeDatasets(t, hsk, frequencyCSV))

	level1, err := cat.MembersOf("HSK (2012) Level 1")
	require.NoError(t, err)
	assert.True(t, level1.Contains('八'))
	assert.False(t, level1.Contains('爱'))
	assert.Equal(t, 1, level1.Len(), "multi-character cell is skipped")
	assert.Empty(t, cat.Unavailable(), "bad rows do not poison the dataset")
}

func TestLoad_CachesByDatasetIdentity(t *testing.T) {
	paths := writeDatasets(t, hskCSV, frequencyCSV)

	first := catalog.Load(paths)
	second := catalog.Load(paths)

	assert.Same(t, first, second, "same dataset identity must not re-parse")
}
