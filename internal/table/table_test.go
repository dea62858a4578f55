package table_test

import (
	"path/filepath"
	"testing"

	"github.com/Flaque/filet"
	"github.com/UnknownOlympus/demeter/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_GetSetFloat(t *testing.T) {
	tbl := table.New(
		[]string{"latitude", "longitude", "name"},
		[][]string{
			{"40.0", "-3.0", "Madrid"},
			{"", "-3.0"},
			{"not-a-number", "-3.0", "Nowhere"},
		},
	)

	require.Equal(t, 3, tbl.Len())
	assert.Equal(t, []string{"latitude", "longitude", "name"}, tbl.Columns())

	t.Run("get existing cell", func(t *testing.T) {
		value, ok := tbl.Row(0).Get("name")
		assert.True(t, ok)
		assert.Equal(t, "Madrid", value)
	})

	t.Run("get missing column", func(t *testing.T) {
		_, ok := tbl.Row(0).Get("elevation")
		assert.False(t, ok)
	})

	t.Run("short row reads as empty", func(t *testing.T) {
		value, ok := tbl.Row(1).Get("name")
		assert.True(t, ok)
		assert.Empty(t, value)
	})

	t.Run("float parses numeric cell", func(t *testing.T) {
		value, ok := tbl.Row(0).Float("latitude")
		require.True(t, ok)
		assert.InEpsilon(t, 40.0, value, 0.0001)
	})

	t.Run("float rejects blank and non-numeric cells", func(t *testing.T) {
		_, ok := tbl.Row(1).Float("latitude")
		assert.False(t, ok)

		_, ok = tbl.Row(2).Float("latitude")
		assert.False(t, ok)
	})

	t.Run("set appends new column after originals", func(t *testing.T) {
		tbl.Row(0).Set("elevation", "120.5")

		assert.Equal(t, []string{"latitude", "longitude", "name", "elevation"}, tbl.Columns())

		value, ok := tbl.Row(0).Get("elevation")
		assert.True(t, ok)
		assert.Equal(t, "120.5", value)

		// other rows read the new column as empty
		value, ok = tbl.Row(1).Get("elevation")
		assert.True(t, ok)
		assert.Empty(t, value)
	})

	t.Run("set pads short rows", func(t *testing.T) {
		tbl.Row(1).Set("elevation", "99")

		value, ok := tbl.Row(1).Get("elevation")
		assert.True(t, ok)
		assert.Equal(t, "99", value)

		// the skipped name cell stays empty
		value, ok = tbl.Row(1).Get("name")
		assert.True(t, ok)
		assert.Empty(t, value)
	})

	t.Run("set overwrites existing cell", func(t *testing.T) {
		tbl.Row(0).Set("name", "Lavapiés")

		value, _ := tbl.Row(0).Get("name")
		assert.Equal(t, "Lavapiés", value)
	})
}

func TestTable_SaveLoadRoundTrip(t *testing.T) {
	defer filet.CleanUp(t)
	dir := filet.TmpDir(t, "")

	tbl := table.New(
		[]string{"latitude", "longitude"},
		[][]string{
			{"40.0", "-3.0"},
			{"41.0", "2.0"},
		},
	)
	tbl.Row(0).Set("elevation", "120.5")

	path := filepath.Join(dir, "enriched.xlsx")
	require.NoError(t, tbl.Save(path))

	loaded, err := table.Load(path)
	require.NoError(t, err)

	require.Equal(t, 2, loaded.Len())
	assert.Equal(t, []string{"latitude", "longitude", "elevation"}, loaded.Columns())

	value, ok := loaded.Row(0).Get("elevation")
	assert.True(t, ok)
	assert.Equal(t, "120.5", value)

	lat, ok := loaded.Row(1).Float("latitude")
	require.True(t, ok)
	assert.InEpsilon(t, 41.0, lat, 0.0001)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := table.Load(filepath.Join(t.TempDir(), "missing.xlsx"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open workbook")
}
