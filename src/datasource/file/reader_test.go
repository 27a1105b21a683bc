package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const (
	dayFixture   = "testdata/day.csv"
	cleanFixture = "testdata/clean_bike_share_data.csv"
)

func TestReadTableCSV(t *testing.T) {
	df, err := ReadTable(dayFixture, "")
	require.NoError(t, err)

	assert.Equal(t, 13, df.Nrow())
	require.NoError(t, RequireColumns(df, DayColumns))
	assert.Equal(t, "2011-01-01", df.Col(DateColumn).Elem(0).String())

	cnt, err := df.Col("cnt").Int()
	require.NoError(t, err)
	assert.Equal(t, 985, cnt[0])
}

func TestReadTableNormalizesDates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "day.csv")
	csv := "dteday,cnt\n1/2/2011,801\n2011/01/03,1349\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))

	df, err := ReadTable(path, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"2011-01-02", "2011-01-03"}, df.Col(DateColumn).Records())
}

func TestReadTableBadDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "day.csv")
	require.NoError(t, os.WriteFile(path, []byte("dteday,cnt\n2011-01-01,1\nsoon,2\n"), 0644))

	_, err := ReadTable(path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestReadTableRejectsNumericDatesInCSV(t *testing.T) {
	for _, day := range []string{"20110101", "2011", "40544"} {
		path := filepath.Join(t.TempDir(), "day.csv")
		require.NoError(t, os.WriteFile(path, []byte("dteday,cnt\n"+day+",5\n"), 0644))

		_, err := ReadTable(path, "")
		require.Error(t, err, day)
		assert.Contains(t, err.Error(), "row 1", day)
	}
}

func TestReadTableUnsupported(t *testing.T) {
	_, err := ReadTable("day.parquet", "")
	assert.Error(t, err)

	_, err = ReadTable(filepath.Join(t.TempDir(), "missing.csv"), "")
	assert.Error(t, err)
}

func TestReadTableXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "day.xlsx")

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"dteday", "season", "cnt"},
		{"2011-01-01", 1, 985},
		{"2011-01-02", 1, 801},
		{40546, 1, 1349},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	df, err := ReadTable(path, "")
	require.NoError(t, err)
	assert.Equal(t, 3, df.Nrow())
	assert.Equal(t, []string{"dteday", "season", "cnt"}, df.Names())
	assert.Equal(t, []string{"2011-01-01", "2011-01-02", "2011-01-03"}, df.Col(DateColumn).Records())
	assert.Equal(t, "801", df.Col("cnt").Elem(1).String())

	_, err = ReadTable(path, "Nope")
	assert.Error(t, err)
}

func TestRequireColumns(t *testing.T) {
	df, err := ReadTable(cleanFixture, "")
	require.NoError(t, err)

	assert.NoError(t, RequireColumns(df, CleanColumns))
	err = RequireColumns(df, []string{"cnt", "instant", "holiday"})
	require.Error(t, err)
	assert.Equal(t, "missing columns: instant, holiday", err.Error())
}

func copyFixtures(t *testing.T) (string, string, string) {
	t.Helper()
	dir := t.TempDir()
	day := filepath.Join(dir, "day.csv")
	clean := filepath.Join(dir, "clean_bike_share_data.csv")
	for src, dst := range map[string]string{dayFixture: day, cleanFixture: clean} {
		data, err := os.ReadFile(src)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(dst, data, 0644))
	}
	return dir, day, clean
}

func TestDatasetLoad(t *testing.T) {
	_, day, clean := copyFixtures(t)
	ds := NewDataset(day, clean, "")
	assert.Nil(t, ds.Snapshot())

	require.NoError(t, ds.Load(context.Background()))
	snap := ds.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, 13, snap.Day.Nrow())
	assert.Equal(t, 13, snap.Clean.Nrow())

	changed, err := ds.Changed()
	require.NoError(t, err)
	assert.False(t, changed)

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(day, later, later))
	changed, err = ds.Changed()
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestDatasetKeepsSnapshotOnFailedReload(t *testing.T) {
	_, day, clean := copyFixtures(t)
	ds := NewDataset(day, clean, "")
	require.NoError(t, ds.Load(context.Background()))
	first := ds.Snapshot()

	require.NoError(t, os.WriteFile(clean, []byte("cnt\n1\n"), 0644))
	err := ds.Load(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "clean table"))
	assert.Same(t, first, ds.Snapshot())
}

func TestDatasetLoadCanceled(t *testing.T) {
	_, day, clean := copyFixtures(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewDataset(day, clean, "").Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
