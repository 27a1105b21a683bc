package report

import (
	"BikeShareInsight/src/config"
	"BikeShareInsight/src/datasource/file"
	"BikeShareInsight/src/processor"
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTables(t *testing.T) (dataframe.DataFrame, dataframe.DataFrame) {
	t.Helper()
	day, err := file.ReadTable("../datasource/file/testdata/day.csv", "")
	require.NoError(t, err)
	clean, err := file.ReadTable("../datasource/file/testdata/clean_bike_share_data.csv", "")
	require.NoError(t, err)
	return day, clean
}

func TestEverySectionIsEmbedded(t *testing.T) {
	for _, name := range Sections {
		src, err := Section(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, strings.TrimSpace(src), name)
	}

	_, err := Section("q3_intro")
	assert.Error(t, err)
}

func TestHTMLRenderer(t *testing.T) {
	r := NewHTMLRenderer()

	html, err := r.HTML("### Pertanyaan\n\n- **satu**\n")
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h3>Pertanyaan</h3>")
	assert.Contains(t, string(html), "<strong>satu</strong>")

	html, err = r.HTML("| a | b |\n|---|---|\n| 1 | 2 |\n")
	require.NoError(t, err)
	assert.Contains(t, string(html), "<table>")

	sections, err := r.Sections()
	require.NoError(t, err)
	assert.Len(t, sections, len(Sections))
	assert.Contains(t, string(sections[Intro]), `href="https://www.kaggle.com/datasets/lakshmi25npathi/bike-sharing-dataset"`)
	assert.Contains(t, string(sections[Conclusion]), "<blockquote>")
}

func TestAnalyze(t *testing.T) {
	_, dcfg := config.Default()
	day, clean := loadTables(t)
	f, err := processor.DefaultFilter(day)
	require.NoError(t, err)

	tables, err := Analyze(processor.ApplyFilter(day, f), clean, f, dcfg)
	require.NoError(t, err)

	assert.Equal(t, 13, tables.Metrics.Days)
	require.Len(t, tables.Season, 4)
	assert.Equal(t, "Winter", tables.Season[0].Label)
	assert.Equal(t, "Summer", tables.Season[3].Label)
	require.Len(t, tables.Weather, 3)
	assert.Equal(t, []string{"Light Snow/Rain", "Mist", "Clear"},
		[]string{tables.Weather[0].Label, tables.Weather[1].Label, tables.Weather[2].Label})
	assert.Equal(t, processor.CorrelationColumns, tables.Corr.Names)
}

func TestAnalyzeEmptyClean(t *testing.T) {
	_, dcfg := config.Default()
	day, _ := loadTables(t)
	f, err := processor.DefaultFilter(day)
	require.NoError(t, err)

	tables, err := Analyze(day, dataframe.DataFrame{}, f, dcfg)
	require.NoError(t, err)
	assert.Empty(t, tables.Season)
	assert.Empty(t, tables.Corr.Names)
}

func TestSummary(t *testing.T) {
	_, dcfg := config.Default()
	day, clean := loadTables(t)
	f, err := processor.DefaultFilter(day)
	require.NoError(t, err)
	tables, err := Analyze(processor.ApplyFilter(day, f), clean, f, dcfg)
	require.NoError(t, err)

	md, err := Summary(tables, dcfg)
	require.NoError(t, err)
	assert.Contains(t, md, "| Total Penyewaan | 39.030 |")
	assert.Contains(t, md, "| Spring | 9.789 | 1.631,50 |")
	assert.Contains(t, md, "| | cnt | temp | atemp | hum | windspeed |")
	assert.Contains(t, md, "## Conclusion")
	assert.Less(t, strings.Index(md, "| Winter |"), strings.Index(md, "| Summer |"))

	empty, err := Summary(Tables{Filter: f}, dcfg)
	require.NoError(t, err)
	assert.Contains(t, empty, "Tidak ada data untuk filter ini.")
}

func TestDescribeFilter(t *testing.T) {
	_, dcfg := config.Default()
	day, _ := loadTables(t)
	f, err := processor.DefaultFilter(day)
	require.NoError(t, err)

	assert.Equal(t, "Periode 2011-01-01 s/d 2012-12-30, pengguna casual + registered, bulan Semua, hari Semua.",
		DescribeFilter(f, dcfg))

	month, weekday := 5, 0
	f.Month, f.Weekday, f.UserTypes = &month, &weekday, []string{"registered"}
	assert.Equal(t, "Periode 2011-01-01 s/d 2012-12-30, pengguna registered, bulan Mei, hari Senin.",
		DescribeFilter(f, dcfg))
}

func TestTerminal(t *testing.T) {
	out, err := Terminal("# Bike Share Insight\n\nRingkasan **penyewaan**.\n", "notty", 80)
	require.NoError(t, err)
	assert.Contains(t, out, "Bike Share Insight")
	assert.Contains(t, out, "penyewaan")
}
