package processor

import (
	"BikeShareInsight/src/datasource/file"
	"net/url"
	"testing"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadDay(t *testing.T) dataframe.DataFrame {
	t.Helper()
	df, err := file.ReadTable("../datasource/file/testdata/day.csv", "")
	require.NoError(t, err)
	return df
}

func loadClean(t *testing.T) dataframe.DataFrame {
	t.Helper()
	df, err := file.ReadTable("../datasource/file/testdata/clean_bike_share_data.csv", "")
	require.NoError(t, err)
	return df
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func intp(n int) *int { return &n }

func TestDefaultFilterKeepsEverything(t *testing.T) {
	df := loadDay(t)

	f, err := DefaultFilter(df)
	require.NoError(t, err)
	assert.Equal(t, date("2011-01-01"), f.Start)
	assert.Equal(t, date("2012-12-30"), f.End)
	assert.Equal(t, []string{"casual", "registered"}, f.UserTypes)

	assert.Equal(t, df.Nrow(), ApplyFilter(df, f).Nrow())
}

func TestApplyFilter(t *testing.T) {
	df := loadDay(t)
	all, err := DefaultFilter(df)
	require.NoError(t, err)

	tests := []struct {
		name  string
		tweak func(f *Filter)
		dates []string
	}{
		{
			name:  "inclusive date range",
			tweak: func(f *Filter) { f.Start, f.End = date("2011-01-02"), date("2011-04-10") },
			dates: []string{"2011-01-02", "2011-01-03", "2011-01-04", "2011-04-10"},
		},
		{
			name:  "single day",
			tweak: func(f *Filter) { f.Start, f.End = date("2012-05-12"), date("2012-05-12") },
			dates: []string{"2012-05-12"},
		},
		{
			name:  "month",
			tweak: func(f *Filter) { f.Month = intp(1) },
			dates: []string{"2011-01-01", "2011-01-02", "2011-01-03", "2011-01-04", "2012-01-05"},
		},
		{
			name:  "weekday",
			tweak: func(f *Filter) { f.Weekday = intp(0) },
			dates: []string{"2011-01-02", "2011-04-10", "2012-12-30"},
		},
		{
			name:  "month and weekday",
			tweak: func(f *Filter) { f.Month, f.Weekday = intp(1), intp(0) },
			dates: []string{"2011-01-02"},
		},
		{
			name:  "casual riders only",
			tweak: func(f *Filter) { f.Month, f.UserTypes = intp(10), []string{"casual"} },
			dates: []string{"2011-10-20"},
		},
		{
			name:  "registered riders only",
			tweak: func(f *Filter) { f.Month, f.UserTypes = intp(10), []string{"registered"} },
			dates: []string{"2011-10-20", "2012-10-29"},
		},
		{
			name:  "no match",
			tweak: func(f *Filter) { f.Month, f.Weekday = intp(2), intp(3) },
			dates: nil,
		},
		{
			name:  "inverted range",
			tweak: func(f *Filter) { f.Start, f.End = date("2012-01-01"), date("2011-01-01") },
			dates: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := all
			tt.tweak(&f)
			got := ApplyFilter(df, f)
			require.NoError(t, got.Err)
			if tt.dates == nil {
				assert.Equal(t, 0, got.Nrow())
				return
			}
			assert.Equal(t, tt.dates, got.Col("dteday").Records())
		})
	}
}

func TestParseFilter(t *testing.T) {
	minDate, maxDate := date("2011-01-01"), date("2012-12-31")

	f, err := ParseFilter(url.Values{}, minDate, maxDate)
	require.NoError(t, err)
	assert.Equal(t, minDate, f.Start)
	assert.Equal(t, maxDate, f.End)
	assert.Equal(t, UserTypes, f.UserTypes)
	assert.Nil(t, f.Month)
	assert.Nil(t, f.Weekday)

	f, err = ParseFilter(url.Values{
		"start":   {"2011-03-01"},
		"end":     {"2011-06-30"},
		"user":    {"registered", "registered"},
		"month":   {"4"},
		"weekday": {"All"},
	}, minDate, maxDate)
	require.NoError(t, err)
	assert.Equal(t, date("2011-03-01"), f.Start)
	assert.Equal(t, date("2011-06-30"), f.End)
	assert.Equal(t, []string{"registered"}, f.UserTypes)
	require.NotNil(t, f.Month)
	assert.Equal(t, 4, *f.Month)
	assert.Nil(t, f.Weekday)

	for _, bad := range []url.Values{
		{"start": {"01/03/2011"}},
		{"end": {"tomorrow"}},
		{"user": {"tourist"}},
		{"month": {"13"}},
		{"month": {"Mei"}},
		{"weekday": {"7"}},
	} {
		_, err := ParseFilter(bad, minDate, maxDate)
		assert.Error(t, err, bad.Encode())
	}
}

func TestFilterValuesRoundTrip(t *testing.T) {
	in := Filter{
		Start:     date("2011-02-01"),
		End:       date("2011-02-28"),
		UserTypes: []string{"casual"},
		Weekday:   intp(5),
	}

	v := in.Values()
	assert.Equal(t, "All", v.Get("month"))

	out, err := ParseFilter(v, date("2011-01-01"), date("2012-12-31"))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDailySeries(t *testing.T) {
	df := loadDay(t)
	f, err := DefaultFilter(df)
	require.NoError(t, err)
	f.Month = intp(1)
	view := ApplyFilter(df, f)

	dates, values, err := DailySeries(view, []string{"casual", "registered"})
	require.NoError(t, err)
	assert.Len(t, dates, 5)
	assert.Equal(t, date("2012-01-05"), dates[4])
	assert.Equal(t, []float64{985, 801, 1349, 1562, 3296}, values)

	_, values, err = DailySeries(view, []string{"casual"})
	require.NoError(t, err)
	assert.Equal(t, []float64{331, 131, 120, 108, 130}, values)
}

func TestDateBoundsEmpty(t *testing.T) {
	df := loadDay(t)
	f, err := DefaultFilter(df)
	require.NoError(t, err)
	f.Month = intp(2)

	_, _, err = DateBounds(ApplyFilter(df, f))
	assert.Error(t, err)
}
