package web

import (
	"BikeShareInsight/src/processor"
	"BikeShareInsight/src/report"
	"BikeShareInsight/src/utils"
	"html/template"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

type option struct {
	Value    string
	Label    string
	Selected bool
}

// table is a DataFrame already formatted for display.
type table struct {
	Columns []string
	Rows    [][]string
}

type chartRef struct {
	Title string
	URL   string
}

type tab struct {
	ID      string
	Label   string
	Chart   *chartRef
	Table   *table
	Insight template.HTML
}

type page struct {
	Title     string
	Narrative map[string]template.HTML

	Start         string
	End           string
	MinDate       string
	MaxDate       string
	Users         []option
	Months        []option
	Weekdays      []option
	AllLabel      string
	FilterSummary string
	Query         string

	Rows        int
	Metrics     []option
	Data        table
	Overview    []chartRef
	SeasonTabs  []tab
	WeatherTabs []tab
	ExportXLSX  string
	ExportCSV   string
}

func (s *Server) buildPage(req request) (page, error) {
	f := req.filter
	minDate, maxDate, err := processor.DateBounds(req.snap.Day)
	if err != nil {
		return page{}, err
	}
	tables, err := report.Analyze(req.view, req.snap.Clean, f, s.dcfg)
	if err != nil {
		return page{}, err
	}

	query := f.Values().Encode()
	chartURL := func(name string) string { return "/chart/" + name + "?" + query }

	p := page{
		Title:         "Bike Share Insight",
		Narrative:     s.narrative,
		Start:         f.Start.Format(utils.DateLayout),
		End:           f.End.Format(utils.DateLayout),
		MinDate:       minDate.Format(utils.DateLayout),
		MaxDate:       maxDate.Format(utils.DateLayout),
		AllLabel:      s.dcfg.All(),
		FilterSummary: report.DescribeFilter(f, s.dcfg),
		Query:         query,
		Rows:          req.view.Nrow(),
		Data:          formatTable(req.view),
		ExportXLSX:    "/export.xlsx?" + query,
		ExportCSV:     "/export.csv?" + query,
	}

	for _, u := range processor.UserTypes {
		p.Users = append(p.Users, option{Value: u, Label: u, Selected: utils.Contains(f.UserTypes, u)})
	}
	p.Months = choices(1, 12, f.Month, s.dcfg.MonthLabel, s.dcfg.All())
	p.Weekdays = choices(0, 6, f.Weekday, s.dcfg.WeekdayLabel, s.dcfg.All())

	if m := tables.Metrics; m.Days > 0 {
		p.Metrics = []option{
			{Label: "Jumlah Hari", Value: utils.FormatInt(float64(m.Days))},
			{Label: "Total Penyewaan", Value: utils.FormatInt(m.Total)},
			{Label: "Casual", Value: utils.FormatInt(m.Casual)},
			{Label: "Registered", Value: utils.FormatInt(m.Registered)},
			{Label: "Rata-rata per Hari", Value: utils.FormatFloat(m.MeanPerDay, 2)},
		}
	}

	p.Overview = []chartRef{
		{Title: "Pergerakan Penyewaan Sepeda Harian", URL: chartURL("daily")},
		{Title: "Distribusi Penyewaan Berdasarkan Musim", URL: chartURL("season-totals")},
		{Title: "Pengaruh Kondisi Cuaca Terhadap Penyewaan", URL: chartURL("weather-totals")},
	}

	p.SeasonTabs = []tab{
		{ID: "season-box", Label: "Distribusi Musiman", Chart: &chartRef{URL: chartURL("season-box")}, Insight: s.narrative[report.Q1Box]},
		{ID: "season-aggregation", Label: "Total Musiman", Chart: &chartRef{URL: chartURL("season-aggregation")}, Insight: s.narrative[report.Q1Aggregation]},
		{ID: "season-year", Label: "2011 v.s 2012", Chart: &chartRef{URL: chartURL("season-year")}, Insight: s.narrative[report.Q1Year]},
	}

	weather := formatTable(processor.StatsFrame(tables.Weather, "Kondisi Cuaca", "Total Penyewaan", "Rata-rata Penyewaan"))
	p.WeatherTabs = []tab{
		{ID: "weather-box", Label: "Distribusi Penyewaan", Chart: &chartRef{Title: "Distribusi Penyewaan Sepeda Berdasarkan Kondisi Cuaca", URL: chartURL("weather-box")}, Insight: s.narrative[report.Q2Box]},
		{ID: "correlation", Label: "Matriks Korelasi", Chart: &chartRef{Title: "Matriks Korelasi antara Jumlah Penyewaan dan Variabel Cuaca", URL: chartURL("correlation")}, Insight: s.narrative[report.Q2Correlation]},
		{ID: "weather-aggregation", Label: "Agregasi Penyewaan", Table: &weather, Insight: s.narrative[report.Q2Aggregation]},
	}
	return p, nil
}

// choices builds a select list lo..hi followed by the "All" option, which is
// selected when current is nil.
func choices(lo, hi int, current *int, label func(int) string, all string) []option {
	opts := make([]option, 0, hi-lo+2)
	for v := lo; v <= hi; v++ {
		opts = append(opts, option{
			Value:    strconv.Itoa(v),
			Label:    label(v),
			Selected: current != nil && *current == v,
		})
	}
	return append(opts, option{Value: "All", Label: all, Selected: current == nil})
}

// formatTable renders every cell as display text: integers with digit
// grouping, floats with up to four decimals.
func formatTable(df dataframe.DataFrame) table {
	t := table{Columns: df.Names()}
	cols := make([]series.Series, len(t.Columns))
	for j, name := range t.Columns {
		cols[j] = df.Col(name)
	}
	for i := 0; i < df.Nrow(); i++ {
		row := make([]string, len(cols))
		for j, col := range cols {
			row[j] = formatCell(col, i)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func formatCell(col series.Series, i int) string {
	e := col.Elem(i)
	if e.IsNA() {
		return ""
	}
	switch col.Type() {
	case series.Int:
		return utils.FormatInt(e.Float())
	case series.Float:
		v := e.Float()
		if v == float64(int64(v)) {
			return utils.FormatInt(v)
		}
		return utils.FormatFloat(v, 4)
	default:
		return e.String()
	}
}
