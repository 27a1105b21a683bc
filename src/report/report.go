// Package report holds the dashboard prose and turns markdown into HTML for
// the web page or styled text for the terminal.
package report

import (
	"BikeShareInsight/src/config"
	"BikeShareInsight/src/processor"
	"BikeShareInsight/src/utils"
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/go-gota/gota/dataframe"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed narrative/*.md
var narrative embed.FS

// Narrative section names, one per embedded markdown file.
const (
	Intro         = "intro"
	Questions     = "questions"
	Q1Intro       = "q1_intro"
	Q1Box         = "q1_box"
	Q1Aggregation = "q1_aggregation"
	Q1Year        = "q1_year"
	Q1Outro       = "q1_outro"
	Q2Intro       = "q2_intro"
	Q2Box         = "q2_box"
	Q2Correlation = "q2_correlation"
	Q2Aggregation = "q2_aggregation"
	Conclusion    = "conclusion"
	Credit        = "credit"
)

// Sections lists every narrative section in page order.
var Sections = []string{
	Intro, Questions,
	Q1Intro, Q1Box, Q1Aggregation, Q1Year, Q1Outro,
	Q2Intro, Q2Box, Q2Correlation, Q2Aggregation,
	Conclusion, Credit,
}

// Section returns the markdown source of a narrative section.
func Section(name string) (string, error) {
	b, err := narrative.ReadFile("narrative/" + name + ".md")
	if err != nil {
		return "", fmt.Errorf("narrative section %q: %w", name, err)
	}
	return string(b), nil
}

// HTMLRenderer converts markdown to HTML with goldmark.
type HTMLRenderer struct {
	md goldmark.Markdown
}

func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{md: goldmark.New(goldmark.WithExtensions(extension.Table))}
}

// HTML renders src. The markdown is trusted repository content.
func (r *HTMLRenderer) HTML(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Sections renders every narrative section, keyed by name.
func (r *HTMLRenderer) Sections() (map[string]template.HTML, error) {
	out := make(map[string]template.HTML, len(Sections))
	for _, name := range Sections {
		src, err := Section(name)
		if err != nil {
			return nil, err
		}
		html, err := r.HTML(src)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", name, err)
		}
		out[name] = html
	}
	return out, nil
}

// Terminal renders src for a terminal. style is a glamour style name
// ("dark", "light", "notty"); empty picks one from the environment.
func Terminal(src, style string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStylePath(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", err
	}
	return r.Render(src)
}

// Tables is the aggregated data a summary reports on.
type Tables struct {
	Metrics processor.Metrics
	Filter  processor.Filter
	Season  []processor.GroupStat
	Weather []processor.GroupStat
	Corr    processor.Matrix
}

// Analyze aggregates the clean table and summarises the filtered view.
// Season and weather groups are ordered by ascending total.
func Analyze(view, clean dataframe.DataFrame, f processor.Filter, dcfg *config.DataConfig) (Tables, error) {
	t := Tables{Filter: f}

	m, err := processor.NewDataProcessor(view).CalculateMetrics()
	if err != nil {
		return t, err
	}
	t.Metrics = m

	if clean.Nrow() == 0 {
		return t, nil
	}
	season, err := processor.GroupBy(clean, "season", "cnt", dcfg.SeasonLabel, nil)
	if err != nil {
		return t, err
	}
	weather, err := processor.GroupBy(clean, "weathersit", "cnt", dcfg.WeatherLabel, nil)
	if err != nil {
		return t, err
	}
	t.Season = processor.SortBySum(season)
	t.Weather = processor.SortBySum(weather)

	if clean.Nrow() >= 2 {
		if t.Corr, err = processor.Correlation(clean, processor.CorrelationColumns); err != nil {
			return t, err
		}
	}
	return t, nil
}

// Summary writes a markdown report of a filtered view followed by the
// conclusions.
func Summary(t Tables, dcfg *config.DataConfig) (string, error) {
	var b strings.Builder

	b.WriteString("# Bike Share Insight\n\n")
	b.WriteString("## Filter\n\n")
	b.WriteString(DescribeFilter(t.Filter, dcfg))
	b.WriteString("\n\n## Ringkasan\n\n")
	if t.Metrics.Days == 0 {
		b.WriteString("Tidak ada data untuk filter ini.\n\n")
	} else {
		b.WriteString("| Ukuran | Nilai |\n|---|---:|\n")
		fmt.Fprintf(&b, "| Jumlah Hari | %s |\n", utils.FormatInt(float64(t.Metrics.Days)))
		fmt.Fprintf(&b, "| Total Penyewaan | %s |\n", utils.FormatInt(t.Metrics.Total))
		fmt.Fprintf(&b, "| Casual | %s |\n", utils.FormatInt(t.Metrics.Casual))
		fmt.Fprintf(&b, "| Registered | %s |\n", utils.FormatInt(t.Metrics.Registered))
		fmt.Fprintf(&b, "| Rata-rata per Hari | %s |\n\n", utils.FormatFloat(t.Metrics.MeanPerDay, 2))
	}

	b.WriteString("## Agregasi Penyewaan per Musim\n\n")
	writeStats(&b, "Musim", t.Season)
	b.WriteString("## Agregasi Penyewaan Berdasarkan Kondisi Cuaca\n\n")
	writeStats(&b, "Kondisi Cuaca", t.Weather)

	if len(t.Corr.Names) > 0 {
		b.WriteString("## Matriks Korelasi\n\n")
		b.WriteString("| | " + strings.Join(t.Corr.Names, " | ") + " |\n|---|")
		b.WriteString(strings.Repeat("---:|", len(t.Corr.Names)) + "\n")
		for i, name := range t.Corr.Names {
			b.WriteString("| " + name + " |")
			for _, v := range t.Corr.Values[i] {
				b.WriteString(" " + utils.FormatFloat(v, 2) + " |")
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	conclusion, err := Section(Conclusion)
	if err != nil {
		return "", err
	}
	b.WriteString(conclusion)
	return b.String(), nil
}

func writeStats(b *strings.Builder, label string, stats []processor.GroupStat) {
	if len(stats) == 0 {
		b.WriteString("Tidak ada data.\n\n")
		return
	}
	fmt.Fprintf(b, "| %s | Total Penyewaan | Rata-rata Penyewaan |\n|---|---:|---:|\n", label)
	for _, s := range stats {
		fmt.Fprintf(b, "| %s | %s | %s |\n", s.Label, utils.FormatInt(s.Sum), utils.FormatFloat(s.Mean, 2))
	}
	b.WriteString("\n")
}

// DescribeFilter is a one-line human description of f.
func DescribeFilter(f processor.Filter, dcfg *config.DataConfig) string {
	month, weekday := dcfg.All(), dcfg.All()
	if f.Month != nil {
		month = dcfg.MonthLabel(*f.Month)
	}
	if f.Weekday != nil {
		weekday = dcfg.WeekdayLabel(*f.Weekday)
	}
	users := f.UserTypes
	if len(users) == 0 {
		users = processor.UserTypes
	}
	return fmt.Sprintf("Periode %s s/d %s, pengguna %s, bulan %s, hari %s.",
		f.Start.Format(utils.DateLayout), f.End.Format(utils.DateLayout),
		strings.Join(users, " + "), month, weekday)
}
