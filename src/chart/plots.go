package chart

import (
	"BikeShareInsight/src/processor"
	"fmt"
	"image/color"
	"io"
	"math"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const yRentals = "Jumlah Penyewaan"

// seasonStats groups the clean table by season; an empty table has no groups.
func seasonStats(in Input) ([]processor.GroupStat, error) {
	if in.Clean.Nrow() == 0 {
		return nil, nil
	}
	return processor.GroupBy(in.Clean, "season", "cnt", in.Labels.SeasonLabel, seasonOrder(in.Labels))
}

func weatherStats(in Input) ([]processor.GroupStat, error) {
	if in.Clean.Nrow() == 0 {
		return nil, nil
	}
	return processor.GroupBy(in.Clean, "weathersit", "cnt", in.Labels.WeatherLabel, weatherOrder(in.Labels))
}

func rotateX(p *plot.Plot) {
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
}

func renderDaily(w io.Writer, in Input, c Chart) error {
	p := newPlot(c.Title, "Tanggal", yRentals)
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	rotateX(p)

	if in.View.Nrow() > 0 {
		dates, values, err := processor.DailySeries(in.View, in.Filter.UserTypes)
		if err != nil {
			return err
		}
		pts := make(plotter.XYs, len(dates))
		for i := range dates {
			pts[i].X = float64(dates[i].Unix())
			pts[i].Y = values[i]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = hexColor(in.Labels.Color("daily", "#bc8f8f"))
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(dailyLegend(in.Filter.UserTypes), line)
		p.Legend.Top = true
	}
	return save(p, w, c)
}

// dailyLegend names the plotted series: the cnt total, or the selected user types.
func dailyLegend(userTypes []string) string {
	if len(userTypes) == 0 || len(userTypes) == len(processor.UserTypes) {
		return "Total Penyewaan"
	}
	return "Penyewaan " + strings.Join(userTypes, " + ")
}

func renderSeasonTotals(w io.Writer, in Input, c Chart) error {
	stats, err := seasonStats(in)
	if err != nil {
		return err
	}
	p := newPlot(c.Title, "Musim", "Total Penyewaan")
	if err := addBars(p, stats, hexColor(in.Labels.Color("season", "#fa8072"))); err != nil {
		return err
	}
	rotateX(p)
	return save(p, w, c)
}

func renderWeatherTotals(w io.Writer, in Input, c Chart) error {
	stats, err := weatherStats(in)
	if err != nil {
		return err
	}
	p := newPlot(c.Title, "Kondisi Cuaca", "Total Penyewaan")
	if err := addBars(p, stats, hexColor(in.Labels.Color("weather", "#808000"))); err != nil {
		return err
	}
	rotateX(p)
	return save(p, w, c)
}

// addBars draws one bar per group sum, labelled on the X axis.
func addBars(p *plot.Plot, stats []processor.GroupStat, col color.Color) error {
	if len(stats) == 0 {
		return nil
	}
	values := make(plotter.Values, len(stats))
	labels := make([]string, len(stats))
	for i, s := range stats {
		values[i] = s.Sum
		labels[i] = s.Label
	}
	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		return err
	}
	bars.Color = col
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(labels...)
	return nil
}

func addMeanBars(p *plot.Plot, stats []processor.GroupStat) error {
	if len(stats) == 0 {
		return nil
	}
	values := make(plotter.Values, len(stats))
	labels := make([]string, len(stats))
	for i, s := range stats {
		values[i] = s.Mean
		labels[i] = s.Label
	}
	bars, err := plotter.NewBarChart(values, vg.Points(40))
	if err != nil {
		return err
	}
	bars.Color = pastelAt(1)
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(labels...)
	return nil
}

// addBoxes draws one pastel box per group.
func addBoxes(p *plot.Plot, stats []processor.GroupStat, ticks []string) error {
	for i, s := range stats {
		box, err := plotter.NewBoxPlot(vg.Points(50), float64(i), plotter.Values(s.Values))
		if err != nil {
			return fmt.Errorf("box %s: %w", s.Label, err)
		}
		box.FillColor = pastelAt(i)
		p.Add(box)
	}
	if len(stats) > 0 {
		p.NominalX(ticks...)
	}
	return nil
}

func renderSeasonBox(w io.Writer, in Input, c Chart) error {
	stats, err := seasonStats(in)
	if err != nil {
		return err
	}
	p := newPlot(c.Title, "Musim", yRentals)
	ticks := make([]string, len(stats))
	for i, s := range stats {
		ticks[i] = s.Label
	}
	if err := addBoxes(p, stats, ticks); err != nil {
		return err
	}
	return save(p, w, c)
}

// weatherTicks names each box with the configured tick of its weather code.
// order lists the category labels by code; categories outside order or
// without a configured tick keep their label.
func weatherTicks(stats []processor.GroupStat, order, configured []string) []string {
	ticks := make([]string, len(stats))
	for i, s := range stats {
		ticks[i] = s.Label
		for j, label := range order {
			if label == s.Label && j < len(configured) {
				ticks[i] = configured[j]
				break
			}
		}
	}
	return ticks
}

func renderWeatherBox(w io.Writer, in Input, c Chart) error {
	stats, err := weatherStats(in)
	if err != nil {
		return err
	}
	p := newPlot(c.Title, "Kondisi Cuaca", yRentals)
	if err := addBoxes(p, stats, weatherTicks(stats, weatherOrder(in.Labels), in.Labels.WeatherTicks)); err != nil {
		return err
	}
	return save(p, w, c)
}

func renderSeasonAggregation(w io.Writer, in Input, c Chart) error {
	stats, err := seasonStats(in)
	if err != nil {
		return err
	}
	stats = processor.SortBySum(stats)

	total := newPlot("Total Penyewaan Sepeda per Musim", "Musim", "Total Penyewaan")
	if err := addBars(total, stats, pastelAt(0)); err != nil {
		return err
	}
	mean := newPlot("Rata-rata Penyewaan Sepeda per Musim", "Musim", "Rata-rata Penyewaan")
	if err := addMeanBars(mean, stats); err != nil {
		return err
	}
	return saveRow(w, c, total, mean)
}

// saveRow lays plots out side by side on one PNG.
func saveRow(w io.Writer, c Chart, plots ...*plot.Plot) error {
	img := vgimg.New(c.Width, c.Height)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      1,
		Cols:      len(plots),
		PadX:      vg.Millimeter * 6,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	canvases := plot.Align([][]*plot.Plot{plots}, tiles, dc)
	for i, p := range plots {
		p.Draw(canvases[0][i])
	}
	_, err := vgimg.PngCanvas{Canvas: img}.WriteTo(w)
	return err
}

func renderSeasonYear(w io.Writer, in Input, c Chart) error {
	p := newPlot(c.Title, "Musim", "Total Penyewaan")
	if in.Clean.Nrow() > 0 {
		b, err := processor.CrossTotals(in.Clean, "season", "yr", "cnt", in.Labels.SeasonLabel, in.Labels.YearLabel, seasonOrder(in.Labels))
		if err != nil {
			return err
		}
		width := vg.Points(24)
		n := len(b.Series)
		p.Legend.Add("Tahun")
		for i, s := range b.Series {
			bars, err := plotter.NewBarChart(plotter.Values(b.Values[s]), width)
			if err != nil {
				return err
			}
			bars.Color = pastelAt(i)
			bars.LineStyle.Width = 0
			bars.Offset = width * vg.Length(float64(i)-float64(n-1)/2)
			p.Add(bars)
			p.Legend.Add(s, bars)
		}
		p.Legend.Top = true
		p.NominalX(b.Categories...)
	}
	return save(p, w, c)
}

// corrGrid adapts a correlation matrix to plotter.GridXYZ. Row 0 of the
// matrix is drawn at the top.
type corrGrid struct {
	m processor.Matrix
}

func (g corrGrid) Dims() (c, r int) {
	n := len(g.m.Names)
	return n, n
}

func (g corrGrid) Z(c, r int) float64 {
	return g.m.Values[len(g.m.Names)-1-r][c]
}

func (g corrGrid) X(c int) float64 { return float64(c) }

func (g corrGrid) Y(r int) float64 { return float64(r) }

func renderCorrelation(w io.Writer, in Input, c Chart) error {
	p := newPlot(c.Title, "", "")
	if in.Clean.Nrow() < 2 {
		return save(p, w, c)
	}
	m, err := processor.Correlation(in.Clean, processor.CorrelationColumns)
	if err != nil {
		return err
	}

	cm := moreland.SmoothBlueRed()
	cm.SetMin(-1)
	cm.SetMax(1)
	hm := plotter.NewHeatMap(corrGrid{m: m}, cm.Palette(255))
	hm.Min, hm.Max = -1, 1
	p.Add(hm)

	n := len(m.Names)
	xys := make(plotter.XYs, 0, n*n)
	texts := make([]string, 0, n*n)
	for r := 0; r < n; r++ {
		for col := 0; col < n; col++ {
			xys = append(xys, plotter.XY{X: float64(col), Y: float64(n - 1 - r)})
			texts = append(texts, fmt.Sprintf("%.2f", m.Values[r][col]))
		}
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(labels)

	yNames := make([]string, n)
	for i, name := range m.Names {
		yNames[n-1-i] = name
	}
	p.NominalX(m.Names...)
	p.NominalY(yNames...)
	return save(p, w, c)
}
