// Package chart draws the dashboard figures as PNG images with gonum/plot.
package chart

import (
	"BikeShareInsight/src/config"
	"BikeShareInsight/src/processor"
	"fmt"
	"image/color"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

// Input is everything a chart may draw from.
type Input struct {
	View   dataframe.DataFrame // filtered daily table
	Clean  dataframe.DataFrame // cleaned table
	Filter processor.Filter
	Labels *config.DataConfig
}

// Chart is one named figure.
type Chart struct {
	Name   string
	Title  string
	Width  vg.Length
	Height vg.Length
	render func(w io.Writer, in Input, c Chart) error
}

var registry = map[string]Chart{}

func register(c Chart) {
	registry[c.Name] = c
}

func init() {
	register(Chart{Name: "daily", Title: "Pergerakan Penyewaan Sepeda Harian", Width: 5 * vg.Inch, Height: 5 * vg.Inch, render: renderDaily})
	register(Chart{Name: "season-totals", Title: "Total Penyewaan per Musim", Width: 5 * vg.Inch, Height: 4 * vg.Inch, render: renderSeasonTotals})
	register(Chart{Name: "weather-totals", Title: "Total Penyewaan Berdasarkan Kondisi Cuaca", Width: 5 * vg.Inch, Height: 4 * vg.Inch, render: renderWeatherTotals})
	register(Chart{Name: "season-box", Title: "Distribusi Penyewaan Sepeda Berdasarkan Musim", Width: 10 * vg.Inch, Height: 6 * vg.Inch, render: renderSeasonBox})
	register(Chart{Name: "season-aggregation", Title: "Total dan Rata-rata Penyewaan Sepeda per Musim", Width: 12 * vg.Inch, Height: 6 * vg.Inch, render: renderSeasonAggregation})
	register(Chart{Name: "season-year", Title: "Perbandingan Penyewaan Sepeda Tahun 2011 dan 2012 Berdasarkan Musim", Width: 10 * vg.Inch, Height: 6 * vg.Inch, render: renderSeasonYear})
	register(Chart{Name: "weather-box", Title: "Distribusi Penyewaan Sepeda Berdasarkan Kondisi Cuaca", Width: 10 * vg.Inch, Height: 6 * vg.Inch, render: renderWeatherBox})
	register(Chart{Name: "correlation", Title: "Matriks Korelasi antara Jumlah Penyewaan dan Variabel Cuaca", Width: 8 * vg.Inch, Height: 6 * vg.Inch, render: renderCorrelation})
}

// Names lists the registered charts in a stable order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the chart called name.
func Lookup(name string) (Chart, bool) {
	c, ok := registry[name]
	return c, ok
}

// Render draws the chart called name as PNG on w.
func Render(name string, w io.Writer, in Input) error {
	c, ok := registry[name]
	if !ok {
		return fmt.Errorf("unknown chart %q", name)
	}
	if in.Labels == nil {
		_, in.Labels = config.Default()
	}
	if err := c.render(w, in, c); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}

// pastel is the seaborn "pastel" palette.
var pastel = []color.Color{
	hexColor("#a1c9f4"), hexColor("#ffb482"), hexColor("#8de5a1"), hexColor("#ff9f9b"),
	hexColor("#d0bbff"), hexColor("#debb9b"), hexColor("#fab0e4"), hexColor("#cfcfcf"),
}

func pastelAt(i int) color.Color {
	return pastel[i%len(pastel)]
}

// hexColor parses "#rrggbb"; anything else comes back gray.
func hexColor(s string) color.Color {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.Gray{Y: 128}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.Gray{Y: 128}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	return p
}

func save(p *plot.Plot, w io.Writer, c Chart) error {
	wt, err := p.WriterTo(c.Width, c.Height, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

func seasonOrder(labels *config.DataConfig) []string {
	return codeOrder(labels.SeasonLabel, 4)
}

func weatherOrder(labels *config.DataConfig) []string {
	return codeOrder(labels.WeatherLabel, 4)
}

func codeOrder(label func(string) string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = label(strconv.Itoa(i + 1))
	}
	return out
}
