package processor

import (
	"BikeShareInsight/src/utils"
	"fmt"
	"sort"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// CorrelationColumns are the weather variables compared against cnt.
var CorrelationColumns = []string{"cnt", "temp", "atemp", "hum", "windspeed"}

// Labeler maps a raw category value to its display label.
type Labeler func(string) string

// GroupStat is the aggregate of one category.
type GroupStat struct {
	Key    string
	Label  string
	Sum    float64
	Mean   float64
	Count  int
	Values []float64
}

// Breakdown holds a measure split by two categories: one value per
// (series, category) pair, zero when the pair has no rows.
type Breakdown struct {
	Categories []string
	Series     []string
	Values     map[string][]float64
}

// Matrix is a square matrix with named rows and columns.
type Matrix struct {
	Names  []string
	Values [][]float64
}

// GroupBy aggregates measure per value of col. Groups come back in category
// order: preferred labels first (in the order given), then numeric keys, then
// the rest alphabetically.
func GroupBy(df dataframe.DataFrame, col, measure string, label Labeler, preferred []string) ([]GroupStat, error) {
	if !utils.HasColumn(df, col) || !utils.HasColumn(df, measure) {
		return nil, fmt.Errorf("group %s by %s: column missing", measure, col)
	}
	if df.Nrow() == 0 {
		return nil, nil
	}
	if label == nil {
		label = func(s string) string { return s }
	}

	groups := df.GroupBy(col)
	if groups.Err != nil {
		return nil, groups.Err
	}

	var stats []GroupStat
	for _, g := range groups.GetGroups() {
		if g.Nrow() == 0 {
			continue
		}
		key := g.Col(col).Elem(0).String()
		values := g.Col(measure).Float()
		stats = append(stats, GroupStat{
			Key:    key,
			Label:  label(key),
			Sum:    floats.Sum(values),
			Mean:   stat.Mean(values, nil),
			Count:  len(values),
			Values: values,
		})
	}

	sortCategories(stats, preferred)
	return stats, nil
}

func sortCategories(stats []GroupStat, preferred []string) {
	rank := make(map[string]int, len(preferred))
	for i, p := range preferred {
		rank[p] = i
	}
	sort.SliceStable(stats, func(i, j int) bool {
		ri, iok := rank[stats[i].Label]
		rj, jok := rank[stats[j].Label]
		if iok != jok {
			return iok
		}
		if iok {
			return ri < rj
		}
		ni, ierr := strconv.ParseFloat(stats[i].Key, 64)
		nj, jerr := strconv.ParseFloat(stats[j].Key, 64)
		if (ierr == nil) != (jerr == nil) {
			return ierr == nil
		}
		if ierr == nil {
			return ni < nj
		}
		return stats[i].Label < stats[j].Label
	})
}

// SortBySum orders a copy of stats by ascending sum.
func SortBySum(stats []GroupStat) []GroupStat {
	out := append([]GroupStat(nil), stats...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sum < out[j].Sum })
	return out
}

// CrossTotals sums measure by col and then by sub inside each col group.
func CrossTotals(df dataframe.DataFrame, col, sub, measure string, colLabel, subLabel Labeler, preferred []string) (Breakdown, error) {
	outer, err := GroupBy(df, col, measure, colLabel, preferred)
	if err != nil {
		return Breakdown{}, err
	}
	if !utils.HasColumn(df, sub) {
		return Breakdown{}, fmt.Errorf("group %s by %s: column missing", measure, sub)
	}

	b := Breakdown{Values: make(map[string][]float64)}
	cells := make([]map[string]float64, len(outer))
	var inner []GroupStat

	for i, o := range outer {
		b.Categories = append(b.Categories, o.Label)
		part := df.Filter(dataframe.F{Colname: col, Comparator: series.Eq, Comparando: o.Key})
		stats, err := GroupBy(part, sub, measure, subLabel, nil)
		if err != nil {
			return Breakdown{}, err
		}
		cells[i] = make(map[string]float64, len(stats))
		for _, s := range stats {
			cells[i][s.Label] = s.Sum
			if !containsLabel(inner, s.Label) {
				inner = append(inner, s)
			}
		}
	}

	sortCategories(inner, nil)
	for _, s := range inner {
		b.Series = append(b.Series, s.Label)
		row := make([]float64, len(outer))
		for i := range outer {
			row[i] = cells[i][s.Label]
		}
		b.Values[s.Label] = row
	}
	return b, nil
}

func containsLabel(stats []GroupStat, label string) bool {
	for _, s := range stats {
		if s.Label == label {
			return true
		}
	}
	return false
}

// Correlation returns the Pearson correlation matrix of cols.
func Correlation(df dataframe.DataFrame, cols []string) (Matrix, error) {
	data := make([][]float64, len(cols))
	for i, c := range cols {
		if !utils.HasColumn(df, c) {
			return Matrix{}, fmt.Errorf("correlation: column %s missing", c)
		}
		data[i] = df.Col(c).Float()
	}
	if df.Nrow() < 2 {
		return Matrix{}, fmt.Errorf("correlation needs at least 2 rows, got %d", df.Nrow())
	}

	m := Matrix{Names: append([]string(nil), cols...), Values: make([][]float64, len(cols))}
	for i := range cols {
		m.Values[i] = make([]float64, len(cols))
		for j := range cols {
			if i == j {
				m.Values[i][j] = 1
				continue
			}
			m.Values[i][j] = stat.Correlation(data[i], data[j], nil)
		}
	}
	return m, nil
}

// StatsFrame renders group stats as a table: label, sum, mean.
func StatsFrame(stats []GroupStat, labelName, sumName, meanName string) dataframe.DataFrame {
	labels := make([]string, len(stats))
	sums := make([]float64, len(stats))
	means := make([]float64, len(stats))
	for i, s := range stats {
		labels[i] = s.Label
		sums[i] = s.Sum
		means[i] = s.Mean
	}
	return dataframe.New(
		series.New(labels, series.String, labelName),
		series.New(sums, series.Float, sumName),
		series.New(means, series.Float, meanName),
	)
}

// MatrixFrame renders m as a table whose first column names the rows.
func MatrixFrame(m Matrix) dataframe.DataFrame {
	cols := []series.Series{series.New(m.Names, series.String, "variable")}
	for j, name := range m.Names {
		col := make([]float64, len(m.Names))
		for i := range m.Names {
			col[i] = m.Values[i][j]
		}
		cols = append(cols, series.New(col, series.Float, name))
	}
	return dataframe.New(cols...)
}
