// data.go
package processor

import (
	"time"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/floats"
)

// Metrics is the headline summary of a filtered view.
type Metrics struct {
	Days       int
	Total      float64
	Casual     float64
	Registered float64
	MeanPerDay float64
	From       time.Time
	To         time.Time
}

type DataProcessor struct {
	df dataframe.DataFrame
}

func NewDataProcessor(df dataframe.DataFrame) *DataProcessor {
	return &DataProcessor{df: df}
}

// CalculateMetrics sums the rental columns of the view.
func (p *DataProcessor) CalculateMetrics() (Metrics, error) {
	m := Metrics{Days: p.df.Nrow()}
	if m.Days == 0 {
		return m, nil
	}

	from, to, err := DateBounds(p.df)
	if err != nil {
		return m, err
	}
	m.From, m.To = from, to

	m.Total = floats.Sum(p.df.Col("cnt").Float())
	m.Casual = floats.Sum(p.df.Col("casual").Float())
	m.Registered = floats.Sum(p.df.Col("registered").Float())
	m.MeanPerDay = m.Total / float64(m.Days)
	return m, nil
}
