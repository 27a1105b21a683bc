package processor

import (
	"BikeShareInsight/src/utils"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

const dateColumn = "dteday"

// UserTypes are the rental count columns a user can select.
var UserTypes = []string{"casual", "registered"}

// Filter is the sidebar selection. A nil Month or Weekday means "All".
type Filter struct {
	Start     time.Time
	End       time.Time
	UserTypes []string
	Month     *int
	Weekday   *int
}

// DateBounds returns the first and last date of the dteday column.
func DateBounds(df dataframe.DataFrame) (time.Time, time.Time, error) {
	if df.Nrow() == 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("table is empty")
	}
	var minDate, maxDate time.Time
	for i, s := range df.Col(dateColumn).Records() {
		t, err := utils.ParseDate(s)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("row %d: %w", i+1, err)
		}
		if minDate.IsZero() || t.Before(minDate) {
			minDate = t
		}
		if t.After(maxDate) {
			maxDate = t
		}
	}
	return minDate, maxDate, nil
}

// DefaultFilter selects every row of df.
func DefaultFilter(df dataframe.DataFrame) (Filter, error) {
	start, end, err := DateBounds(df)
	if err != nil {
		return Filter{}, err
	}
	return Filter{Start: start, End: end, UserTypes: append([]string(nil), UserTypes...)}, nil
}

// ParseFilter reads a Filter from query values. Missing dates fall back to
// the table bounds; month and weekday accept "All" or an empty value.
//
//	start, end: YYYY-MM-DD
//	user:       repeated, casual | registered
//	month:      1..12 | All
//	weekday:    0..6 | All
func ParseFilter(values url.Values, minDate, maxDate time.Time) (Filter, error) {
	f := Filter{Start: minDate, End: maxDate}

	if s := values.Get("start"); s != "" {
		t, err := time.Parse(utils.DateLayout, s)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid start date %q", s)
		}
		f.Start = t
	}
	if s := values.Get("end"); s != "" {
		t, err := time.Parse(utils.DateLayout, s)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid end date %q", s)
		}
		f.End = t
	}

	for _, u := range values["user"] {
		if !utils.Contains(UserTypes, u) {
			return Filter{}, fmt.Errorf("invalid user type %q", u)
		}
		if !utils.Contains(f.UserTypes, u) {
			f.UserTypes = append(f.UserTypes, u)
		}
	}
	if len(f.UserTypes) == 0 {
		f.UserTypes = append([]string(nil), UserTypes...)
	}

	var err error
	if f.Month, err = parseChoice(values.Get("month"), 1, 12); err != nil {
		return Filter{}, fmt.Errorf("invalid month: %w", err)
	}
	if f.Weekday, err = parseChoice(values.Get("weekday"), 0, 6); err != nil {
		return Filter{}, fmt.Errorf("invalid weekday: %w", err)
	}
	return f, nil
}

func parseChoice(s string, lo, hi int) (*int, error) {
	if s == "" || s == "All" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", s)
	}
	if n < lo || n > hi {
		return nil, fmt.Errorf("%d outside %d..%d", n, lo, hi)
	}
	return &n, nil
}

// Values encodes f as query values that ParseFilter reads back.
func (f Filter) Values() url.Values {
	v := url.Values{}
	v.Set("start", f.Start.Format(utils.DateLayout))
	v.Set("end", f.End.Format(utils.DateLayout))
	for _, u := range f.UserTypes {
		v.Add("user", u)
	}
	if f.Month != nil {
		v.Set("month", strconv.Itoa(*f.Month))
	} else {
		v.Set("month", "All")
	}
	if f.Weekday != nil {
		v.Set("weekday", strconv.Itoa(*f.Weekday))
	} else {
		v.Set("weekday", "All")
	}
	return v
}

// ApplyFilter returns the rows of the daily table matching f.
// Chained Filter calls AND together; the user-type filter ORs the selected columns.
func ApplyFilter(df dataframe.DataFrame, f Filter) dataframe.DataFrame {
	steps := []func(dataframe.DataFrame) dataframe.DataFrame{
		func(d dataframe.DataFrame) dataframe.DataFrame {
			return d.Filter(dataframe.F{
				Colname:    dateColumn,
				Comparator: series.GreaterEq,
				Comparando: f.Start.Format(utils.DateLayout),
			})
		},
		func(d dataframe.DataFrame) dataframe.DataFrame {
			return d.Filter(dataframe.F{
				Colname:    dateColumn,
				Comparator: series.LessEq,
				Comparando: f.End.Format(utils.DateLayout),
			})
		},
		func(d dataframe.DataFrame) dataframe.DataFrame {
			users := f.UserTypes
			if len(users) == 0 {
				users = UserTypes
			}
			filters := make([]dataframe.F, 0, len(users))
			for _, u := range users {
				filters = append(filters, dataframe.F{Colname: u, Comparator: series.Greater, Comparando: 0})
			}
			return d.FilterAggregation(dataframe.Or, filters...)
		},
	}
	if f.Month != nil {
		month := *f.Month
		steps = append(steps, func(d dataframe.DataFrame) dataframe.DataFrame {
			return d.Filter(dataframe.F{Colname: "mnth", Comparator: series.Eq, Comparando: month})
		})
	}
	if f.Weekday != nil {
		weekday := *f.Weekday
		steps = append(steps, func(d dataframe.DataFrame) dataframe.DataFrame {
			return d.Filter(dataframe.F{Colname: "weekday", Comparator: series.Eq, Comparando: weekday})
		})
	}

	for _, step := range steps {
		if df.Nrow() == 0 {
			break
		}
		df = step(df)
	}
	return df
}

// DailySeries returns each row's date and the rentals of the selected user
// types. With both types selected this is the cnt column.
func DailySeries(df dataframe.DataFrame, userTypes []string) ([]time.Time, []float64, error) {
	n := df.Nrow()
	dates := make([]time.Time, 0, n)
	for i, s := range df.Col(dateColumn).Records() {
		t, err := utils.ParseDate(s)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		dates = append(dates, t)
	}

	if len(userTypes) == 0 || len(userTypes) == len(UserTypes) {
		return dates, df.Col("cnt").Float(), nil
	}

	values := make([]float64, n)
	for _, u := range userTypes {
		for i, v := range df.Col(u).Float() {
			values[i] += v
		}
	}
	return dates, values, nil
}
