// reader.go
package file

import (
	"BikeShareInsight/src/utils"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/tealeg/xlsx"
)

// DateColumn holds the rental day in both tables.
const DateColumn = "dteday"

// DayColumns must be present in the daily table.
var DayColumns = []string{
	DateColumn, "season", "yr", "mnth", "weekday", "weathersit",
	"temp", "atemp", "hum", "windspeed", "casual", "registered", "cnt",
}

// CleanColumns must be present in the cleaned table.
var CleanColumns = []string{
	"season", "yr", "weathersit", "temp", "atemp", "hum", "windspeed", "cnt",
}

// columnTypes pins columns whose detected type would otherwise vary between files.
var columnTypes = map[string]series.Type{
	DateColumn:   series.String,
	"season":     series.String,
	"weathersit": series.String,
	"yr":         series.String,
	"mnth":       series.Int,
	"weekday":    series.Int,
	"casual":     series.Int,
	"registered": series.Int,
	"cnt":        series.Int,
	"temp":       series.Float,
	"atemp":      series.Float,
	"hum":        series.Float,
	"windspeed":  series.Float,
}

// ReadTable loads a .csv or .xlsx file into a DataFrame with normalised dates.
func ReadTable(filePath, sheetName string) (dataframe.DataFrame, error) {
	var (
		df  dataframe.DataFrame
		err error
	)

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".xlsx":
		df, err = ReadXLSX(filePath, sheetName)
	case ".csv", "":
		var f *os.File
		f, err = os.Open(filePath)
		if err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("open %s: %w", filePath, err)
		}
		defer f.Close()
		df, err = ReadCSV(f)
	default:
		return dataframe.DataFrame{}, fmt.Errorf("unsupported table format %s", filePath)
	}
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("read %s: %w", filePath, err)
	}

	if utils.HasColumn(df, DateColumn) {
		df, err = NormalizeDates(df, DateColumn)
		if err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("read %s: %w", filePath, err)
		}
	}
	return df, nil
}

// ReadCSV parses CSV data with a header row.
func ReadCSV(r io.Reader) (dataframe.DataFrame, error) {
	df := dataframe.ReadCSV(r, dataframe.WithTypes(columnTypes))
	if df.Err != nil {
		return dataframe.DataFrame{}, df.Err
	}
	return df, nil
}

// ReadXLSX reads sheetName (or the first sheet when empty); the first row is the header.
func ReadXLSX(filePath, sheetName string) (dataframe.DataFrame, error) {
	xlFile, err := xlsx.OpenFile(filePath)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("xlsx open file: %w", err)
	}

	if len(xlFile.Sheets) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("workbook has no sheets")
	}

	sheet := xlFile.Sheets[0]
	if sheetName != "" {
		s, ok := xlFile.Sheet[sheetName]
		if !ok {
			return dataframe.DataFrame{}, fmt.Errorf("sheet %s not found", sheetName)
		}
		sheet = s
	}

	return convertSheetToDataFrame(sheet)
}

// convertSheetToDataFrame turns an xlsx.Sheet into a DataFrame with detected
// types. Serial numbers in the date column are turned into dates here; only
// xlsx cells store dates that way.
func convertSheetToDataFrame(sheet *xlsx.Sheet) (dataframe.DataFrame, error) {
	if len(sheet.Rows) < 2 {
		return dataframe.DataFrame{}, fmt.Errorf("sheet %s has no data rows", sheet.Name)
	}

	var headers []string
	dateIdx := -1
	for i, cell := range sheet.Rows[0].Cells {
		name := strings.TrimSpace(cell.Value)
		if name == DateColumn {
			dateIdx = i
		}
		headers = append(headers, name)
	}

	records := make([][]string, 0, len(sheet.Rows))
	records = append(records, headers)
	for _, row := range sheet.Rows[1:] {
		record := make([]string, len(headers))
		empty := true
		for i, cell := range row.Cells {
			if i >= len(headers) {
				continue
			}
			value := cell.Value
			if i == dateIdx {
				if t, err := utils.ParseExcelDate(value); err == nil {
					value = t.Format(utils.DateLayout)
				}
			}
			record[i] = value
			if value != "" {
				empty = false
			}
		}
		if !empty {
			records = append(records, record)
		}
	}

	df := dataframe.LoadRecords(records, dataframe.WithTypes(columnTypes))
	if df.Err != nil {
		return dataframe.DataFrame{}, df.Err
	}
	return df, nil
}

// NormalizeDates rewrites col into the 2006-01-02 layout so that string
// comparison on the column orders rows by date.
func NormalizeDates(df dataframe.DataFrame, col string) (dataframe.DataFrame, error) {
	raw := df.Col(col).Records()
	out := make([]string, len(raw))
	for i, s := range raw {
		t, err := utils.ParseDate(s)
		if err != nil {
			return df, fmt.Errorf("row %d column %s: %w", i+1, col, err)
		}
		out[i] = t.Format(utils.DateLayout)
	}

	df = df.Mutate(series.New(out, series.String, col))
	if df.Err != nil {
		return df, df.Err
	}
	return df, nil
}

// RequireColumns fails with the list of missing column names.
func RequireColumns(df dataframe.DataFrame, cols []string) error {
	var missing []string
	for _, c := range cols {
		if !utils.HasColumn(df, c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}
