package utils

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DateLayout is the canonical layout of the dteday column after loading.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"1/2/2006",
	"01/02/2006",
	"01-02-2006 15:04:05",
	time.RFC3339,
}

func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// HasColumn reports whether df has a column called name.
func HasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// ParseDate parses s with the known layouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// maxExcelSerial is 9999-12-31, the last day Excel can store.
const maxExcelSerial = 2958465

// ParseExcelDate is ParseDate for xlsx cells, where date cells come out as
// serial day numbers. The time-of-day fraction is dropped.
func ParseExcelDate(s string) (time.Time, error) {
	if t, err := ParseDate(s); err == nil {
		return t, nil
	}
	serial, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognised date %q", s)
	}
	if serial < 1 || serial >= maxExcelSerial+1 {
		return time.Time{}, fmt.Errorf("excel serial date %q out of range", s)
	}
	return excelToTime(math.Floor(serial)), nil
}

// excelToTime converts an Excel serial day number to a date.
func excelToTime(excelDays float64) time.Time {
	// Excel counts the non-existent 1900-02-29
	if excelDays >= 60 {
		excelDays -= 1
	}
	base := time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, int(excelDays))
}

// SaveToExcel writes each sheet's DataFrame into one workbook on w.
// Sheets are written in the order given by names.
func SaveToExcel(w io.Writer, names []string, sheets map[string]dataframe.DataFrame) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, sheetName := range names {
		df, ok := sheets[sheetName]
		if !ok {
			return fmt.Errorf("sheet %s has no data", sheetName)
		}
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheetName); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheetName); err != nil {
			return err
		}
		if err := writeSheet(f, sheetName, df); err != nil {
			return fmt.Errorf("write sheet %s: %w", sheetName, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheetName string, df dataframe.DataFrame) error {
	colNames := df.Names()
	for i, name := range colNames {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return err
		}
	}

	for colIdx, colName := range colNames {
		col := df.Col(colName)
		for rowIdx := 0; rowIdx < df.Nrow(); rowIdx++ {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheetName, cell, col.Val(rowIdx)); err != nil {
				return err
			}
		}
	}
	return nil
}

var printer = message.NewPrinter(language.Indonesian)

// FormatInt groups digits the Indonesian way: 1061129 -> "1.061.129".
func FormatInt(v float64) string {
	return printer.Sprintf("%d", int64(math.Round(v)))
}

// FormatFloat formats v with the given decimals and Indonesian separators.
func FormatFloat(v float64, decimals int) string {
	return printer.Sprintf(fmt.Sprintf("%%.%df", decimals), v)
}
