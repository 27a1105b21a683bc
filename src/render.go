package main

import (
	"BikeShareInsight/src/chart"
	"BikeShareInsight/src/processor"
	"BikeShareInsight/src/report"
	"BikeShareInsight/src/utils"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/spf13/cobra"
	"gopkg.in/cheggaaa/pb.v1"
)

const defaultExportName = "bike_share_filtered.xlsx"

// report.xlsx sheet names, in workbook order.
var reportSheets = []string{"Data", "Musim", "Cuaca", "Korelasi"}

func newRenderCmd(load configLoader) *cobra.Command {
	var (
		flags filterFlags
		out   string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Write every chart as PNG plus report.xlsx and report.md",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadFiltered(cmd.Context(), load, &flags)
			if err != nil {
				return err
			}
			if out == "" {
				out = l.cfg.ExportDir
			}
			if err := os.MkdirAll(out, 0755); err != nil {
				return err
			}

			names := chart.Names()
			bar := pb.New(len(names) + 2)
			bar.Output = cmd.ErrOrStderr()
			bar.SetMaxWidth(80)
			bar.Prefix("render")
			bar.Start()
			defer bar.Finish()

			in := chart.Input{View: l.view, Clean: l.snap.Clean, Filter: l.filter, Labels: l.dcfg}
			for _, name := range names {
				var buf bytes.Buffer
				if err := chart.Render(name, &buf, in); err != nil {
					return err
				}
				if err := os.WriteFile(filepath.Join(out, name+".png"), buf.Bytes(), 0644); err != nil {
					return err
				}
				bar.Increment()
			}

			tables, err := report.Analyze(l.view, l.snap.Clean, l.filter, l.dcfg)
			if err != nil {
				return err
			}
			if err := writeWorkbook(filepath.Join(out, "report.xlsx"), l.view, tables); err != nil {
				return err
			}
			bar.Increment()

			md, err := report.Summary(tables, l.dcfg)
			if err != nil {
				return err
			}
			if err := os.WriteFile(filepath.Join(out, "report.md"), []byte(md), 0644); err != nil {
				return err
			}
			bar.Increment()
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "output directory (default: export_dir from config)")
	return cmd
}

func writeWorkbook(path string, view dataframe.DataFrame, t report.Tables) error {
	sheets := map[string]dataframe.DataFrame{
		"Data":     view,
		"Musim":    processor.StatsFrame(t.Season, "Musim", "Total Penyewaan", "Rata-rata Penyewaan"),
		"Cuaca":    processor.StatsFrame(t.Weather, "Kondisi Cuaca", "Total Penyewaan", "Rata-rata Penyewaan"),
		"Korelasi": processor.MatrixFrame(t.Corr),
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := utils.SaveToExcel(f, reportSheets, sheets); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func newExportCmd(load configLoader) *cobra.Command {
	var (
		flags filterFlags
		out   string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered daily rows to .xlsx or .csv",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadFiltered(cmd.Context(), load, &flags)
			if err != nil {
				return err
			}
			if out == "" {
				out = filepath.Join(l.cfg.ExportDir, defaultExportName)
			}
			ext := strings.ToLower(filepath.Ext(out))
			if ext != ".xlsx" && ext != ".csv" {
				return fmt.Errorf("unsupported export format %q, use .xlsx or .csv", ext)
			}
			if dir := filepath.Dir(out); dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return err
				}
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if ext == ".csv" {
				err = l.view.WriteCSV(f)
			} else {
				err = utils.SaveToExcel(f, []string{"Data"}, map[string]dataframe.DataFrame{"Data": l.view})
			}
			if err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", l.view.Nrow(), out)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "output file, .xlsx or .csv (default: export_dir/"+defaultExportName+")")
	return cmd
}

func newReportCmd(load configLoader) *cobra.Command {
	var (
		flags filterFlags
		style string
		width int
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the summary of the filtered view in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadFiltered(cmd.Context(), load, &flags)
			if err != nil {
				return err
			}
			tables, err := report.Analyze(l.view, l.snap.Clean, l.filter, l.dcfg)
			if err != nil {
				return err
			}
			md, err := report.Summary(tables, l.dcfg)
			if err != nil {
				return err
			}
			text, err := report.Terminal(md, style, width)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), text)
			return err
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&style, "style", "", "glamour style: dark, light or notty (default: detect)")
	cmd.Flags().IntVar(&width, "width", 80, "word wrap width")
	return cmd
}
