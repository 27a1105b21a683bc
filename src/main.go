package main

import (
	"BikeShareInsight/src/config"
	"BikeShareInsight/src/datasource/file"
	"BikeShareInsight/src/processor"
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/spf13/cobra"
)

const (
	jsonFile     = "config.json"
	dataJsonFile = "dataconfig.json"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var jsonFolder string

	root := &cobra.Command{
		Use:           "bikeshare",
		Short:         "Bike Share Insight dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&jsonFolder, "config", "./config", "folder holding config.json and dataconfig.json")

	loader := func() (*config.Config, *config.DataConfig, error) {
		return config.Load(jsonFolder, jsonFile, dataJsonFile)
	}
	root.AddCommand(
		newServeCmd(loader),
		newRenderCmd(loader),
		newExportCmd(loader),
		newReportCmd(loader),
	)
	return root
}

type configLoader func() (*config.Config, *config.DataConfig, error)

// filterFlags are the sidebar choices given on the command line.
type filterFlags struct {
	start   string
	end     string
	users   []string
	month   string
	weekday string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "first day, YYYY-MM-DD (default: first day in the table)")
	cmd.Flags().StringVar(&f.end, "end", "", "last day, YYYY-MM-DD (default: last day in the table)")
	cmd.Flags().StringSliceVar(&f.users, "user", nil, "user types: casual, registered (default: both)")
	cmd.Flags().StringVar(&f.month, "month", "All", "month 1..12 or All")
	cmd.Flags().StringVar(&f.weekday, "weekday", "All", "weekday 0..6 or All")
}

func (f *filterFlags) values() url.Values {
	v := url.Values{}
	if f.start != "" {
		v.Set("start", f.start)
	}
	if f.end != "" {
		v.Set("end", f.end)
	}
	for _, u := range f.users {
		v.Add("user", u)
	}
	v.Set("month", f.month)
	v.Set("weekday", f.weekday)
	return v
}

// loaded is a dataset snapshot with the filter applied.
type loaded struct {
	cfg    *config.Config
	dcfg   *config.DataConfig
	snap   *file.Snapshot
	filter processor.Filter
	view   dataframe.DataFrame
}

func loadFiltered(ctx context.Context, load configLoader, flags *filterFlags) (*loaded, error) {
	cfg, dcfg, err := load()
	if err != nil {
		return nil, err
	}

	ds := file.NewDataset(cfg.DayPath(), cfg.CleanPath(), cfg.Data.SheetName)
	if err := ds.Load(ctx); err != nil {
		return nil, err
	}
	snap := ds.Snapshot()

	minDate, maxDate, err := processor.DateBounds(snap.Day)
	if err != nil {
		return nil, err
	}
	f, err := processor.ParseFilter(flags.values(), minDate, maxDate)
	if err != nil {
		return nil, err
	}
	return &loaded{cfg: cfg, dcfg: dcfg, snap: snap, filter: f, view: processor.ApplyFilter(snap.Day, f)}, nil
}

func writePidFile(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644)
}
