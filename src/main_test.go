package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeConfig points a fresh config folder at the fixture tables.
func writeConfig(t *testing.T) string {
	t.Helper()
	return writeConfigWith(t, nil)
}

func writeConfigWith(t *testing.T, extra map[string]any) string {
	t.Helper()
	dir := t.TempDir()
	dataDir, err := filepath.Abs("datasource/file/testdata")
	require.NoError(t, err)

	cfg := map[string]any{
		"server":   map[string]any{"addr": "127.0.0.1:0"},
		"data":     map[string]any{"dir": dataDir, "check_interval": "1h"},
		"pid_file": filepath.Join(dir, "bikeshare.pid"),
		"log_name": filepath.Join(dir, "app.log"),
	}
	for k, v := range extra {
		cfg[k] = v
	}
	b, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), b, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dataconfig.json"), []byte("{}"), 0644))
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestFilterFlagsValues(t *testing.T) {
	f := filterFlags{month: "All", weekday: "3", users: []string{"casual"}, start: "2011-02-01"}
	assert.Equal(t, url.Values{
		"start":   {"2011-02-01"},
		"user":    {"casual"},
		"month":   {"All"},
		"weekday": {"3"},
	}, f.values())
}

func TestExportCSV(t *testing.T) {
	cfgDir := writeConfig(t)
	out := filepath.Join(t.TempDir(), "nested", "january.csv")

	stdout, err := run(t, "export", "--config", cfgDir, "--out", out, "--month", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote 5 rows")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 6)
}

func TestExportXLSX(t *testing.T) {
	cfgDir := writeConfig(t)
	out := filepath.Join(t.TempDir(), "casual.xlsx")

	_, err := run(t, "export", "--config", cfgDir, "--out", out, "--user", "casual", "--start", "2012-10-01")
	require.NoError(t, err)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Data")
	require.NoError(t, err)
	// 2012-10-29 has no casual riders
	assert.Len(t, rows, 1+1)
}

func TestExportDefaultsToExportDir(t *testing.T) {
	exportDir := filepath.Join(t.TempDir(), "out")
	cfgDir := writeConfigWith(t, map[string]any{"export_dir": exportDir})

	stdout, err := run(t, "export", "--config", cfgDir, "--month", "1")
	require.NoError(t, err)
	want := filepath.Join(exportDir, "bike_share_filtered.xlsx")
	assert.Contains(t, stdout, want)

	f, err := excelize.OpenFile(want)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Data")
	require.NoError(t, err)
	assert.Len(t, rows, 1+5)
}

func TestRenderDefaultsToExportDir(t *testing.T) {
	exportDir := filepath.Join(t.TempDir(), "out")
	cfgDir := writeConfigWith(t, map[string]any{"export_dir": exportDir})

	_, err := run(t, "render", "--config", cfgDir)
	require.NoError(t, err)

	for _, name := range []string{"daily.png", "report.xlsx", "report.md"} {
		_, err := os.Stat(filepath.Join(exportDir, name))
		assert.NoError(t, err, name)
	}
}

func TestExportErrors(t *testing.T) {
	cfgDir := writeConfig(t)

	_, err := run(t, "export", "--config", cfgDir, "--out", filepath.Join(t.TempDir(), "x.json"))
	assert.ErrorContains(t, err, "unsupported export format")

	_, err = run(t, "export", "--config", cfgDir, "--out", filepath.Join(t.TempDir(), "x.csv"), "--month", "13")
	assert.ErrorContains(t, err, "invalid month")

	_, err = run(t, "export", "--config", t.TempDir())
	assert.ErrorContains(t, err, "read config")
}

func TestRender(t *testing.T) {
	cfgDir := writeConfig(t)
	out := t.TempDir()

	_, err := run(t, "render", "--config", cfgDir, "--out", out)
	require.NoError(t, err)

	for _, name := range []string{
		"daily", "season-totals", "weather-totals", "season-box",
		"season-aggregation", "season-year", "weather-box", "correlation",
	} {
		data, err := os.ReadFile(filepath.Join(out, name+".png"))
		require.NoError(t, err, name)
		assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), name)
	}

	f, err := excelize.OpenFile(filepath.Join(out, "report.xlsx"))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, reportSheets, f.GetSheetList())
	corr, err := f.GetRows("Korelasi")
	require.NoError(t, err)
	assert.Len(t, corr, 6)

	md, err := os.ReadFile(filepath.Join(out, "report.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "## Agregasi Penyewaan per Musim")
}

func TestReport(t *testing.T) {
	cfgDir := writeConfig(t)

	stdout, err := run(t, "report", "--config", cfgDir, "--style", "notty", "--weekday", "0")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Bike Share Insight")
	assert.Contains(t, stdout, "Senin")
}

func TestServeStopsOnCancel(t *testing.T) {
	cfgDir := writeConfig(t)
	pidFile := filepath.Join(cfgDir, "bikeshare.pid")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		root := newRootCmd()
		root.SetArgs([]string{"serve", "--config", cfgDir})
		done <- root.ExecuteContext(ctx)
	}()

	logPath := filepath.Join(cfgDir, "app.log")
	require.Eventually(t, func() bool {
		logged, _ := os.ReadFile(logPath)
		return strings.Contains(string(logged), "loaded 13 daily rows and 13 clean rows")
	}, 5*time.Second, 20*time.Millisecond)
	_, err := os.Stat(pidFile)
	require.NoError(t, err)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}

	_, err = os.Stat(pidFile)
	assert.True(t, os.IsNotExist(err), "pid file removed on exit")
}
