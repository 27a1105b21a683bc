package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// Config holds the runtime settings of the dashboard.
type Config struct {
	Server struct {
		Addr         string   `json:"addr"`          // listen address, e.g. ":8080"
		ReadTimeout  Duration `json:"read_timeout"`  // http read timeout
		WriteTimeout Duration `json:"write_timeout"` // http write timeout
	} `json:"server"`

	Data struct {
		Dir           string   `json:"dir"`            // directory holding both tables
		DayFile       string   `json:"day_file"`       // daily aggregate table
		CleanFile     string   `json:"clean_file"`     // cleaned table used by the question sections
		SheetName     string   `json:"sheet_name"`     // sheet to read when a table is .xlsx
		CheckInterval Duration `json:"check_interval"` // how often cron re-checks the tables
	} `json:"data"`

	ExportDir  string `json:"export_dir"`
	PidFile    string `json:"pid_file"`
	LogName    string `json:"log_name"`
	LogMaxSize string `json:"log_max_size"`
}

// DataConfig holds the display labels and chart colors.
type DataConfig struct {
	Months       map[string]string `json:"months"`        // "1".."12" -> month name
	Weekdays     map[string]string `json:"weekdays"`      // "0".."6" -> weekday name
	AllLabel     string            `json:"all_label"`     // label of the "All" option
	Seasons      map[string]string `json:"seasons"`       // season code -> label
	Weather      map[string]string `json:"weather"`       // weathersit code -> label
	WeatherTicks []string          `json:"weather_ticks"` // tick labels of the weather box plot
	Years        map[string]string `json:"years"`         // yr code -> calendar year
	Colors       map[string]string `json:"colors"`        // chart name -> hex color
}

// mu guards label lookups against applyDefaults.
var mu sync.RWMutex

// Load reads config and data config from jsonFolder, parsing both concurrently.
func Load(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	return loadConfigs(jsonFolder, jsonFile, dataJsonFile)
}

func loadConfigs(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	configFile := filepath.Join(jsonFolder, jsonFile)
	dataConfigFile := filepath.Join(jsonFolder, dataJsonFile)

	configData, err := readFile(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}

	dataConfigData, err := readFile(dataConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read data config: %w", err)
	}

	cfgChan := make(chan *Config, 1)
	dcfgChan := make(chan *DataConfig, 1)
	errChan := make(chan error, 2)

	go parseConfig(configData, cfgChan, errChan)
	go parseDataConfig(dataConfigData, dcfgChan, errChan)

	cfg, dcfg, err := waitForResults(cfgChan, dcfgChan, errChan)
	if err != nil {
		return nil, nil, err
	}

	cfg.applyDefaults()
	dcfg.applyDefaults()
	return cfg, dcfg, nil
}

func readFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", filePath, err)
	}
	return data, nil
}

func parseConfig(data []byte, resultChan chan<- *Config, errChan chan<- error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		errChan <- fmt.Errorf("parse Config: %w", err)
		return
	}
	resultChan <- &cfg
}

func parseDataConfig(data []byte, resultChan chan<- *DataConfig, errChan chan<- error) {
	var dcfg DataConfig
	if err := json.Unmarshal(data, &dcfg); err != nil {
		errChan <- fmt.Errorf("parse DataConfig: %w", err)
		return
	}
	resultChan <- &dcfg
}

func waitForResults(
	cfgChan <-chan *Config,
	dcfgChan <-chan *DataConfig,
	errChan <-chan error,
) (*Config, *DataConfig, error) {
	var (
		cfg    *Config
		dcfg   *DataConfig
		errors []error
	)

	for i := 0; i < 2; i++ {
		select {
		case c := <-cfgChan:
			cfg = c
		case d := <-dcfgChan:
			dcfg = d
		case err := <-errChan:
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return nil, nil, combineErrors(errors)
	}

	if cfg == nil || dcfg == nil {
		return nil, nil, fmt.Errorf("config only partially loaded")
	}

	return cfg, dcfg, nil
}

func combineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	msg := "config load failed:"
	for _, err := range errs {
		msg = fmt.Sprintf("%s\n- %v", msg, err)
	}
	return fmt.Errorf("%s", msg)
}

// Default returns the settings used when no config file is present.
func Default() (*Config, *DataConfig) {
	cfg := &Config{}
	cfg.applyDefaults()
	dcfg := &DataConfig{}
	dcfg.applyDefaults()
	return cfg, dcfg
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(15 * time.Second)
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = Duration(60 * time.Second)
	}
	if c.Data.Dir == "" {
		c.Data.Dir = "Dashboard"
	}
	if c.Data.DayFile == "" {
		c.Data.DayFile = "day.csv"
	}
	if c.Data.CleanFile == "" {
		c.Data.CleanFile = "clean_bike_share_data.csv"
	}
	if c.Data.CheckInterval == 0 {
		c.Data.CheckInterval = Duration(time.Minute)
	}
	if c.ExportDir == "" {
		c.ExportDir = "export"
	}
	if c.PidFile == "" {
		c.PidFile = "bikeshare.pid"
	}
	if c.LogName == "" {
		c.LogName = "app.log"
	}
	if c.LogMaxSize == "" {
		c.LogMaxSize = "10 * 1024 * 1024"
	}
}

// DayPath is the full path of the daily table.
func (c *Config) DayPath() string {
	return filepath.Join(c.Data.Dir, c.Data.DayFile)
}

// CleanPath is the full path of the cleaned table.
func (c *Config) CleanPath() string {
	return filepath.Join(c.Data.Dir, c.Data.CleanFile)
}

func (dc *DataConfig) applyDefaults() {
	mu.Lock()
	defer mu.Unlock()

	dc.Months = fillMissing(dc.Months, map[string]string{
		"1": "Januari", "2": "Februari", "3": "Maret", "4": "April",
		"5": "Mei", "6": "Juni", "7": "Juli", "8": "Agustus",
		"9": "September", "10": "Oktober", "11": "November", "12": "Desember",
	})
	dc.Weekdays = fillMissing(dc.Weekdays, map[string]string{
		"0": "Senin", "1": "Selasa", "2": "Rabu", "3": "Kamis",
		"4": "Jumat", "5": "Sabtu", "6": "Minggu",
	})
	if dc.AllLabel == "" {
		dc.AllLabel = "Semua"
	}
	dc.Seasons = fillMissing(dc.Seasons, map[string]string{
		"1": "Spring", "2": "Summer", "3": "Fall", "4": "Winter",
	})
	dc.Weather = fillMissing(dc.Weather, map[string]string{
		"1": "Clear", "2": "Mist", "3": "Light Snow/Rain", "4": "Heavy Rain",
	})
	if len(dc.WeatherTicks) == 0 {
		dc.WeatherTicks = []string{"Cerah", "Berkabut", "Hujan Ringan", "Hujan Berat"}
	}
	dc.Years = fillMissing(dc.Years, map[string]string{"0": "2011", "1": "2012"})
	dc.Colors = fillMissing(dc.Colors, map[string]string{
		"daily":   "#bc8f8f",
		"season":  "#fa8072",
		"weather": "#808000",
	})
}

func fillMissing(m, defaults map[string]string) map[string]string {
	if m == nil {
		m = make(map[string]string, len(defaults))
	}
	for k, v := range defaults {
		if _, ok := m[k]; !ok {
			m[k] = v
		}
	}
	return m
}

// Duration wraps time.Duration so it reads and writes as "1m30s" in JSON.
type Duration time.Duration

// UnmarshalJSON parses a duration string.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalJSON writes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// MonthLabel returns the name of month m, or the "All" label for 0.
func (dc *DataConfig) MonthLabel(m int) string {
	if m == 0 {
		return dc.All()
	}
	return dc.lookup(dc.Months, strconv.Itoa(m))
}

// WeekdayLabel returns the name of weekday d.
func (dc *DataConfig) WeekdayLabel(d int) string {
	return dc.lookup(dc.Weekdays, strconv.Itoa(d))
}

// SeasonLabel maps a season code to its label. Values that are not codes pass through.
func (dc *DataConfig) SeasonLabel(code string) string {
	return dc.lookup(dc.Seasons, code)
}

// WeatherLabel maps a weathersit code to its label.
func (dc *DataConfig) WeatherLabel(code string) string {
	return dc.lookup(dc.Weather, code)
}

// YearLabel maps a yr code to a calendar year.
func (dc *DataConfig) YearLabel(code string) string {
	return dc.lookup(dc.Years, code)
}

// Color returns the configured color for a chart, or fallback.
func (dc *DataConfig) Color(chart, fallback string) string {
	mu.RLock()
	defer mu.RUnlock()
	if c, ok := dc.Colors[chart]; ok && c != "" {
		return c
	}
	return fallback
}

// All is the label of the "no restriction" option.
func (dc *DataConfig) All() string {
	mu.RLock()
	defer mu.RUnlock()
	return dc.AllLabel
}

func (dc *DataConfig) lookup(m map[string]string, key string) string {
	mu.RLock()
	defer mu.RUnlock()
	if v, ok := m[key]; ok {
		return v
	}
	return key
}
