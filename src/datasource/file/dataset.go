package file

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-gota/gota/dataframe"
	"golang.org/x/sync/errgroup"
)

// Snapshot is one immutable load of both tables.
type Snapshot struct {
	Day      dataframe.DataFrame
	Clean    dataframe.DataFrame
	LoadedAt time.Time
}

// Dataset keeps the current snapshot and swaps it on reload.
type Dataset struct {
	dayPath   string
	cleanPath string
	sheetName string

	mu       sync.RWMutex
	snap     *Snapshot
	modTimes map[string]time.Time
}

// NewDataset creates an empty dataset for the two table paths.
func NewDataset(dayPath, cleanPath, sheetName string) *Dataset {
	return &Dataset{
		dayPath:   dayPath,
		cleanPath: cleanPath,
		sheetName: sheetName,
		modTimes:  make(map[string]time.Time),
	}
}

// Load reads both tables concurrently. The current snapshot is replaced only
// when both tables load and validate; on error the previous one stays.
func (d *Dataset) Load(ctx context.Context) error {
	var day, clean dataframe.DataFrame

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		df, err := loadValidated(ctx, d.dayPath, d.sheetName, DayColumns)
		if err != nil {
			return fmt.Errorf("daily table: %w", err)
		}
		day = df
		return nil
	})
	g.Go(func() error {
		df, err := loadValidated(ctx, d.cleanPath, d.sheetName, CleanColumns)
		if err != nil {
			return fmt.Errorf("clean table: %w", err)
		}
		clean = df
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	mods := make(map[string]time.Time, 2)
	for _, p := range []string{d.dayPath, d.cleanPath} {
		if info, err := os.Stat(p); err == nil {
			mods[p] = info.ModTime()
		}
	}

	d.mu.Lock()
	d.snap = &Snapshot{Day: day, Clean: clean, LoadedAt: time.Now()}
	d.modTimes = mods
	d.mu.Unlock()
	return nil
}

func loadValidated(ctx context.Context, path, sheetName string, cols []string) (dataframe.DataFrame, error) {
	if err := ctx.Err(); err != nil {
		return dataframe.DataFrame{}, err
	}
	df, err := ReadTable(path, sheetName)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	if err := RequireColumns(df, cols); err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%s: %w", path, err)
	}
	return df, nil
}

// Snapshot returns the current snapshot, or nil before the first Load.
func (d *Dataset) Snapshot() *Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snap
}

// Changed reports whether either table file was modified since the last Load.
func (d *Dataset) Changed() (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, p := range []string{d.dayPath, d.cleanPath} {
		info, err := os.Stat(p)
		if err != nil {
			return false, err
		}
		if !info.ModTime().Equal(d.modTimes[p]) {
			return true, nil
		}
	}
	return false, nil
}
