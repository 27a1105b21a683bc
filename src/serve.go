package main

import (
	"BikeShareInsight/src/datasource/file"
	"BikeShareInsight/src/storage"
	"BikeShareInsight/src/web"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron"
	"github.com/spf13/cobra"
)

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), load)
		},
	}
}

func serve(ctx context.Context, load configLoader) error {
	cfg, dcfg, err := load()
	if err != nil {
		return err
	}

	logger, err := storage.NewLogger(cfg.LogName)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	if err := writePidFile(cfg.PidFile); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(cfg.PidFile)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ds := file.NewDataset(cfg.DayPath(), cfg.CleanPath(), cfg.Data.SheetName)
	if err := ds.Load(ctx); err != nil {
		logger.Error("initial load failed: " + err.Error())
		return err
	}
	snap := ds.Snapshot()
	logger.Info(fmt.Sprintf("loaded %d daily rows and %d clean rows", snap.Day.Nrow(), snap.Clean.Nrow()))

	reload := func(reason string) {
		t1 := time.Now()
		if err := ds.Load(ctx); err != nil {
			logger.Error(fmt.Sprintf("reload (%s) failed, keeping previous data: %v", reason, err))
			return
		}
		logger.Info(fmt.Sprintf("reloaded tables (%s) in %v", reason, time.Since(t1)))
	}

	// periodic log rotation and table freshness check
	c := cron.New()
	interval := time.Duration(cfg.Data.CheckInterval).String()
	cronSpec := fmt.Sprintf("@every %s", interval)
	err = c.AddFunc(cronSpec, func() {
		if rotated, err := logger.CheckRotate(cfg); err != nil {
			logger.Error("log rotation failed: " + err.Error())
		} else if rotated {
			logger.Info("log rotated")
		}

		changed, err := ds.Changed()
		if err != nil {
			logger.Warning("check tables: " + err.Error())
			return
		}
		if changed {
			reload("modified on disk")
		}
	})
	if err != nil {
		logger.Error("create cron job: " + err.Error())
		return err
	}
	c.Start()
	defer c.Stop()

	monitor, err := file.NewFileMonitor(cfg.Data.Dir, cfg.Data.DayFile, cfg.Data.CleanFile)
	if err != nil {
		logger.Warning("file watch disabled: " + err.Error())
	} else {
		go func() {
			err := monitor.Watch(ctx, func(path string) { reload("changed " + path) })
			if err != nil {
				logger.Error("file watch stopped: " + err.Error())
			}
		}()
	}

	go handleSignals(ctx, cancel, logger, reload)

	server, err := web.NewServer(cfg, dcfg, ds, logger)
	if err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("checking tables every %v, Ctrl+C to quit", interval))
	return server.ListenAndServe(ctx)
}

// handleSignals reopens the log and reloads data on SIGHUP, and cancels on
// SIGINT or SIGTERM.
func handleSignals(ctx context.Context, cancel context.CancelFunc, logger *storage.Logger, reload func(string)) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigChan:
			if sig != syscall.SIGHUP {
				logger.Info("Received signal: " + sig.String() + ", shutting down...")
				cancel()
				return
			}
			if err := logger.Reopen(""); err != nil {
				logger.Error("reopen log: " + err.Error())
			}
			reload("SIGHUP")
		}
	}
}
