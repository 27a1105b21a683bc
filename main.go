package main

import (
	"BikeShareInsight/src/config"
	"log"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// Sends SIGHUP to the running dashboard so it reopens its log and reloads
// the tables. The pid is read from the pid file named in ./config.
func main() {
	cfg, _, err := config.Load("./config", "config.json", "dataconfig.json")
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	data, err := os.ReadFile(cfg.PidFile)
	if err != nil {
		log.Fatal("Failed to read pid file:", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		log.Fatal("Bad pid file:", err)
	}

	if err := syscall.Kill(pid, syscall.SIGHUP); err != nil {
		log.Fatal("Failed to send SIGHUP:", err)
	}
}
