package storage

import (
	"BikeShareInsight/src/config"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// LogLevel is the severity of a log entry.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
	FATAL
)

// Logger writes leveled entries to a file and fans them out to subscribers.
type Logger struct {
	filename    string
	file        *os.File
	mu          sync.Mutex
	subscribers []chan string
	now         func() time.Time
}

// NewLogger opens (or creates) filename for appending.
//
// Parameters:
//
//	filename: path of the log file
//
// Returns:
//
//	*Logger: the logger
//	error: open failure
func NewLogger(filename string) (*Logger, error) {
	file, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	return &Logger{
		filename: filename,
		file:     file,
		now:      time.Now,
	}, nil
}

// Close closes the log file. Subscribers stay registered.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// Reopen closes the current file and opens filename in its place.
// An empty filename reopens the current path, which is what SIGHUP does
// after an external tool moved the file away.
func (l *Logger) Reopen(filename string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if filename == "" {
		filename = l.filename
	}

	if l.file != nil {
		_ = l.file.Close()
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		l.file = nil
		return err
	}
	l.file = file
	l.filename = filename
	return nil
}

// Log writes one entry: [time] LEVEL: message
func (l *Logger) Log(level LogLevel, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := fmt.Sprintf("[%s] %s: %s\n",
		l.now().Format("2006-01-02 15:04:05"),
		level.String(),
		message)

	if l.file != nil {
		l.file.WriteString(entry)
	}

	for _, ch := range l.subscribers {
		select {
		case ch <- entry:
		default: // slow subscriber, drop
		}
	}
}

// CheckRotate rotates the file once it grows past cfg.LogMaxSize bytes.
// It reports whether a rotation happened.
func (l *Logger) CheckRotate(cfg *config.Config) (bool, error) {
	l.mu.Lock()
	file := l.file
	l.mu.Unlock()
	if file == nil {
		return false, nil
	}

	info, err := file.Stat()
	if err != nil {
		return false, err
	}

	limit := eval(cfg.LogMaxSize)
	if limit <= 0 || info.Size() <= limit {
		return false, nil
	}
	return true, l.rotateLog()
}

func (l *Logger) rotateLog() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var renameErr error
	if l.file != nil {
		l.file.Close()
		ext := filepath.Ext(l.filename)
		base := strings.TrimSuffix(l.filename, ext)
		rotated := fmt.Sprintf("%s.%s%s", base, l.now().Format("20060102150405"), ext)
		renameErr = os.Rename(l.filename, rotated)
	}

	// reopen even when the rename failed, the old handle is closed
	file, err := os.OpenFile(l.filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		l.file = nil
		return err
	}
	l.file = file
	return renameErr
}

// Subscribe returns a buffered channel receiving every entry logged from now on.
func (l *Logger) Subscribe() <-chan string {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch := make(chan string, 100)
	l.subscribers = append(l.subscribers, ch)
	return ch
}

// Unsubscribe removes ch from the subscriber list.
func (l *Logger) Unsubscribe(ch <-chan string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, sub := range l.subscribers {
		if sub == ch {
			l.subscribers = append(l.subscribers[:i], l.subscribers[i+1:]...)
			return
		}
	}
}

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARNING:
		return "WARNING"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// eval multiplies out a size expression such as "10 * 1024 * 1024".
func eval(expr string) int64 {
	parts := strings.Split(expr, "*")
	var result int64 = 1
	for _, part := range parts {
		num, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return 0
		}
		result *= int64(num)
	}
	return result
}

func (l *Logger) Debug(msg string)   { l.Log(DEBUG, msg) }
func (l *Logger) Info(msg string)    { l.Log(INFO, msg) }
func (l *Logger) Warning(msg string) { l.Log(WARNING, msg) }
func (l *Logger) Error(msg string)   { l.Log(ERROR, msg) }
func (l *Logger) Fatal(msg string)   { l.Log(FATAL, msg) }
