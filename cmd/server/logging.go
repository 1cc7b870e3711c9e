package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const logDateLayout = "2006-01-02"

// dailyFile is an io.Writer that moves to a new app-YYYY-MM-DD.log file when
// the date changes and removes files older than the retention window.
type dailyFile struct {
	mu            sync.Mutex
	dir           string
	retentionDays int
	date          string
	file          *os.File
	now           func() time.Time
}

func newDailyFile(dir string, retentionDays int) (*dailyFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	d := &dailyFile{dir: dir, retentionDays: retentionDays, now: time.Now}
	if err := d.rotate(d.now().Format(logDateLayout)); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *dailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return 0, os.ErrClosed
	}
	return d.file.Write(p)
}

// check switches files when the day has changed.
func (d *dailyFile) check() {
	date := d.now().Format(logDateLayout)
	d.mu.Lock()
	defer d.mu.Unlock()
	if date == d.date || d.file == nil {
		return
	}
	_ = d.rotate(date)
}

func (d *dailyFile) rotate(date string) error {
	file, err := openLogFile(d.dir, date)
	if err != nil {
		return err
	}
	if d.file != nil {
		_ = d.file.Close()
	}
	d.file = file
	d.date = date
	cleanupOldLogs(d.dir, d.retentionDays, d.now())
	return nil
}

func (d *dailyFile) watch(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.check()
		case <-ctx.Done():
			return
		}
	}
}

func (d *dailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

// setupLogger writes to the console and, when the log directory is usable,
// to a daily file. The returned func stops rotation and closes the file.
func setupLogger(dir string, retentionDays int, level string) (zerolog.Logger, func()) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}

	files, fileErr := newDailyFile(dir, retentionDays)
	var out io.Writer = console
	if fileErr == nil {
		out = zerolog.MultiLevelWriter(console, files)
	}
	logger := zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	if fileErr != nil {
		logger.Warn().Err(fileErr).Str("dir", dir).Msg("file logging disabled")
		return logger, func() {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	go files.watch(ctx)
	return logger, func() {
		cancel()
		_ = files.Close()
	}
}

func openLogFile(logDir, date string) (*os.File, error) {
	filename := filepath.Join(logDir, fmt.Sprintf("app-%s.log", date))
	return os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

func cleanupOldLogs(logDir string, retentionDays int, now time.Time) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}
	cutoff := now.AddDate(0, 0, -(retentionDays - 1)).Format(logDateLayout)
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() {
			continue
		}
		if !strings.HasPrefix(name, "app-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		datePart := strings.TrimSuffix(strings.TrimPrefix(name, "app-"), ".log")
		if _, err := time.Parse(logDateLayout, datePart); err != nil {
			continue
		}
		if datePart < cutoff {
			_ = os.Remove(filepath.Join(logDir, name))
		}
	}
}
