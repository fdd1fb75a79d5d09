package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/healthbell/healthbell/internal/model"
)

// Setup routes the global logger to a file. A terminal application owns
// stdout, so logging must never write there. Returns a closer for the
// log file; callers should defer it.
func Setup(cfg model.LogConfig) (io.Closer, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	path := cfg.File
	if path == "" {
		path = defaultLogPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}

	log.SetOutput(f)
	return f, nil
}

// defaultLogPath places the log next to the config and cache files.
func defaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "healthbell.log")
	}
	return filepath.Join(home, ".config", "healthbell", "healthbell.log")
}
