package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// Logger is the application's structured logger
var Logger *slog.Logger

func init() {
	// Default to discarding logs until Init is called
	Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Init points the logger at logPath. If logPath is empty, logs are discarded.
// The log file is created with mode 0600 (user-only).
// Never log to stderr: it would corrupt the TUI.
func Init(logPath string) error {
	opts := &slog.HandlerOptions{
		Level: LevelFromEnv(),
	}

	var handler slog.Handler
	if logPath == "" {
		handler = slog.NewTextHandler(io.Discard, opts)
	} else {
		if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
			return err
		}

		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return err
		}
		handler = slog.NewTextHandler(file, opts)
	}

	Logger = slog.New(handler)
	return nil
}

// LevelFromEnv reads CARGO_RUNNER_LOG_LEVEL. Defaults to info.
func LevelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("CARGO_RUNNER_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetStateDir returns the state directory for cargo-runner files
func GetStateDir() string {
	return filepath.Join(xdg.StateHome, "cargo-runner")
}

// GetLogPath returns the default path to the log file
func GetLogPath() string {
	return filepath.Join(GetStateDir(), "cargo-runner.log")
}
