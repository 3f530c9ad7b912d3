package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level      string `yaml:"log_level" env:"LOG_LEVEL" env-default:"INFO"`
	Format     string `yaml:"log_format" env:"LOG_FORMAT" env-default:"text"`
	FilePath   string `yaml:"log_file" env:"LOG_FILE"`
	MaxSize    int    `yaml:"log_max_size_mb" env:"LOG_MAX_SIZE_MB" env-default:"100"`
	MaxBackups int    `yaml:"log_max_backups" env:"LOG_MAX_BACKUPS" env-default:"5"`
	MaxAge     int    `yaml:"log_max_age_days" env:"LOG_MAX_AGE_DAYS" env-default:"30"`
}

// New builds a logger writing to stderr and, when FilePath is set, to a
// rotated log file as well.
func New(cfg Config) (*slog.Logger, error) {
	var w io.Writer = os.Stderr

	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return nil, err
		}
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   true,
		})
	}

	return slog.New(newHandler(w, cfg)), nil
}

func newHandler(w io.Writer, cfg Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard is a logger that drops everything, for tests and quiet CLIs.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
