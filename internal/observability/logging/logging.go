package logging

import (
	"io"
	"os"

	"github.com/db4e/db4e-supervisor/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup configures the global zerolog logger from cfg. When a log file is
// configured, output goes to stderr and to a size rotated file. The returned
// closer flushes the file and must be called on shutdown.
func Setup(cfg config.LogConfig) (io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zerolog.SetGlobalLevel(level)

	var (
		writer io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if cfg.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		writer = zerolog.MultiLevelWriter(os.Stderr, rotated)
		closer = rotated
	}

	log.Logger = zerolog.New(writer).With().Timestamp().Logger()
	// log.Ctx falls back to the global logger for contexts without one
	zerolog.DefaultContextLogger = &log.Logger

	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
