package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/giygas/vetref-api/config"
)

// Options configures the process-wide logger.
type Options struct {
	Dir            string
	Env            config.Environment
	Level          string // LOG_LEVEL override for the console
	Verbose        bool
	RetentionWeeks int
	MaxFileSize    int64
	Console        io.Writer // defaults to stdout
}

// OptionsFromConfig builds logger options from the loaded configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Dir:            cfg.LogDir,
		Env:            cfg.Env,
		Level:          cfg.LogLevel,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	}
}

type LoggingService struct {
	Logger *slog.Logger
	file   *RotatingLogger
}

var (
	DefaultLoggingService *LoggingService
	mu                    sync.Mutex
)

// parseLogLevel maps a LOG_LEVEL string to a slog level; unknown values
// mean info.
func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// GetConsoleLogLevel picks the console level. Tests stay quiet unless
// verbose; otherwise an explicit LOG_LEVEL wins over the environment default.
func GetConsoleLogLevel(env config.Environment, level string, verbose bool) slog.Level {
	if env == config.EnvTest {
		if verbose {
			return slog.LevelInfo
		}
		return slog.LevelError
	}
	if strings.TrimSpace(level) != "" {
		return parseLogLevel(level)
	}
	switch env {
	case config.EnvProduction, config.EnvStaging:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// GetFileLogLevel returns the level for the JSON file; it keeps everything
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

// NewLogger builds a console + rotating file logger. If the log directory
// cannot be used the logger falls back to console only and the error is
// returned alongside it.
func NewLogger(opts Options) (*slog.Logger, *RotatingLogger, error) {
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	consoleHandler := slog.NewTextHandler(console, &slog.HandlerOptions{
		Level: GetConsoleLogLevel(opts.Env, opts.Level, opts.Verbose),
	})

	maxSize := opts.MaxFileSize
	if maxSize == 0 {
		maxSize = defaultMaxFileSize
	}
	weeks := opts.RetentionWeeks
	if weeks <= 0 {
		weeks = 4
	}

	rl := NewRotatingLogger(opts.Dir, weeks, maxSize)
	if err := rl.Start(); err != nil {
		return slog.New(consoleHandler), nil, err
	}

	fileHandler := slog.NewJSONHandler(rl, &slog.HandlerOptions{Level: GetFileLogLevel()})
	return slog.New(&multiHandler{handlers: []slog.Handler{consoleHandler, fileHandler}}), rl, nil
}

// InitLogger installs the process-wide logger and makes it the slog default
func InitLogger(opts Options) error {
	logger, rl, err := NewLogger(opts)

	mu.Lock()
	prev := DefaultLoggingService
	DefaultLoggingService = &LoggingService{Logger: logger, file: rl}
	mu.Unlock()

	if prev != nil && prev.file != nil {
		_ = prev.file.Close()
	}
	slog.SetDefault(logger)

	if err != nil {
		logger.Error("File logging disabled", "dir", opts.Dir, "error", err)
	}
	return err
}

// Close flushes and closes the log file of the process-wide logger
func Close() {
	mu.Lock()
	svc := DefaultLoggingService
	DefaultLoggingService = nil
	mu.Unlock()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if svc != nil && svc.file != nil {
		_ = svc.file.Close()
	}
}

func current() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return slog.Default()
	}
	return DefaultLoggingService.Logger
}

func Info(msg string, args ...any)  { current().Info(msg, args...) }
func Warn(msg string, args ...any)  { current().Warn(msg, args...) }
func Error(msg string, args ...any) { current().Error(msg, args...) }
func Debug(msg string, args ...any) { current().Debug(msg, args...) }
