package utils

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LoggerConfig controls the process-wide logger.
type LoggerConfig struct {
	Level       string `yaml:"level"`  // debug, info, warn, error
	Format      string `yaml:"format"` // console or json
	ServiceName string `yaml:"service_name"`
	AddSource   bool   `yaml:"add_source"`
	Color       bool   `yaml:"color"`

	// Optional rotated log file, always JSON encoded.
	LogFile    string `yaml:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

var (
	globalLogger atomic.Pointer[zap.Logger]
	logOnce      sync.Once
)

// InitLogger creates the singleton logger writing to stderr (and the log file,
// if configured). Call once at startup; later calls return the first logger.
func InitLogger(cfg LoggerConfig) *zap.Logger {
	return InitLoggerWithWriter(cfg, zapcore.Lock(os.Stderr))
}

// InitLoggerWithWriter is InitLogger with an explicit console sink.
func InitLoggerWithWriter(cfg LoggerConfig, console zapcore.WriteSyncer) *zap.Logger {
	logOnce.Do(func() {
		level := zap.NewAtomicLevel()
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			level.SetLevel(zap.InfoLevel)
		}

		cores := []zapcore.Core{zapcore.NewCore(encoderFor(cfg), console, level)}

		if cfg.LogFile != "" {
			// lumberjack handles rotation and is safe for concurrent writes.
			fileWriter := zapcore.AddSync(&lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    cfg.MaxSizeMB,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAgeDays,
				Compress:   cfg.Compress,
			})
			fileEnc := encoderFor(LoggerConfig{Format: "json"})
			cores = append(cores, zapcore.NewCore(fileEnc, fileWriter, level))
		}

		opts := []zap.Option{zap.AddStacktrace(zap.DPanicLevel)}
		if cfg.AddSource {
			opts = append(opts, zap.AddCaller())
		}

		logger := zap.New(zapcore.NewTee(cores...), opts...)
		if cfg.ServiceName != "" {
			logger = logger.Named(cfg.ServiceName)
		}
		globalLogger.Store(logger)
	})
	return globalLogger.Load()
}

func encoderFor(cfg LoggerConfig) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")

	if cfg.Format == "json" {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewJSONEncoder(ec)
	}
	if cfg.Color {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return zapcore.NewConsoleEncoder(ec)
}

// L returns the global logger, initialising a stderr logger at INFO if
// InitLogger has not been called.
func L() *zap.Logger {
	if l := globalLogger.Load(); l != nil {
		return l
	}
	return InitLogger(LoggerConfig{Level: "info", Format: "console"})
}

// Sync flushes buffered entries. Call before exiting.
func Sync() {
	l := globalLogger.Load()
	if l == nil {
		return
	}
	if err := l.Sync(); err != nil {
		// stdout is not syncable on every platform.
		msg := err.Error()
		if !strings.Contains(msg, "sync /dev/stdout") &&
			!strings.Contains(msg, "invalid argument") &&
			!strings.Contains(msg, "inappropriate ioctl") {
			fmt.Fprintln(os.Stderr, "failed to sync logger:", err)
		}
	}
}

// SetLogger replaces the global logger, e.g. with one built on an observer
// core.
func SetLogger(l *zap.Logger) {
	logOnce.Do(func() {})
	globalLogger.Store(l)
}

// ResetLoggerForTest clears the singleton. Tests only.
func ResetLoggerForTest() {
	globalLogger.Store(nil)
	logOnce = sync.Once{}
}
