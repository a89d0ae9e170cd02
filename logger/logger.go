// Package logger wraps rs/zerolog with a small global-logger API the
// rest of the node uses, plus a pluggable extra-output list (the TUI's
// LogBuffer chief among them) and optional file rotation via
// natefinch/lumberjack. Init must be called early, before any other
// logger function.
package logger

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/rs/zerolog"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps a zerolog.Logger whose output fans out to a mutable set
// of writers, so TUI views and file rotation can attach and detach
// without rebuilding the underlying zerolog instance.
type Logger struct {
	mu      sync.Mutex
	base    zerolog.LevelWriter
	extra   []io.Writer
	level   zerolog.Level
	logger  zerolog.Logger
	prefix  string
	enabled bool
}

var (
	globalLogger *Logger
	once         sync.Once
	globalBuffer *LogBuffer
	bufferOnce   sync.Once
)

// GetGlobalLogBuffer returns the global log buffer used for the TUI's
// live log view.
func GetGlobalLogBuffer() *LogBuffer {
	bufferOnce.Do(func() {
		globalBuffer = NewLogBuffer(1000)
	})
	return globalBuffer
}

// Options configures Init.
type Options struct {
	Prefix        string // typically the node ID, attached to every entry
	WriteToStdout bool
	Level         string // "debug", "info", "warn", "error"; default "info"
	FilePath      string // if set, rotated via lumberjack
	MaxSizeMB     int    // lumberjack MaxSize, default 100
	MaxBackups    int    // lumberjack MaxBackups, default 5
	MaxAgeDays    int    // lumberjack MaxAge, default 28
}

// Init initializes the global logger. Only the first call takes effect.
func Init(opts Options) {
	once.Do(func() {
		level, err := zerolog.ParseLevel(opts.Level)
		if err != nil {
			level = zerolog.InfoLevel
		}

		var writers []io.Writer
		if opts.WriteToStdout {
			writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"})
		}
		if opts.FilePath != "" {
			writers = append(writers, &lumberjack.Logger{
				Filename:   opts.FilePath,
				MaxSize:    orDefault(opts.MaxSizeMB, 100),
				MaxBackups: orDefault(opts.MaxBackups, 5),
				MaxAge:     orDefault(opts.MaxAgeDays, 28),
			})
		}

		l := &Logger{
			extra:   nil,
			level:   level,
			prefix:  opts.Prefix,
			enabled: true,
		}
		l.base = zerolog.MultiLevelWriter(writers...)
		l.rebuild()
		globalLogger = l
	})
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// rebuild reconstructs the zerolog.Logger from base + extra writers.
// Callers must hold l.mu.
func (l *Logger) rebuild() {
	writers := []io.Writer{l.base}
	writers = append(writers, l.extra...)
	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(l.level).With().Timestamp()
	if l.prefix != "" {
		ctx = ctx.Str("node", l.prefix)
	}
	l.logger = ctx.Logger()
}

// AddOutput adds an additional output writer (e.g., the TUI's
// LogBufferWriter). Returns an error if called before Init.
func AddOutput(w io.Writer) error {
	if globalLogger == nil {
		return errors.New("logger not initialized: call logger.Init() first")
	}
	globalLogger.mu.Lock()
	defer globalLogger.mu.Unlock()
	globalLogger.extra = append(globalLogger.extra, w)
	globalLogger.rebuild()
	return nil
}

// RemoveOutput removes a previously added output writer. Returns an
// error if called before Init.
func RemoveOutput(w io.Writer) error {
	if globalLogger == nil {
		return errors.New("logger not initialized: call logger.Init() first")
	}
	globalLogger.mu.Lock()
	defer globalLogger.mu.Unlock()

	filtered := globalLogger.extra[:0]
	for _, output := range globalLogger.extra {
		if output != w {
			filtered = append(filtered, output)
		}
	}
	globalLogger.extra = filtered
	globalLogger.rebuild()
	return nil
}

// SetEnabled enables or disables logging. Returns an error if called
// before Init.
func SetEnabled(enabled bool) error {
	if globalLogger == nil {
		return errors.New("logger not initialized: call logger.Init() first")
	}
	globalLogger.mu.Lock()
	defer globalLogger.mu.Unlock()
	globalLogger.enabled = enabled
	return nil
}

func current() zerolog.Logger {
	if globalLogger == nil {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	globalLogger.mu.Lock()
	defer globalLogger.mu.Unlock()
	if !globalLogger.enabled {
		return zerolog.Nop()
	}
	return globalLogger.logger
}

// Printf logs a formatted message at info level.
func Printf(format string, v ...interface{}) {
	if globalLogger == nil {
		log.Printf(format, v...)
		return
	}
	l := current()
	l.Info().Msgf(format, v...)
}

// Infof logs an info-level formatted message.
func Infof(format string, v ...interface{}) { l := current(); l.Info().Msgf(format, v...) }

// Info logs an info-level message.
func Info(v ...interface{}) { l := current(); l.Info().Msg(sprint(v...)) }

// Errorf logs an error-level formatted message.
func Errorf(format string, v ...interface{}) { l := current(); l.Error().Msgf(format, v...) }

// Error logs an error-level message.
func Error(v ...interface{}) { l := current(); l.Error().Msg(sprint(v...)) }

// Debugf logs a debug-level formatted message.
func Debugf(format string, v ...interface{}) { l := current(); l.Debug().Msgf(format, v...) }

func sprint(v ...interface{}) string {
	if len(v) == 1 {
		if s, ok := v[0].(string); ok {
			return s
		}
	}
	return fmt.Sprint(v...)
}
