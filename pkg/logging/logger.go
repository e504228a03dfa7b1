package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Global logger instance and synchronization
var (
	logger   *zap.SugaredLogger
	base     *zap.Logger
	loggerMu sync.RWMutex
	logFile  *os.File
	isInited bool
	initOnce sync.Once
)

// LogLevel represents logging verbosity
type LogLevel string

const (
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
)

// Config holds logger configuration
type Config struct {
	Level      LogLevel
	OutputPath string // "", "stderr", "stdout" or a file path
	Format     string // "json" or "text"
}

func (l LogLevel) zapLevel() (zapcore.Level, error) {
	switch strings.ToUpper(string(l)) {
	case "DEBUG":
		return zapcore.DebugLevel, nil
	case "INFO", "":
		return zapcore.InfoLevel, nil
	case "WARN", "WARNING":
		return zapcore.WarnLevel, nil
	case "ERROR":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level: %s", l)
	}
}

// Init initializes the global logger with the given configuration.
// Subsequent calls return an error until Close is called.
func Init(config Config) error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if isInited {
		return fmt.Errorf("logger already initialized; call Close() first to reinitialize")
	}

	level, err := config.Level.zapLevel()
	if err != nil {
		return err
	}

	var sink zapcore.WriteSyncer
	switch strings.ToLower(config.OutputPath) {
	case "", "stderr":
		sink = zapcore.AddSync(os.Stderr)
	case "stdout":
		sink = zapcore.AddSync(os.Stdout)
	default:
		if err := os.MkdirAll(filepath.Dir(config.OutputPath), 0o750); err != nil {
			return err
		}
		file, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return err
		}
		sink = zapcore.AddSync(file)
		logFile = file
	}

	install(zap.New(zapcore.NewCore(encoderFor(config.Format), sink, level), zap.AddCaller()))
	return nil
}

func encoderFor(format string) zapcore.Encoder {
	if strings.ToLower(format) == "json" {
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "timestamp"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewJSONEncoder(cfg)
	}

	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	return zapcore.NewConsoleEncoder(cfg)
}

// install must be called with loggerMu held.
func install(l *zap.Logger) {
	base = l
	logger = l.Sugar()
	isInited = true
}

// InitDefault initializes the logger with INFO level text output on stderr.
// It is safe to call multiple times.
func InitDefault() {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if isInited {
		return
	}

	core := zapcore.NewCore(encoderFor("text"), zapcore.AddSync(os.Stderr), zapcore.InfoLevel)
	install(zap.New(core))
}

// UseLogger replaces the global logger, mainly so tests can observe output.
func UseLogger(l *zap.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	install(l)
}

// Close flushes the logger and closes any open file handle.
// After calling Close, Init can be called again. Safe to call multiple times.
func Close() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if !isInited {
		return nil
	}

	_ = base.Sync()

	var err error
	if logFile != nil {
		err = logFile.Close()
		logFile = nil
	}

	logger = nil
	base = nil
	isInited = false
	initOnce = sync.Once{}
	return err
}

// GetLogger returns the current logger, lazily creating the default one.
func GetLogger() *zap.SugaredLogger {
	loggerMu.RLock()
	if isInited {
		l := logger
		loggerMu.RUnlock()
		return l
	}
	loggerMu.RUnlock()

	initOnce.Do(InitDefault)

	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

func Debug(msg string, args ...any) {
	GetLogger().Debugw(msg, args...)
}

func Info(msg string, args ...any) {
	GetLogger().Infow(msg, args...)
}

func Warn(msg string, args ...any) {
	GetLogger().Warnw(msg, args...)
}

func Error(msg string, args ...any) {
	GetLogger().Errorw(msg, args...)
}
