package logger

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/Payphone-Digital/accounts/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	engine *Engine
)

// InitLogger builds the process logger from the application config. JSON goes
// to stdout, errors additionally to stderr, and when LOGS_PATH is set every
// level is also appended to files under that directory.
func InitLogger(cfg *config.Config) error {
	opts := OptionsFor(cfg.App.Environment)

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	encoder := zapcore.NewJSONEncoder(encoderConfig)

	stdout := zapcore.AddSync(os.Stdout)
	stderr := zapcore.AddSync(os.Stderr)

	if cfg.App.LogsPath != "" {
		if err := os.MkdirAll(cfg.App.LogsPath, 0755); err != nil {
			return err
		}
		infoFile, err := os.OpenFile(filepath.Join(cfg.App.LogsPath, "info.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		errorFile, err := os.OpenFile(filepath.Join(cfg.App.LogsPath, "error.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			infoFile.Close()
			return err
		}
		stdout = zapcore.NewMultiWriteSyncer(stdout, zapcore.AddSync(infoFile))
		stderr = zapcore.NewMultiWriteSyncer(stderr, zapcore.AddSync(errorFile))
	}

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, stdout, opts.MinLevel),
		zapcore.NewCore(encoder.Clone(), stderr, zapcore.ErrorLevel),
	)

	zl := zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel)).
		With(zap.String("service", cfg.App.Name), zap.String("env", cfg.App.Environment))

	SetEngine(NewEngine(zl, opts))
	return nil
}

// SetEngine replaces the global logger. Tests use it to capture output.
func SetEngine(e *Engine) {
	mu.Lock()
	defer mu.Unlock()
	engine = e
}

// GetEngine returns the global logger, falling back to a development one
// when InitLogger has not been called.
func GetEngine() *Engine {
	mu.RLock()
	e := engine
	mu.RUnlock()
	if e != nil {
		return e
	}

	mu.Lock()
	defer mu.Unlock()
	if engine == nil {
		zl, err := zap.NewDevelopment()
		if err != nil {
			zl = zap.NewNop()
		}
		engine = NewEngine(zl, OptionsFor(os.Getenv("APP_ENV")))
	}
	return engine
}

// GetLogger returns the underlying zap logger
func GetLogger() *zap.Logger {
	return GetEngine().zap
}

// Sync flushes buffered entries (call this before application exits)
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if engine != nil {
		_ = engine.zap.Sync()
	}
}

// LogPanic logs a recovered panic with its stack
func LogPanic(recovered interface{}) {
	GetLogger().Error("Panic recovered",
		zap.Any("panic", recovered),
		zap.Stack("stack"),
	)
}
