package logger

import (
	"context"
	"time"

	ctxutil "github.com/Payphone-Digital/accounts/pkg/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Entry accumulates fields for a single log line. Nothing is written until Log
// is called, and every method is a no-op once the level has been filtered out.
type Entry struct {
	engine    *Engine
	ctx       context.Context
	level     zapcore.Level
	message   string
	fields    []zap.Field
	shouldLog bool
}

func (e *Engine) entry(ctx context.Context, level zapcore.Level, message string) *Entry {
	en := &Entry{
		engine:    e,
		ctx:       ctx,
		level:     level,
		message:   message,
		shouldLog: e.shouldLog(level),
	}
	if en.shouldLog {
		en.fields = make([]zap.Field, 0, 12)
		en.extractContextFields()
	}
	return en
}

func (en *Entry) extractContextFields() {
	if en.ctx == nil {
		return
	}

	if requestID := ctxutil.GetRequestID(en.ctx); requestID != "" {
		en.fields = append(en.fields, zap.String("request_id", requestID))
	}
	if correlationID := ctxutil.GetCorrelationID(en.ctx); correlationID != "" {
		en.fields = append(en.fields, zap.String("correlation_id", correlationID))
	}
	if clientIP := ctxutil.GetClientIP(en.ctx); clientIP != "" {
		en.fields = append(en.fields, zap.String("client_ip", clientIP))
	}
	if userAgent := ctxutil.GetUserAgent(en.ctx); userAgent != "" {
		en.fields = append(en.fields, zap.String("user_agent", userAgent))
	}
	if userID, ok := ctxutil.GetUserID(en.ctx); ok {
		en.fields = append(en.fields, zap.Uint("user_id", userID))
	}
	if deviceID := ctxutil.GetDeviceID(en.ctx); deviceID != "" {
		en.fields = append(en.fields, zap.String("device_id", deviceID))
	}
	if module := ctxutil.GetModule(en.ctx); module != "" {
		en.fields = append(en.fields, zap.String("module", module))
	}
	if function := ctxutil.GetFunction(en.ctx); function != "" {
		en.fields = append(en.fields, zap.String("function", function))
	}
}

func (en *Entry) String(key, value string) *Entry {
	if en.shouldLog {
		en.fields = append(en.fields, zap.String(key, value))
	}
	return en
}

func (en *Entry) Int(key string, value int) *Entry {
	if en.shouldLog {
		en.fields = append(en.fields, zap.Int(key, value))
	}
	return en
}

func (en *Entry) Int64(key string, value int64) *Entry {
	if en.shouldLog {
		en.fields = append(en.fields, zap.Int64(key, value))
	}
	return en
}

func (en *Entry) Uint(key string, value uint) *Entry {
	if en.shouldLog {
		en.fields = append(en.fields, zap.Uint(key, value))
	}
	return en
}

func (en *Entry) Bool(key string, value bool) *Entry {
	if en.shouldLog {
		en.fields = append(en.fields, zap.Bool(key, value))
	}
	return en
}

func (en *Entry) Duration(value time.Duration) *Entry {
	if en.shouldLog {
		en.fields = append(en.fields, zap.Duration("duration", value))
	}
	return en
}

func (en *Entry) Err(err error) *Entry {
	if en.shouldLog && err != nil {
		en.fields = append(en.fields, zap.Error(err))
	}
	return en
}

func (en *Entry) Any(key string, value interface{}) *Entry {
	if en.shouldLog {
		en.fields = append(en.fields, zap.Any(key, value))
	}
	return en
}

// Fields adds every pair of the map
func (en *Entry) Fields(fields map[string]interface{}) *Entry {
	if en.shouldLog {
		for k, v := range fields {
			en.fields = append(en.fields, zap.Any(k, v))
		}
	}
	return en
}

func (en *Entry) Method(method string) *Entry {
	return en.String("method", method)
}

func (en *Entry) Path(path string) *Entry {
	return en.String("path", path)
}

func (en *Entry) StatusCode(code int) *Entry {
	return en.Int("status_code", code)
}

func (en *Entry) Log() {
	if !en.shouldLog {
		return
	}
	en.engine.write(en.level, en.message, en.fields)
}

func InfoWithContext(ctx context.Context, message string) *Entry {
	return GetEngine().entry(ctx, zapcore.InfoLevel, message)
}

func WarnWithContext(ctx context.Context, message string) *Entry {
	return GetEngine().entry(ctx, zapcore.WarnLevel, message)
}

func ErrorWithContext(ctx context.Context, message string) *Entry {
	return GetEngine().entry(ctx, zapcore.ErrorLevel, message)
}

func DebugWithContext(ctx context.Context, message string) *Entry {
	return GetEngine().entry(ctx, zapcore.DebugLevel, message)
}

// Info and friends log outside any request, e.g. during startup.
func Info(message string) *Entry {
	return InfoWithContext(context.Background(), message)
}

func Warn(message string) *Entry {
	return WarnWithContext(context.Background(), message)
}

func Error(message string) *Entry {
	return ErrorWithContext(context.Background(), message)
}

func Debug(message string) *Entry {
	return DebugWithContext(context.Background(), message)
}
