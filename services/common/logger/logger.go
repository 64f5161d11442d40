package logger

import (
	"context"
	"io"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Log is the global logger instance
	Log = zap.NewNop()
)

// RequestIDKey is the key used to store request ID in context
const RequestIDKey = "request_id"

// Initialize builds the process logger for env ("production" or anything
// else for development), installs it as Log and zap's global, and returns it.
func Initialize(env string, serviceName string) (*zap.Logger, error) {
	return InitializeWithWriter(env, serviceName, nil)
}

// InitializeWithWriter is Initialize with an optional extra JSON sink, used
// for the CloudWatch Logs writer.
func InitializeWithWriter(env string, serviceName string, sink io.Writer) (*zap.Logger, error) {
	var config zap.Config
	if env == "production" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var l *zap.Logger
	if sink != nil {
		level := zap.NewAtomicLevelAt(config.Level.Level())
		consoleCore := zapcore.NewCore(zapcore.NewConsoleEncoder(config.EncoderConfig), zapcore.AddSync(os.Stdout), level)

		jsonConfig := config.EncoderConfig
		jsonConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		sinkCore := zapcore.NewCore(zapcore.NewJSONEncoder(jsonConfig), zapcore.AddSync(sink), level)

		l = zap.New(zapcore.NewTee(consoleCore, sinkCore), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	} else {
		var err error
		l, err = config.Build()
		if err != nil {
			return nil, err
		}
	}

	l = l.With(zap.String("service", serviceName))
	Log = l
	zap.ReplaceGlobals(l)
	return l, nil
}

// FromContext returns Log annotated with the request ID carried by ctx, if any.
func FromContext(ctx context.Context) *zap.Logger {
	if rid := RequestID(ctx); rid != "" {
		return Log.With(zap.String("request_id", rid))
	}
	return Log
}

// RequestID extracts the request ID from a gin context or from a context
// derived with WithRequestID.
func RequestID(ctx context.Context) string {
	if ginCtx, ok := ctx.(*gin.Context); ok {
		return ginCtx.GetString(RequestIDKey)
	}
	if rid, ok := ctx.Value(requestIDCtxKey{}).(string); ok {
		return rid
	}
	return ""
}

type requestIDCtxKey struct{}

// WithRequestID stores the request ID on a plain context.Context so it
// survives c.Request.Context() hand-offs into the service layer.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDCtxKey{}, requestID)
}
