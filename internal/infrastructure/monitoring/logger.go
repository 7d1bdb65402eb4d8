// Package monitoring provides the zap-backed logger, Prometheus metrics and
// OpenTelemetry tracing setup.
package monitoring

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/studioconnect/relay/internal/config"
	"github.com/studioconnect/relay/pkg/constants"
	"github.com/studioconnect/relay/pkg/logger"
)

type zapLogger struct {
	*zap.Logger
}

// NewZapLogger creates a production JSON logger at the configured level.
func NewZapLogger(cfg *config.LogConfig) (logger.Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(os.Stdout),
		level,
	)

	return &zapLogger{zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))}, nil
}

func (l *zapLogger) Debug(ctx context.Context, msg string, fields ...logger.Fields) {
	l.Logger.Debug(msg, l.convertFields(ctx, fields...)...)
}

func (l *zapLogger) Info(ctx context.Context, msg string, fields ...logger.Fields) {
	l.Logger.Info(msg, l.convertFields(ctx, fields...)...)
}

func (l *zapLogger) Warn(ctx context.Context, msg string, fields ...logger.Fields) {
	l.Logger.Warn(msg, l.convertFields(ctx, fields...)...)
}

func (l *zapLogger) Error(ctx context.Context, msg string, err error, fields ...logger.Fields) {
	zapFields := append(l.convertFields(ctx, fields...), zap.Error(err))
	l.Logger.Error(msg, zapFields...)
}

func (l *zapLogger) Fatal(ctx context.Context, msg string, err error, fields ...logger.Fields) {
	zapFields := append(l.convertFields(ctx, fields...), zap.Error(err))
	l.Logger.Fatal(msg, zapFields...)
}

func (l *zapLogger) WithFields(fields logger.Fields) logger.Logger {
	return &zapLogger{l.Logger.With(l.convertFields(context.Background(), fields)...)}
}

func (l *zapLogger) WithComponent(component string) logger.Logger {
	return &zapLogger{l.Logger.With(zap.String("component", component))}
}

func (l *zapLogger) convertFields(ctx context.Context, fields ...logger.Fields) []zap.Field {
	zapFields := make([]zap.Field, 0, len(fields)*4)
	if requestID, ok := ctx.Value(constants.ContextKeyRequestID).(string); ok && requestID != "" {
		zapFields = append(zapFields, zap.String("request_id", requestID))
	}
	for _, f := range fields {
		for k, v := range f {
			zapFields = append(zapFields, zap.Any(k, v))
		}
	}
	return zapFields
}
