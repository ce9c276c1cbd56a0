package logging

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type (
	Field  = zapcore.Field
	Option = zap.Option
)

type LoggerCtxKey struct{}

type zapLogger interface {
	Debug(msg string, fields ...zapcore.Field)
	Error(msg string, fields ...zapcore.Field)
	Info(msg string, fields ...zapcore.Field)
	Sync() error
	Warn(msg string, fields ...zapcore.Field)
	Named(name string) *zap.Logger
	With(fields ...zapcore.Field) *zap.Logger
}

type Logger struct {
	log zapLogger
}

var (
	logOnce      sync.Once
	cachedLogger *Logger
)

func inProduction() bool {
	return os.Getenv("AUTOFINISH_ENV") == "production"
}

func defaultLogger(debug bool) *zap.Logger {
	opts := []Option{
		zap.AddCallerSkip(1),
	}

	var logCfg zap.Config
	if inProduction() {
		logCfg = zap.NewProductionConfig()
	} else {
		logCfg = zap.NewDevelopmentConfig()
		logCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if !debug {
		logCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)

	logger, err := logCfg.Build(opts...)
	if err != nil {
		log.Panicf("could not create logger: %v", err)
	}

	return logger
}

// Setup builds the process wide logger. Only the first call has an effect.
func Setup(debug bool) *Logger {
	logOnce.Do(func() {
		cachedLogger = &Logger{
			log: defaultLogger(debug),
		}
	})

	return cachedLogger
}

func New() *Logger {
	return Setup(false)
}

// Wrap adapts an existing zap logger, e.g. one built by zaptest.
func Wrap(l *zap.Logger) *Logger {
	return &Logger{
		log: l,
	}
}

func FromContext(ctx context.Context) *Logger {
	if ctx == nil {
		return New()
	}

	if l, ok := ctx.Value(LoggerCtxKey{}).(*Logger); ok {
		return l
	}

	return New()
}

func (l Logger) Debug(msg string, fields ...Field) {
	l.log.Debug(msg, fields...)
}

func (l Logger) Error(msg string, fields ...Field) {
	l.log.Error(msg, fields...)
}

func (l Logger) Info(msg string, fields ...Field) {
	l.log.Info(msg, fields...)
}

func (l Logger) Sync() error {
	return l.log.Sync()
}

func (l Logger) Warn(msg string, fields ...Field) {
	l.log.Warn(msg, fields...)
}

func (l Logger) Named(name string) *Logger {
	return &Logger{
		log: l.log.Named(name),
	}
}

func (l Logger) With(fields ...Field) *Logger {
	return &Logger{
		log: l.log.With(fields...),
	}
}

func (l *Logger) GetContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, LoggerCtxKey{}, l)
}
