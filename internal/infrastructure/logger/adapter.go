package logger

import (
	"go.uber.org/zap"
	"gopkg.in/natefinch/lumberjack.v2"

	"form-agent/internal/application/port/output"
)

var _ output.LoggerPort = (*LoggerAdapter)(nil)

type LoggerAdapter struct {
	z    *zap.SugaredLogger
	file *lumberjack.Logger
}

func (l *LoggerAdapter) Debug(msg string, args ...any) {
	l.z.Debugw(msg, args...)
}

func (l *LoggerAdapter) Info(msg string, args ...any) {
	l.z.Infow(msg, args...)
}

func (l *LoggerAdapter) Warn(msg string, args ...any) {
	l.z.Warnw(msg, args...)
}

func (l *LoggerAdapter) Error(msg string, args ...any) {
	l.z.Errorw(msg, args...)
}

func (l *LoggerAdapter) WithField(key string, value any) output.LoggerPort {
	return &LoggerAdapter{z: l.z.With(key, value), file: l.file}
}

func (l *LoggerAdapter) WithFields(fields map[string]any) output.LoggerPort {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &LoggerAdapter{z: l.z.With(args...), file: l.file}
}

// Close flushes buffered entries and releases the file sink. Derived loggers
// share the sink, so only the root should be closed.
func (l *LoggerAdapter) Close() error {
	_ = l.z.Sync()
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
