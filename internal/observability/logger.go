package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger: структурный JSON-логгер: stdout плюс файл с ротацией.
type Logger struct {
	l    *slog.Logger
	file *lumberjack.Logger
}

// NewLogger пишет в stdout и, если задан logPath, в ротируемый файл.
func NewLogger(logPath, logLevel string) *Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(logLevel)))); err != nil {
		level = slog.LevelInfo
	}

	var out io.Writer = os.Stdout
	var file *lumberjack.Logger
	if logPath != "" {
		file = &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     30, // дней
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, file)
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	return &Logger{l: slog.New(handler), file: file}
}

// NewNopLogger: для тестов.
func NewNopLogger() *Logger {
	return &Logger{l: slog.New(slog.NewJSONHandler(io.Discard, nil))}
}

// With возвращает дочерний логгер с постоянными полями (run_id, source).
func (l *Logger) With(fields ...interface{}) *Logger {
	return &Logger{l: l.l.With(fields...), file: l.file}
}

func (l *Logger) Debug(msg string, fields ...interface{}) {
	l.l.Debug(msg, fields...)
}

func (l *Logger) Info(msg string, fields ...interface{}) {
	l.l.Info(msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...interface{}) {
	l.l.Warn(msg, fields...)
}

func (l *Logger) Error(msg string, fields ...interface{}) {
	l.l.Error(msg, fields...)
}

// Close закрывает файл логов.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
