package logger

import (
	"fmt"
	"io"
	"log"
	"strings"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel accepts the names used in config files, case-insensitive.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG, nil
	case "", "info":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	}
	return INFO, fmt.Errorf("unknown log level %q", s)
}

type Logger struct {
	level  Level
	logger *log.Logger
}

func New(out io.Writer, level Level) *Logger {
	return &Logger{
		level:  level,
		logger: log.New(out, "", log.LstdFlags|log.Lmicroseconds),
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(io.Discard, ERROR+1)
}

func (l *Logger) Level() Level {
	return l.level
}

func (l *Logger) logf(level Level, format string, args ...any) {
	if l == nil || level < l.level {
		return
	}
	l.logger.Printf(level.String()+" "+format, args...)
}

func (l *Logger) Debugf(format string, args ...any) {
	l.logf(DEBUG, format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.logf(INFO, format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.logf(WARN, format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.logf(ERROR, format, args...)
}
