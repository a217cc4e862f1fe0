package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Leveled logger shared by the companion packages.
// - Init(level) sets the global threshold (default Info)
// - For(component) returns a logger that tags each line with the component name

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
	LevelFatal: "fatal",
}

var (
	mu    sync.RWMutex
	out   *log.Logger = log.New(os.Stdout, "", 0)
	level Level       = LevelInfo
)

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Unknown values fall back to info.
func Init(l string) {
	mu.Lock()
	defer mu.Unlock()
	level = parseLevel(l)
}

func parseLevel(l string) Level {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// SetOutput redirects log output and returns a function restoring the previous writer.
func SetOutput(w io.Writer) (restore func()) {
	mu.Lock()
	prev := out
	out = log.New(w, "", 0)
	mu.Unlock()
	return func() {
		mu.Lock()
		out = prev
		mu.Unlock()
	}
}

// LevelString returns the current level as text.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	if s, ok := levelNames[level]; ok {
		return s
	}
	return "info"
}

func emit(l Level, component, format string, v ...interface{}) {
	mu.RLock()
	lg, min := out, level
	mu.RUnlock()
	if l < min && l != LevelFatal {
		return
	}
	prefix := fmt.Sprintf("%s [%s] ", time.Now().Format(time.RFC3339), strings.ToUpper(levelNames[l]))
	if component != "" {
		prefix += component + ": "
	}
	lg.Printf(prefix+format, v...)
}

func Debugf(format string, v ...interface{}) { emit(LevelDebug, "", format, v...) }
func Infof(format string, v ...interface{})  { emit(LevelInfo, "", format, v...) }
func Warnf(format string, v ...interface{})  { emit(LevelWarn, "", format, v...) }
func Errorf(format string, v ...interface{}) { emit(LevelError, "", format, v...) }

func Fatalf(format string, v ...interface{}) {
	emit(LevelFatal, "", format, v...)
	os.Exit(1)
}

// Debug/Info/Warn/Error helpers that accept a single string
func Debug(v string) { Debugf("%s", v) }
func Info(v string)  { Infof("%s", v) }
func Warn(v string)  { Warnf("%s", v) }
func Error(v string) { Errorf("%s", v) }

// Logger tags every line with a component name.
type Logger struct {
	component string
}

// For returns a component logger, e.g. logger.For("billing").
func For(component string) *Logger {
	return &Logger{component: component}
}

func (l *Logger) Debugf(format string, v ...interface{}) { emit(LevelDebug, l.component, format, v...) }
func (l *Logger) Infof(format string, v ...interface{})  { emit(LevelInfo, l.component, format, v...) }
func (l *Logger) Warnf(format string, v ...interface{})  { emit(LevelWarn, l.component, format, v...) }
func (l *Logger) Errorf(format string, v ...interface{}) { emit(LevelError, l.component, format, v...) }
