// Package logging provides named, leveled loggers for focus components.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/lni/dragonboat/v4/logger"
)

// Components lists the logger names used throughout focus.
var Components = []string{"store", "migrate", "backup", "mcp", "cli"}

var (
	installOnce sync.Once
	outputMu    sync.Mutex
	output      io.Writer = os.Stderr
)

// focusLogger implements logger.ILogger with a "LEVEL | component | message" layout.
type focusLogger struct {
	mu     sync.Mutex
	name   string
	level  logger.LogLevel
	logger *log.Logger
}

func (l *focusLogger) SetLevel(level logger.LogLevel) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

func (l *focusLogger) enabled(level logger.LogLevel) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level >= level
}

func (l *focusLogger) Debugf(format string, args ...interface{}) {
	if l.enabled(logger.DEBUG) {
		l.log("DEBUG", format, args...)
	}
}

func (l *focusLogger) Infof(format string, args ...interface{}) {
	if l.enabled(logger.INFO) {
		l.log("INFO", format, args...)
	}
}

func (l *focusLogger) Warningf(format string, args ...interface{}) {
	if l.enabled(logger.WARNING) {
		l.log("WARN", format, args...)
	}
}

func (l *focusLogger) Errorf(format string, args ...interface{}) {
	if l.enabled(logger.ERROR) {
		l.log("ERROR", format, args...)
	}
}

func (l *focusLogger) Panicf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	l.log("PANIC", "%s", message)
	panic(message)
}

func (l *focusLogger) log(levelStr string, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	l.logger.Printf("%-5s | %-15s | %s", levelStr, l.name, message)
}

type syncWriter struct{}

func (syncWriter) Write(p []byte) (int, error) {
	outputMu.Lock()
	defer outputMu.Unlock()
	return output.Write(p)
}

// createLogger is installed as the dragonboat logger factory.
func createLogger(pkgName string) logger.ILogger {
	return &focusLogger{
		name:   pkgName,
		level:  logger.WARNING,
		logger: log.New(syncWriter{}, "", log.Ldate|log.Ltime),
	}
}

func install() {
	installOnce.Do(func() {
		logger.SetLoggerFactory(createLogger)
	})
}

// GetLogger returns the named logger, installing the focus factory on first use.
func GetLogger(name string) logger.ILogger {
	install()
	return logger.GetLogger(name)
}

// SetOutput redirects every focus logger to w. It returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	outputMu.Lock()
	defer outputMu.Unlock()
	prev := output
	output = w
	return prev
}

// ParseLevel converts a textual level into a logger.LogLevel.
func ParseLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn", "":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return logger.WARNING, fmt.Errorf("invalid log level: %s (valid values: debug, info, warn, error)", level)
	}
}

// Init applies level to every focus component logger.
func Init(level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	for _, name := range Components {
		GetLogger(name).SetLevel(lvl)
	}
	return nil
}
