// Package logger is a small prefixed logger over the standard log package.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

type Logger struct {
	prefix string
}

var (
	mu           sync.RWMutex
	base         = log.New(os.Stderr, "", log.LstdFlags)
	debugEnabled = os.Getenv("LOCKBOX_DEBUG") != ""
)

// SetOutput redirects every logger.
func SetOutput(w io.Writer) {
	mu.Lock()
	base = log.New(w, "", log.LstdFlags)
	mu.Unlock()
}

// EnableDebug turns debug logging on or off.
func EnableDebug(on bool) {
	mu.Lock()
	debugEnabled = on
	mu.Unlock()
}

func IsDebug() bool {
	mu.RLock()
	defer mu.RUnlock()
	return debugEnabled
}

func New(prefix string) *Logger {
	return &Logger{prefix: prefix}
}

func (l *Logger) output(level, msg string) {
	mu.RLock()
	b := base
	mu.RUnlock()
	b.Printf("[%s] %s: %s", l.prefix, level, msg)
}

func (l *Logger) Info(fmtstr string, v ...any) {
	l.output("INFO", fmt.Sprintf(fmtstr, v...))
}

func (l *Logger) Error(fmtstr string, v ...any) {
	msg := fmt.Sprintf(fmtstr, v...)
	if _, file, line, ok := runtime.Caller(1); ok {
		msg = fmt.Sprintf("(%s:%d) %s", filepath.Base(file), line, msg)
	}
	l.output("ERROR", msg)
}

func (l *Logger) Debug(fmtstr string, v ...any) {
	if !IsDebug() {
		return
	}
	l.output("DEBUG", fmt.Sprintf(fmtstr, v...))
}
