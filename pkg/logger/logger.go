package logger

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

var Log *slog.Logger

type asyncWriter struct {
	ch chan []byte
}

func (a *asyncWriter) Write(p []byte) (n int, err error) {
	cp := make([]byte, len(p))
	copy(cp, p)
	select {
	case a.ch <- cp:
		return len(p), nil
	default:
		// drop if queue full to avoid blocking request goroutines
		return len(p), nil
	}
}

var (
	logCh     chan []byte
	logStopCh chan struct{}
	logWG     sync.WaitGroup
	logMu     sync.Mutex
)

// ParseLevel maps a config/env level string onto a slog level. Unknown
// values fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init initializes the global logger with an async buffered text handler.
// An empty level falls back to WEBSERVER_LOG_LEVEL. WEBSERVER_LOG_SINK
// may point at a file ("file:/path/to/log"); stdout is used otherwise.
func Init(level string) {
	if strings.TrimSpace(level) == "" {
		level = os.Getenv("WEBSERVER_LOG_LEVEL")
	}
	sink := os.Getenv("WEBSERVER_LOG_SINK")

	logMu.Lock()
	defer logMu.Unlock()
	stopLocked()

	logCh = make(chan []byte, 10000)
	logStopCh = make(chan struct{})
	aw := &asyncWriter{ch: logCh}
	Log = slog.New(slog.NewTextHandler(aw, &slog.HandlerOptions{Level: ParseLevel(level)}))

	ch, stop := logCh, logStopCh
	logWG.Add(1)
	go func() {
		defer logWG.Done()
		var f *os.File
		out := io.Writer(os.Stdout)
		if strings.HasPrefix(sink, "file:") {
			path := strings.TrimPrefix(sink, "file:")
			var err error
			f, err = os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to open log file %s: %v\n", path, err)
			} else {
				out = f
			}
		}
		buf := bufio.NewWriterSize(out, 8192)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case b := <-ch:
				buf.Write(b)
			case <-ticker.C:
				buf.Flush()
			case <-stop:
				// drain what is already queued
				for {
					select {
					case b := <-ch:
						buf.Write(b)
						continue
					default:
					}
					break
				}
				buf.Flush()
				if f != nil {
					f.Close()
				}
				return
			}
		}
	}()
}

// UseWriter installs a synchronous logger writing to w. Tests use it to
// capture output.
func UseWriter(w io.Writer, level string) {
	logMu.Lock()
	defer logMu.Unlock()
	stopLocked()
	Log = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// Sync flushes any buffered logs.
func Sync() {
	logMu.Lock()
	defer logMu.Unlock()
	stopLocked()
}

func stopLocked() {
	if logStopCh != nil {
		close(logStopCh)
		logWG.Wait()
		logStopCh = nil
	}
}

// Debug logs with slog-style key/value pairs.
func Debug(msg string, args ...any) {
	if Log == nil {
		return
	}
	Log.Debug(msg, args...)
}

// Info logs with slog-style key/value pairs.
func Info(msg string, args ...any) {
	if Log == nil {
		return
	}
	Log.Info(msg, args...)
}

// Warn logs with slog-style key/value pairs.
func Warn(msg string, args ...any) {
	if Log == nil {
		return
	}
	Log.Warn(msg, args...)
}

// Error logs with slog-style key/value pairs.
func Error(msg string, args ...any) {
	if Log == nil {
		return
	}
	Log.Error(msg, args...)
}
