// Package log provides structured logging for the Klingnet HD key tools.
//
// All output goes to stderr, and optionally to a JSON file, so command
// output on stdout stays machine-readable.
package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the root logger. Component loggers derive from it and are
// rebuilt by Init.
var Logger zerolog.Logger

var (
	Wallet  zerolog.Logger
	Keys    zerolog.Logger
	Storage zerolog.Logger
	CLI     zerolog.Logger
)

var levels = map[string]zerolog.Level{
	"trace": zerolog.TraceLevel,
	"debug": zerolog.DebugLevel,
	"info":  zerolog.InfoLevel,
	"warn":  zerolog.WarnLevel,
	"error": zerolog.ErrorLevel,
}

func init() {
	setRoot(NewConsoleLogger(os.Stderr, "info"))
}

// Init replaces the root logger. Console output is colored unless
// jsonOutput is set. A non-empty file receives a JSON copy of every entry.
func Init(level string, jsonOutput bool, file string) error {
	var console io.Writer = os.Stderr
	if !jsonOutput {
		console = consoleWriter(os.Stderr)
	}
	if file == "" {
		setRoot(newLogger(console, level))
		return nil
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	setRoot(newLogger(zerolog.MultiLevelWriter(console, f), level))
	return nil
}

// NewConsoleLogger returns a human-readable logger writing to w.
func NewConsoleLogger(w io.Writer, level string) zerolog.Logger {
	return newLogger(consoleWriter(w), level)
}

// NewJSONLogger returns a logger writing one JSON object per line to w.
func NewJSONLogger(w io.Writer, level string) zerolog.Logger {
	return newLogger(w, level)
}

// Nop returns a logger that discards everything.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

func consoleWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
}

// ParseLevel maps a level name to a zerolog level. Unknown names map to
// info.
func ParseLevel(level string) zerolog.Level {
	if l, ok := levels[level]; ok {
		return l
	}
	return zerolog.InfoLevel
}

// ValidLevel reports whether ParseLevel knows level.
func ValidLevel(level string) bool {
	_, ok := levels[level]
	return ok
}

func setRoot(l zerolog.Logger) {
	Logger = l
	Wallet = WithComponent("wallet")
	Keys = WithComponent("keys")
	Storage = WithComponent("storage")
	CLI = WithComponent("cli")
}

// WithComponent returns a child of the root logger tagged with component.
func WithComponent(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// WithWallet returns the wallet logger tagged with a wallet name.
func WithWallet(name string) zerolog.Logger {
	return Wallet.With().Str("wallet", name).Logger()
}

// Benchmark starts a timer. Calling the returned func logs the elapsed
// time of operation at debug level.
func Benchmark(l zerolog.Logger, operation string) func() {
	start := time.Now()
	return func() {
		l.Debug().Str("operation", operation).Dur("duration", time.Since(start)).Msg("benchmark")
	}
}
