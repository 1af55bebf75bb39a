// Package logging reimplements the teacher's structured, terminal-aware
// logger (go-ethereum's log package) as a standalone dependency: the
// same Trace/Debug/Info/Warn/Error/Crit-with-key-value-pairs shape,
// colorized when attached to a terminal, rotated to disk via
// lumberjack.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level mirrors the teacher's log-level ordering.
type Level int

const (
	LevelCrit Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

func (l Level) String() string {
	switch l {
	case LevelCrit:
		return "CRIT"
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	case LevelTrace:
		return "TRACE"
	default:
		return "UNKNOWN"
	}
}

var levelColor = map[Level]*color.Color{
	LevelCrit:  color.New(color.FgMagenta, color.Bold),
	LevelError: color.New(color.FgRed, color.Bold),
	LevelWarn:  color.New(color.FgYellow),
	LevelInfo:  color.New(color.FgGreen),
	LevelDebug: color.New(color.FgCyan),
	LevelTrace: color.New(color.FgWhite),
}

// Logger is the structured logging surface used across the node, one
// instance per component via Logger.New(ctx...).
type Logger struct {
	mu       *sync.Mutex
	out      io.Writer
	colorize bool
	level    Level
	ctx      []interface{}
}

// defaultWriter wraps stderr through go-colorable so ANSI codes render
// correctly on Windows consoles too, matching the teacher's terminal
// handler.
func defaultWriter() (io.Writer, bool) {
	if isatty.IsTerminal(os.Stderr.Fd()) {
		return colorable.NewColorableStderr(), true
	}
	return os.Stderr, false
}

// New returns the root logger at LevelInfo writing to the terminal (or
// plain stderr when not attached to one).
func New() *Logger {
	w, colorize := defaultWriter()
	return &Logger{mu: &sync.Mutex{}, out: w, colorize: colorize, level: LevelInfo}
}

// NewFileLogger returns a logger that rotates output to path using
// lumberjack, for `--log.file`-style deployments.
func NewFileLogger(path string, maxSizeMB, maxBackups, maxAgeDays int) *Logger {
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}
	return &Logger{mu: &sync.Mutex{}, out: w, colorize: false, level: LevelInfo}
}

// NewWithWriter returns a logger writing to w instead of the terminal,
// for tests and other callers that need to capture output.
func NewWithWriter(w io.Writer) *Logger {
	return &Logger{mu: &sync.Mutex{}, out: w, colorize: false, level: LevelInfo}
}

// SetLevel adjusts the minimum level this logger emits.
func (l *Logger) SetLevel(lvl Level) { l.level = lvl }

// New returns a child logger that prepends ctx to every record's
// key-value pairs, mirroring the teacher's `log.New(ctx...)` component
// sub-loggers.
func (l *Logger) New(ctx ...interface{}) *Logger {
	return &Logger{mu: l.mu, out: l.out, colorize: l.colorize, level: l.level, ctx: append(append([]interface{}{}, l.ctx...), ctx...)}
}

func (l *Logger) log(lvl Level, msg string, ctx []interface{}) {
	if lvl > l.level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	var b strings.Builder
	b.WriteString(time.Now().Format("2006-01-02T15:04:05.000-0700"))
	b.WriteByte(' ')
	levelTag := fmt.Sprintf("[%-5s]", lvl.String())
	if l.colorize {
		levelTag = levelColor[lvl].Sprint(levelTag)
	}
	b.WriteString(levelTag)
	b.WriteByte(' ')
	b.WriteString(msg)

	all := append(append([]interface{}{}, l.ctx...), ctx...)
	for i := 0; i+1 < len(all); i += 2 {
		fmt.Fprintf(&b, " %v=%v", all[i], all[i+1])
	}
	b.WriteByte('\n')
	io.WriteString(l.out, b.String())
}

func (l *Logger) Trace(msg string, ctx ...interface{}) { l.log(LevelTrace, msg, ctx) }
func (l *Logger) Debug(msg string, ctx ...interface{}) { l.log(LevelDebug, msg, ctx) }
func (l *Logger) Info(msg string, ctx ...interface{})  { l.log(LevelInfo, msg, ctx) }
func (l *Logger) Warn(msg string, ctx ...interface{})  { l.log(LevelWarn, msg, ctx) }
func (l *Logger) Error(msg string, ctx ...interface{}) { l.log(LevelError, msg, ctx) }

// Crit logs at LevelCrit and then terminates the process, matching the
// teacher's log.Crit semantics for unrecoverable startup failures
// (spec.md §7 "Configuration ... → Fatal at startup").
func (l *Logger) Crit(msg string, ctx ...interface{}) {
	l.log(LevelCrit, msg, ctx)
	os.Exit(1)
}

// Root is the process-wide default logger, mirroring the teacher's
// package-level log.Root().
var Root = New()
