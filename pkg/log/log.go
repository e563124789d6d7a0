// Package log prints user-facing sync output to the console while mirroring
// everything into zerolog for debugging.
package log

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/grhansen/dotsync/pkg/mirror"
)

// 🎨 Display configuration
const (
	fileIndent = 4  // spaces to indent file entries
	nameWidth  = 35 // base width for relative file paths
)

// 🎯 FileOperation represents one file outcome for logging
type FileOperation struct {
	Path      string // relative file path
	Target    string // destination the file was written to
	Copied    bool   // whether the file was overwritten or created
	Unchanged bool   // whether the destination already matched
	Err       error  // set when the copy failed
}

// 🎯 Logger handles user console output with a zerolog mirror
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
}

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 📝 formatFileOperation formats a file operation for display
func (l *Logger) formatFileOperation(op FileOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	var status string
	switch {
	case op.Err != nil:
		symbol = '✗'
		symbolColor = color.FgRed
		status = op.Err.Error()
	case op.Copied:
		symbol = '✓'
		symbolColor = color.FgGreen
		status = "overwritten"
	default:
		symbol = '-'
		symbolColor = color.FgYellow
		status = "no changes"
	}

	return fmt.Sprintf("%s%s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.Path),
		status)
}

// 📝 LogFileOperation logs one file outcome
func (l *Logger) LogFileOperation(op FileOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(l.console, l.formatFileOperation(op))

	event := l.zlog.Info()
	if op.Err != nil {
		event = l.zlog.Error().Err(op.Err)
	}
	event.
		Str("file", op.Path).
		Str("target", op.Target).
		Bool("copied", op.Copied).
		Bool("unchanged", op.Unchanged).
		Msg("file operation")
}

// 📊 LogSyncResult prints every attempted file followed by a summary line
func (l *Logger) LogSyncResult(result *mirror.SyncResult) {
	for _, entry := range result.Copied {
		l.LogFileOperation(FileOperation{Path: entry.RelPath, Target: entry.Target, Copied: true})
	}
	for _, entry := range result.Unchanged {
		l.LogFileOperation(FileOperation{Path: entry.RelPath, Target: entry.Target, Unchanged: true})
	}

	failed := make([]string, 0, len(result.Failed))
	for path := range result.Failed {
		failed = append(failed, path)
	}
	sort.Strings(failed)
	for _, path := range failed {
		l.LogFileOperation(FileOperation{Path: path, Err: result.Failed[path]})
	}

	switch {
	case !result.Ok():
		l.Errorf("%d file(s) failed, %d updated, %d unchanged",
			len(result.Failed), len(result.Copied), len(result.Unchanged))
	case len(result.Copied) == 0 && len(result.Unchanged) == 0:
		l.Info("no files to synchronize")
	default:
		l.Successf("%d file(s) updated, %d unchanged", len(result.Copied), len(result.Unchanged))
	}
}

// 📝 Header logs the banner for a sub-command
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("dotsync")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
