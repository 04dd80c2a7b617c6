package debug

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/fatih/color"
)

// Level is the severity of a log line.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"debug", "info", "warn", "error"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel returns the level for one of "debug", "info", "warn" or "error".
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}
	return LevelInfo, fmt.Errorf("unknown log level: %q", s)
}

var prefixes = [...]func(a ...any) string{
	color.New(color.Faint).SprintFunc(),
	color.New(color.FgGreen).SprintFunc(),
	color.New(color.FgYellow).SprintFunc(),
	color.New(color.FgRed).SprintFunc(),
}

// Logger writes leveled lines. A nil *Logger discards everything, so
// components can be constructed without one.
type Logger struct {
	l     *log.Logger
	level Level
	name  string
}

// NewLogger returns a logger writing lines of at least level to w.
func NewLogger(w io.Writer, level Level) *Logger {
	return &Logger{l: log.New(w, "", 0), level: level}
}

// Named returns a logger that prefixes every line with the subsystem name.
func (p *Logger) Named(name string) *Logger {
	if p == nil {
		return nil
	}
	if p.name != "" {
		name = p.name + "/" + name
	}
	return &Logger{l: p.l, level: p.level, name: name}
}

// Enabled reports whether lines of level l are written.
func (p *Logger) Enabled(l Level) bool {
	return p != nil && l >= p.level
}

func (p *Logger) logf(l Level, format string, args ...any) {
	if !p.Enabled(l) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	tag := prefixes[l]("[" + strings.ToUpper(l.String()) + "]")
	if p.name != "" {
		p.l.Println(tag, p.name+":", msg)
		return
	}
	p.l.Println(tag, msg)
}

func (p *Logger) Debugf(format string, args ...any) { p.logf(LevelDebug, format, args...) }
func (p *Logger) Infof(format string, args ...any)  { p.logf(LevelInfo, format, args...) }
func (p *Logger) Warnf(format string, args ...any)  { p.logf(LevelWarn, format, args...) }
func (p *Logger) Errorf(format string, args ...any) { p.logf(LevelError, format, args...) }
