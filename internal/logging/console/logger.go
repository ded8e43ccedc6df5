package console

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/drydeck/drydeck/internal/logging"
	"github.com/drydeck/drydeck/pkg/interfaces"
)

// Level orders console severities.
type Level uint8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{"trace", "debug", "info", "warn", "error", "fatal"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "info"
}

// ParseLevel resolves a level name. The empty string maps to debug.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return LevelDebug, nil
	case "warning":
		return LevelWarn, nil
	}
	for i, candidate := range levelNames {
		if strings.EqualFold(candidate, strings.TrimSpace(name)) {
			return Level(i), nil
		}
	}
	return LevelInfo, fmt.Errorf("console: unsupported level %q", name)
}

// Options configures the console provider.
type Options struct {
	Writer io.Writer
	Clock  func() time.Time
	Level  Level
}

// Provider writes logfmt lines, one per entry, to a shared writer.
type Provider struct {
	mu    sync.Mutex
	out   io.Writer
	clock func() time.Time
	min   Level
}

// NewProvider builds a console provider. Output defaults to stderr.
func NewProvider(opts Options) *Provider {
	p := &Provider{out: opts.Writer, clock: opts.Clock, min: opts.Level}
	if p.out == nil {
		p.out = os.Stderr
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	return p
}

// GetLogger satisfies interfaces.LoggerProvider.
func (p *Provider) GetLogger(name string) interfaces.Logger {
	return &entryLogger{p: p, name: name}
}

type entryLogger struct {
	p      *Provider
	name   string
	fields map[string]any
	ctx    context.Context
}

var _ interfaces.FieldsLogger = (*entryLogger)(nil)

func (l *entryLogger) Trace(msg string, args ...any) { l.write(LevelTrace, msg, args) }
func (l *entryLogger) Debug(msg string, args ...any) { l.write(LevelDebug, msg, args) }
func (l *entryLogger) Info(msg string, args ...any)  { l.write(LevelInfo, msg, args) }
func (l *entryLogger) Warn(msg string, args ...any)  { l.write(LevelWarn, msg, args) }
func (l *entryLogger) Error(msg string, args ...any) { l.write(LevelError, msg, args) }
func (l *entryLogger) Fatal(msg string, args ...any) { l.write(LevelFatal, msg, args) }

func (l *entryLogger) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	next := *l
	next.fields = maps.Clone(l.fields)
	if next.fields == nil {
		next.fields = make(map[string]any, len(fields))
	}
	maps.Copy(next.fields, fields)
	return &next
}

func (l *entryLogger) WithContext(ctx context.Context) interfaces.Logger {
	next := *l
	next.ctx = ctx
	return &next
}

func (l *entryLogger) write(level Level, msg string, args []any) {
	if l.p == nil || level < l.p.min {
		return
	}

	fields := logging.ContextFields(l.ctx)
	if fields == nil {
		fields = map[string]any{}
	}
	maps.Copy(fields, l.fields)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok || key == "" {
			key = "arg" + strconv.Itoa(i/2)
		}
		if i+1 < len(args) {
			fields[key] = args[i+1]
		} else {
			fields[key] = nil
		}
	}

	var b strings.Builder
	b.WriteString("ts=")
	b.WriteString(l.p.clock().UTC().Format(time.RFC3339Nano))
	b.WriteString(" level=")
	b.WriteString(level.String())
	if l.name != "" {
		b.WriteString(" logger=")
		b.WriteString(quote(l.name))
	}
	b.WriteString(" msg=")
	b.WriteString(quote(msg))
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		b.WriteByte(' ')
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(render(fields[key]))
	}
	b.WriteByte('\n')

	l.p.mu.Lock()
	_, _ = io.WriteString(l.p.out, b.String())
	l.p.mu.Unlock()
}

func render(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return quote(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case error:
		return quote(v.Error())
	case fmt.Stringer:
		return quote(v.String())
	default:
		return quote(fmt.Sprint(v))
	}
}

func quote(value string) string {
	if value == "" {
		return `""`
	}
	if strings.ContainsFunc(value, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(value)
	}
	return value
}
