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

	"github.com/goliatone/go-cms-admin/internal/logging"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
)

// Level represents the severity attached to a log entry.
type Level uint8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "INFO"
}

// ParseLevel maps a configuration value onto a Level. Unknown values fall
// back to LevelInfo and report false.
func ParseLevel(value string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "trace":
		return LevelTrace, true
	case "debug":
		return LevelDebug, true
	case "info", "":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	case "fatal":
		return LevelFatal, true
	default:
		return LevelInfo, false
	}
}

// Options configures the console provider. Zero values write to stdout at
// DEBUG and above.
type Options struct {
	Writer   io.Writer
	TimeFunc func() time.Time
	MinLevel *Level
}

type sink struct {
	mu       sync.Mutex
	writer   io.Writer
	clock    func() time.Time
	minLevel Level
}

// NewProvider constructs a console backed LoggerProvider. Every logger it
// hands out shares one writer guarded by a mutex.
func NewProvider(opts Options) interfaces.LoggerProvider {
	s := &sink{
		writer:   opts.Writer,
		clock:    opts.TimeFunc,
		minLevel: LevelDebug,
	}
	if s.writer == nil {
		s.writer = os.Stdout
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if opts.MinLevel != nil {
		s.minLevel = *opts.MinLevel
	}
	return s
}

func (s *sink) GetLogger(name string) interfaces.Logger {
	return &consoleLogger{sink: s, fields: map[string]any{"logger": name}}
}

type consoleLogger struct {
	sink   *sink
	fields map[string]any
	ctx    context.Context
}

var (
	_ interfaces.Logger       = (*consoleLogger)(nil)
	_ interfaces.FieldsLogger = (*consoleLogger)(nil)
)

func (l *consoleLogger) Trace(msg string, args ...any) { l.write(LevelTrace, msg, args) }
func (l *consoleLogger) Debug(msg string, args ...any) { l.write(LevelDebug, msg, args) }
func (l *consoleLogger) Info(msg string, args ...any)  { l.write(LevelInfo, msg, args) }
func (l *consoleLogger) Warn(msg string, args ...any)  { l.write(LevelWarn, msg, args) }
func (l *consoleLogger) Error(msg string, args ...any) { l.write(LevelError, msg, args) }
func (l *consoleLogger) Fatal(msg string, args ...any) { l.write(LevelFatal, msg, args) }

func (l *consoleLogger) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	merged := maps.Clone(l.fields)
	if merged == nil {
		merged = make(map[string]any, len(fields))
	}
	maps.Copy(merged, fields)
	return &consoleLogger{sink: l.sink, fields: merged, ctx: l.ctx}
}

func (l *consoleLogger) WithContext(ctx context.Context) interfaces.Logger {
	return &consoleLogger{sink: l.sink, fields: maps.Clone(l.fields), ctx: ctx}
}

func (l *consoleLogger) write(level Level, msg string, args []any) {
	if l.sink == nil || level < l.sink.minLevel {
		return
	}

	fields := maps.Clone(l.fields)
	if fields == nil {
		fields = map[string]any{}
	}
	maps.Copy(fields, logging.ContextFields(l.ctx))
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			fields["extra"] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok || key == "" {
			key = fmt.Sprintf("arg_%d", i/2)
		}
		fields[key] = args[i+1]
	}

	line := render(l.sink.clock().UTC(), level, msg, fields)

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	_, _ = io.WriteString(l.sink.writer, line)
}

func render(ts time.Time, level Level, msg string, fields map[string]any) string {
	var b strings.Builder
	b.WriteString(ts.Format(time.RFC3339Nano))
	b.WriteByte(' ')
	b.WriteString(level.String())
	b.WriteByte(' ')
	b.WriteString(msg)

	for _, key := range slices.Sorted(maps.Keys(fields)) {
		b.WriteByte(' ')
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(formatValue(fields[key]))
	}
	b.WriteByte('\n')
	return b.String()
}

func formatValue(value any) string {
	var s string
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		s = v
	case time.Time:
		s = v.UTC().Format(time.RFC3339Nano)
	case error:
		s = v.Error()
	case fmt.Stringer:
		s = v.String()
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		s = fmt.Sprint(v)
	}
	if s == "" {
		return `""`
	}
	if strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
