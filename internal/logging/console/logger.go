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

	"github.com/goliatone/go-capsulo/internal/logging"
	"github.com/goliatone/go-capsulo/pkg/interfaces"
)

// Level is the severity of a log entry.
type Level uint8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelLabels = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

func (l Level) String() string {
	if int(l) < len(levelLabels) {
		return levelLabels[l]
	}
	return "INFO"
}

// ParseLevel maps a configuration string to a Level. Unknown values fall back
// to LevelInfo and report false.
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
	}
	return LevelInfo, false
}

// Options configures the console provider. Zero values write to stdout with
// a DEBUG threshold.
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

type provider struct {
	sink *sink
}

// NewProvider returns a provider writing one logfmt-style line per entry.
func NewProvider(opts Options) interfaces.LoggerProvider {
	s := &sink{writer: opts.Writer, clock: opts.TimeFunc, minLevel: LevelDebug}
	if s.writer == nil {
		s.writer = os.Stdout
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if opts.MinLevel != nil {
		s.minLevel = *opts.MinLevel
	}
	return &provider{sink: s}
}

func (p *provider) GetLogger(name string) interfaces.Logger {
	return &consoleLogger{sink: p.sink, fields: map[string]any{"logger": name}}
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
	return &consoleLogger{sink: l.sink, fields: l.fields, ctx: ctx}
}

func (l *consoleLogger) write(level Level, msg string, args []any) {
	if l.sink == nil || level < l.sink.minLevel {
		return
	}

	fields := make(map[string]any, len(l.fields)+len(args)/2)
	maps.Copy(fields, l.fields)
	maps.Copy(fields, logging.ContextFields(l.ctx))
	pairFields(fields, args)

	line := render(l.sink.clock().UTC(), level, msg, fields)

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	// best effort
	_, _ = io.WriteString(l.sink.writer, line)
}

// pairFields folds key/value args into dst. Values without a string key are
// stored positionally as arg_N.
func pairFields(dst map[string]any, args []any) {
	for i := 0; i < len(args); i += 2 {
		if i == len(args)-1 {
			dst["arg_"+strconv.Itoa(i/2)] = args[i]
			return
		}
		key, ok := args[i].(string)
		if !ok || key == "" {
			key = "arg_" + strconv.Itoa(i/2)
		}
		dst[key] = args[i+1]
	}
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
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
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
