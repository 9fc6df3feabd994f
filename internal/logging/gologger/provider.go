package gologger

import (
	"context"
	"fmt"
	"maps"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-capsulo/internal/logging"
	"github.com/goliatone/go-capsulo/pkg/interfaces"
)

// Config mirrors the go-logger options exposed through runtime configuration.
type Config struct {
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// Provider adapts a go-logger root logger to interfaces.LoggerProvider.
type Provider struct {
	root *glog.BaseLogger
}

var levels = map[string]string{
	"trace":   glog.Trace,
	"debug":   glog.Debug,
	"info":    glog.Info,
	"warn":    glog.Warn,
	"warning": glog.Warn,
	"error":   glog.Error,
	"fatal":   glog.Fatal,
}

// NewProvider builds the go-logger root from cfg.
func NewProvider(cfg Config) (*Provider, error) {
	var options []glog.Option

	if level, ok := levels[strings.ToLower(strings.TrimSpace(cfg.Level))]; ok {
		options = append(options, glog.WithLevel(level))
	}

	switch format := strings.ToLower(strings.TrimSpace(cfg.Format)); format {
	case "", "json":
		options = append(options, glog.WithLoggerTypeJSON())
	case "console":
		options = append(options, glog.WithLoggerTypeConsole())
	case "pretty":
		options = append(options, glog.WithLoggerTypePretty())
	default:
		return nil, fmt.Errorf("logging: unsupported go-logger format %q", cfg.Format)
	}

	if cfg.AddSource {
		options = append(options, glog.WithAddSource(true))
	}

	root := glog.NewLogger(options...)
	var focus []string
	for _, name := range cfg.Focus {
		if name = strings.TrimSpace(name); name != "" {
			focus = append(focus, name)
		}
	}
	if len(focus) > 0 {
		root.Focus(focus...)
	}
	return &Provider{root: root}, nil
}

// GetLogger returns a child logger named after the engine module.
func (p *Provider) GetLogger(name string) interfaces.Logger {
	if p == nil || p.root == nil {
		return logging.NoOp()
	}
	if name = strings.TrimSpace(name); name == "" {
		return adapt(p.root)
	}
	return adapt(p.root.GetLogger(name))
}

func adapt(inner glog.Logger) interfaces.Logger {
	if inner == nil {
		return logging.NoOp()
	}
	return adapter{inner: inner}
}

type adapter struct {
	inner glog.Logger
}

var (
	_ interfaces.Logger       = adapter{}
	_ interfaces.FieldsLogger = adapter{}
)

func (a adapter) Trace(msg string, args ...any) { a.inner.Trace(msg, args...) }
func (a adapter) Debug(msg string, args ...any) { a.inner.Debug(msg, args...) }
func (a adapter) Info(msg string, args ...any)  { a.inner.Info(msg, args...) }
func (a adapter) Warn(msg string, args ...any)  { a.inner.Warn(msg, args...) }
func (a adapter) Error(msg string, args ...any) { a.inner.Error(msg, args...) }
func (a adapter) Fatal(msg string, args ...any) { a.inner.Fatal(msg, args...) }

// WithFields delegates to glog.FieldsLogger; loggers without it are returned
// unchanged.
func (a adapter) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return a
	}
	if with, ok := a.inner.(glog.FieldsLogger); ok {
		return adapt(with.WithFields(maps.Clone(fields)))
	}
	return a
}

func (a adapter) WithContext(ctx context.Context) interfaces.Logger {
	if ctx == nil {
		return a
	}
	return adapt(a.inner.WithContext(ctx))
}
