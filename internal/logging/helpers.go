package logging

import (
	"maps"

	"github.com/goliatone/go-capsulo/pkg/interfaces"
)

// WithFields attaches structured fields when the logger supports
// interfaces.FieldsLogger and returns it unchanged otherwise.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}
	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(maps.Clone(fields))
	}
	return logger
}

// OrNoOp returns logger, or the no-op logger when it is nil.
func OrNoOp(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return NoOp()
	}
	return logger
}
