package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-capsulo/pkg/interfaces"
)

const (
	rootModule     = "capsulo"
	editorModule   = "capsulo.editor"
	draftsModule   = "capsulo.drafts"
	schemaModule   = "capsulo.schema"
	manifestModule = "capsulo.manifest"
	gitModule      = "capsulo.git"
)

// Common field names.
const (
	FieldDocumentKey = "document_key"
	FieldComponentID = "component_id"
	FieldLocale      = "locale"
	FieldField       = "field"
)

// ModuleLogger returns a logger for module, tagged with a "module" field. A
// nil provider yields the no-op logger.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if strings.TrimSpace(module) == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// EditorLogger returns the logger used by editing sessions.
func EditorLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, editorModule)
}

// DraftsLogger returns the logger used by draft stores.
func DraftsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, draftsModule)
}

// SchemaLogger returns the logger used by schema loading and watching.
func SchemaLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, schemaModule)
}

// ManifestLogger returns the logger used by manifest synchronization.
func ManifestLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, manifestModule)
}

// GitLogger returns the logger used by the git-backed remote.
func GitLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, gitModule)
}

// WithComponent enriches logger with component and field identifiers. Empty
// values are skipped.
func WithComponent(logger interfaces.Logger, componentID, field string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(componentID); trimmed != "" {
		fields[FieldComponentID] = trimmed
	}
	if trimmed := strings.TrimSpace(field); trimmed != "" {
		fields[FieldField] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var (
	_ interfaces.Logger       = noopLogger{}
	_ interfaces.FieldsLogger = noopLogger{}
)

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
