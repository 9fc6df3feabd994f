package editor

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-capsulo/internal/schema"
)

var (
	ErrNoDocument         = errors.New("editor: no document loaded")
	ErrSessionClosed      = errors.New("editor: session closed")
	ErrStaleLoad          = errors.New("editor: result belongs to a superseded load")
	ErrPublishFailed      = errors.New("editor: publish failed")
	ErrComponentNotFound  = errors.New("editor: component not found")
	ErrFieldRequired      = errors.New("editor: field name is required")
	ErrLocaleRequired     = errors.New("editor: locale is required")
	ErrUnknownLocale      = errors.New("editor: locale is not configured")
	ErrInvalidOrder       = errors.New("editor: order must list every component exactly once")
	ErrPublisherMissing   = errors.New("editor: publisher is not configured")
	ErrDocumentKeyMissing = errors.New("editor: document key is required")
)

// WarningKind classifies a degraded field or component found on load.
type WarningKind string

const (
	WarningTypeMismatch  WarningKind = "type_mismatch"
	WarningUnknownSchema WarningKind = "unknown_schema"
)

// Warning is a non-fatal inconsistency between stored content and the
// schemas. The stored value is kept as is.
type Warning struct {
	Kind        WarningKind
	ComponentID string
	Field       string
	SchemaType  schema.FieldType
	StoredType  schema.FieldType
}

func (w Warning) String() string {
	switch w.Kind {
	case WarningTypeMismatch:
		return fmt.Sprintf("%s.%s: stored type %q does not match schema type %q", w.ComponentID, w.Field, w.StoredType, w.SchemaType)
	case WarningUnknownSchema:
		return fmt.Sprintf("%s: schema is not registered", w.ComponentID)
	default:
		return string(w.Kind)
	}
}
