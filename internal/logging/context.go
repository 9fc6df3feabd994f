package logging

import (
	"context"
	"maps"
)

type contextKey string

const contextFieldsKey contextKey = "capsulo.logging.fields"

// ContextWithFields returns a context carrying logging fields. Fields already
// present on ctx are kept and overridden key by key.
func ContextWithFields(ctx context.Context, fields map[string]any) context.Context {
	if ctx == nil || len(fields) == 0 {
		return ctx
	}
	merged := ContextFields(ctx)
	if merged == nil {
		merged = make(map[string]any, len(fields))
	}
	maps.Copy(merged, fields)
	return context.WithValue(ctx, contextFieldsKey, merged)
}

// ContextFields returns a copy of the fields stored on ctx.
func ContextFields(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	fields, ok := ctx.Value(contextFieldsKey).(map[string]any)
	if !ok || len(fields) == 0 {
		return nil
	}
	return maps.Clone(fields)
}

// WithDocumentKey tags ctx with the draft key being worked on.
func WithDocumentKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return ContextWithFields(ctx, map[string]any{FieldDocumentKey: key})
}
