package schema

import "errors"

var (
	ErrSchemaNameRequired = errors.New("schema: name is required")
	ErrSchemaNotFound     = errors.New("schema: not found")
	ErrFieldNameRequired  = errors.New("schema: field name is required")
	ErrDuplicateField     = errors.New("schema: duplicate field name")
	ErrUnknownFieldType   = errors.New("schema: unknown field type")
	ErrNestingTooDeep     = errors.New("schema: field nesting too deep")
)
