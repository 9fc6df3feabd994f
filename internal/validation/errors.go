package validation

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidationFailed = errors.New("validation: document has invalid fields")
	ErrDocumentInvalid  = errors.New("validation: document shape is invalid")
)

// Violation is one invalid field. FieldPath is dot-joined and includes
// repeater indexes, e.g. "items.2.title".
type Violation struct {
	ComponentID string `json:"componentId"`
	FieldPath   string `json:"fieldPath"`
	Message     string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s.%s: %s", v.ComponentID, v.FieldPath, v.Message)
}

// Error aggregates every violation found in one pass.
type Error struct {
	Violations []Violation
}

func (e *Error) Error() string {
	if e == nil || len(e.Violations) == 0 {
		return ErrValidationFailed.Error()
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("%s: %s", ErrValidationFailed.Error(), strings.Join(parts, "; "))
}

func (e *Error) Unwrap() error {
	return ErrValidationFailed
}

// Violations extracts violations from err.
func Violations(err error) []Violation {
	var verr *Error
	if errors.As(err, &verr) && verr != nil {
		return verr.Violations
	}
	return nil
}

// ByField groups violations by "componentID.fieldPath", the shape field
// error displays look them up with.
func ByField(violations []Violation) map[string][]string {
	out := make(map[string][]string, len(violations))
	for _, v := range violations {
		key := v.ComponentID + "." + v.FieldPath
		out[key] = append(out[key], v.Message)
	}
	return out
}
