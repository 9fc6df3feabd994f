package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// documentSchema describes the persisted document envelope. Field values are
// free-form; only the structure the merge engine relies on is enforced.
const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["components"],
  "properties": {
    "components": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["id", "schemaName"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "schemaName": {"type": "string"},
          "alias": {"type": "string"},
          "data": {
            "type": ["object", "null"],
            "additionalProperties": {
              "type": "object",
              "required": ["type"],
              "properties": {
                "type": {"type": "string"},
                "translatable": {"type": "boolean"}
              }
            }
          }
        }
      }
    }
  }
}`

// Issue is a single structural problem.
type Issue struct {
	Location string
	Message  string
}

// DocumentError reports a stored document that does not have the expected
// shape.
type DocumentError struct {
	Issues []Issue
	Cause  error
}

func (e *DocumentError) Error() string {
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", ErrDocumentInvalid.Error(), e.Cause)
		}
		return ErrDocumentInvalid.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := issue.Location
		if location == "" {
			location = "#"
		} else if !strings.HasPrefix(location, "#") {
			location = "#" + location
		}
		parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
	}
	return fmt.Sprintf("%s: %s", ErrDocumentInvalid.Error(), strings.Join(parts, "; "))
}

func (e *DocumentError) Unwrap() error {
	return ErrDocumentInvalid
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func documentValidator() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("document.json", strings.NewReader(documentSchema)); err != nil {
			compileErr = err
			return
		}
		compiledSchema, compileErr = compiler.Compile("document.json")
	})
	return compiledSchema, compileErr
}

// ValidateDocumentJSON checks raw against the document envelope schema.
func ValidateDocumentJSON(raw []byte) error {
	compiled, err := documentValidator()
	if err != nil {
		return err
	}
	var payload any
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return &DocumentError{Cause: err}
	}
	if err := compiled.Validate(payload); err != nil {
		return &DocumentError{Issues: collectIssues(err), Cause: err}
	}
	return nil
}

func collectIssues(err error) []Issue {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) || verr == nil {
		return []Issue{{Message: err.Error()}}
	}
	var issues []Issue
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, Issue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(verr)
	return issues
}
