package editorcmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	patchComponentFieldsMessageType = "capsulo.editor.patch_component_fields"
	saveDocumentMessageType         = "capsulo.editor.save_document"
	flushDraftMessageType           = "capsulo.editor.flush_draft"
)

// PatchComponentFieldsCommand carries a partial field update proposed out of
// band, typically by the AI assistant. Fields holds raw values or, for
// translatable fields, locale-keyed maps.
type PatchComponentFieldsCommand struct {
	DocumentKey string         `json:"document_key,omitempty"`
	ComponentID string         `json:"component_id"`
	Fields      map[string]any `json:"fields"`
}

// Type implements command.Message.
func (PatchComponentFieldsCommand) Type() string { return patchComponentFieldsMessageType }

// Validate ensures the patch targets a component and carries fields.
func (m PatchComponentFieldsCommand) Validate() error {
	errs := validation.Errors{}
	if strings.TrimSpace(m.ComponentID) == "" {
		errs["component_id"] = validation.NewError("capsulo.editor.patch.component_required", "component_id is required")
	}
	if len(m.Fields) == 0 {
		errs["fields"] = validation.NewError("capsulo.editor.patch.fields_required", "fields must not be empty")
	}
	for name := range m.Fields {
		if strings.TrimSpace(name) == "" {
			errs["fields"] = validation.NewError("capsulo.editor.patch.field_name_blank", "field names must not be blank")
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SaveDocumentCommand requests an explicit, validated save of the loaded
// document. Autosave sends it as well.
type SaveDocumentCommand struct {
	DocumentKey string `json:"document_key"`
}

// Type implements command.Message.
func (SaveDocumentCommand) Type() string { return saveDocumentMessageType }

// Validate ensures the target document is named.
func (m SaveDocumentCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.DocumentKey, validation.Required.Error("document_key is required")),
	)
}

// FlushDraftCommand writes pending edits to the draft store immediately.
type FlushDraftCommand struct {
	DocumentKey string `json:"document_key"`
}

// Type implements command.Message.
func (FlushDraftCommand) Type() string { return flushDraftMessageType }

// Validate ensures the target document is named.
func (m FlushDraftCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.DocumentKey, validation.Required.Error("document_key is required")),
	)
}
