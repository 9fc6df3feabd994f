package schema

// ResolveType picks the type written for a field: the schema type when a
// definition exists, otherwise the stored type, otherwise TypeUnknown.
func ResolveType(def *Field, stored FieldType) FieldType {
	if def != nil && def.Type != "" {
		return def.Type
	}
	if stored != "" {
		return stored
	}
	return TypeUnknown
}

// TypeMismatch reports whether a stored type tag disagrees with the schema.
// Missing or unknown stored tags never count as a mismatch.
func TypeMismatch(def *Field, stored FieldType) bool {
	if def == nil || def.Type == "" || stored == "" || stored == TypeUnknown {
		return false
	}
	return def.Type != stored
}

// DefaultValue is the form value used when nothing is stored for the field.
func DefaultValue(field Field) any {
	if field.Default != nil {
		return field.Default
	}
	switch field.Type {
	case TypeInput, TypeTextarea, TypeRichEditor, TypeColorPicker, TypeDateField, TypeLink:
		return ""
	case TypeSelect:
		if field.Multiple {
			return []any{}
		}
		return ""
	case TypeSwitch:
		return false
	case TypeFileUpload:
		return map[string]any{"files": []any{}}
	case TypeRepeater:
		return []any{}
	default:
		return nil
	}
}
