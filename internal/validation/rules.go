package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-capsulo/internal/content"
	"github.com/goliatone/go-capsulo/internal/schema"
)

// Validator checks one field value.
type Validator interface {
	Validate(value any) error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(value any) error

func (f ValidatorFunc) Validate(value any) error { return f(value) }

// Factory builds the validator for a field. form is the sibling values of
// the field (the component form, or the repeater item) for cross-field rules.
type Factory func(field schema.Field, form map[string]any) Validator

// Rules is a Validator backed by ozzo-validation rules; the first failing
// rule wins.
type Rules []ozzo.Rule

func (r Rules) Validate(value any) error {
	if len(r) == 0 {
		return nil
	}
	return ozzo.Validate(value, r...)
}

var (
	colorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	urlPattern   = regexp.MustCompile(`^(https?://|/|#|mailto:|tel:)\S*$`)
	dateLayouts  = []string{"2006-01-02", time.RFC3339}
)

// DefaultFactory maps each field type to its ozzo rules.
func DefaultFactory(field schema.Field, _ map[string]any) Validator {
	return Rules(RulesFor(field))
}

// Chain runs the validators of every factory in order.
func Chain(factories ...Factory) Factory {
	return func(field schema.Field, form map[string]any) Validator {
		validators := make([]Validator, 0, len(factories))
		for _, factory := range factories {
			if factory == nil {
				continue
			}
			if v := factory(field, form); v != nil {
				validators = append(validators, v)
			}
		}
		return ValidatorFunc(func(value any) error {
			for _, v := range validators {
				if err := v.Validate(value); err != nil {
					return err
				}
			}
			return nil
		})
	}
}

// RulesFor returns the built-in rules for field.
func RulesFor(field schema.Field) []ozzo.Rule {
	var rules []ozzo.Rule

	switch field.Type {
	case schema.TypeInput, schema.TypeTextarea, schema.TypeRichEditor:
		if field.Required {
			rules = append(rules, ozzo.Required)
		}
		rules = append(rules, ozzo.By(isString))
		if field.MinLength > 0 || field.MaxLength > 0 {
			rules = append(rules, ozzo.RuneLength(field.MinLength, field.MaxLength))
		}
		if pattern := strings.TrimSpace(field.Pattern); pattern != "" {
			rules = append(rules, patternRule(pattern))
		}
	case schema.TypeSelect:
		if field.Required {
			rules = append(rules, ozzo.Required)
		}
		if len(field.Options) > 0 {
			rules = append(rules, ozzo.By(optionsRule(field)))
		}
	case schema.TypeSwitch:
		rules = append(rules, ozzo.By(isBool))
	case schema.TypeColorPicker:
		if field.Required {
			rules = append(rules, ozzo.Required)
		}
		rules = append(rules, ozzo.By(isString), ozzo.Match(colorPattern).Error("must be a hex color"))
	case schema.TypeDateField:
		if field.Required {
			rules = append(rules, ozzo.Required)
		}
		rules = append(rules, ozzo.By(isDate))
	case schema.TypeLink:
		if field.Required {
			rules = append(rules, ozzo.Required)
		}
		rules = append(rules, ozzo.By(isLink))
	case schema.TypeFileUpload:
		rules = append(rules, ozzo.By(filesRule(field)))
	case schema.TypeRepeater:
		if field.Required {
			rules = append(rules, ozzo.Required)
		}
		rules = append(rules, ozzo.By(isList))
		if field.MinItems > 0 || field.MaxItems > 0 {
			rules = append(rules, ozzo.Length(field.MinItems, field.MaxItems))
		}
	}
	return rules
}

func patternRule(pattern string) ozzo.Rule {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return ozzo.By(func(any) error {
			return fmt.Errorf("invalid pattern %q", pattern)
		})
	}
	return ozzo.Match(re).Error("does not match the expected format")
}

func isString(value any) error {
	if value == nil {
		return nil
	}
	if _, ok := value.(string); !ok {
		return errors.New("must be text")
	}
	return nil
}

func isBool(value any) error {
	if value == nil {
		return nil
	}
	if _, ok := value.(bool); !ok {
		return errors.New("must be true or false")
	}
	return nil
}

func isList(value any) error {
	switch value.(type) {
	case nil, []any, []map[string]any:
		return nil
	}
	return errors.New("must be a list")
}

func isDate(value any) error {
	if content.IsEmpty(value) {
		return nil
	}
	text, ok := value.(string)
	if !ok {
		return errors.New("must be a date")
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, text); err == nil {
			return nil
		}
	}
	return errors.New("must be a valid date")
}

func isLink(value any) error {
	switch typed := value.(type) {
	case nil:
		return nil
	case string:
		if typed == "" || urlPattern.MatchString(typed) {
			return nil
		}
		return errors.New("must be a valid URL")
	case map[string]any:
		if !content.IsInternalLink(typed) {
			return errors.New("must be a URL or an internal link")
		}
		if id, _ := typed["pageId"].(string); strings.TrimSpace(id) == "" {
			return errors.New("internal link requires a page")
		}
		return nil
	}
	return errors.New("must be a URL or an internal link")
}

func optionsRule(field schema.Field) func(any) error {
	allowed := field.OptionValues()
	check := func(v any) error {
		text, ok := v.(string)
		if !ok {
			return errors.New("must be one of the listed options")
		}
		for _, option := range allowed {
			if option == text {
				return nil
			}
		}
		return fmt.Errorf("%q is not an allowed option", text)
	}
	return func(value any) error {
		if content.IsEmpty(value) {
			return nil
		}
		if field.Multiple {
			items, ok := value.([]any)
			if !ok {
				return errors.New("must be a list of options")
			}
			for _, item := range items {
				if err := check(item); err != nil {
					return err
				}
			}
			return nil
		}
		return check(value)
	}
}

func filesRule(field schema.Field) func(any) error {
	return func(value any) error {
		var files []any
		switch typed := value.(type) {
		case nil:
		case map[string]any:
			list, ok := typed["files"].([]any)
			if typed["files"] != nil && !ok {
				return errors.New("files must be a list")
			}
			files = list
		case []any:
			files = typed
		default:
			return errors.New("must be a file list")
		}
		if field.Required && len(files) == 0 {
			return errors.New("at least one file is required")
		}
		if field.MaxFiles > 0 && len(files) > field.MaxFiles {
			return fmt.Errorf("at most %d files allowed", field.MaxFiles)
		}
		return nil
	}
}
