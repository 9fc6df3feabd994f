package content

import "slices"

// IsLocaleMap reports whether value has the shape of a locale map: an object
// that is neither an internal link nor a file envelope.
func IsLocaleMap(value any) bool {
	m, ok := value.(map[string]any)
	if !ok {
		return false
	}
	return !IsInternalLink(m) && !IsFileEnvelope(m)
}

// IsLocaleMapFor is the strict form of IsLocaleMap: every key must be one of
// locales and at least one key must be present.
func IsLocaleMapFor(value any, locales []string) bool {
	m, ok := value.(map[string]any)
	if !ok || len(m) == 0 || !IsLocaleMap(m) {
		return false
	}
	for key := range m {
		if !slices.Contains(locales, key) {
			return false
		}
	}
	return true
}

// IsInternalLink reports whether m is an internal link object.
func IsInternalLink(m map[string]any) bool {
	internal, ok := m["internal"].(bool)
	return ok && internal
}

// IsFileEnvelope reports whether m is a fileUpload value.
func IsFileEnvelope(m map[string]any) bool {
	_, ok := m["files"]
	return ok && len(m) == 1
}

// Localized reports whether the stored value should be read as a locale map.
func (v FieldValue) Localized(defaultLocale string) bool {
	if !IsLocaleMap(v.Value) {
		return false
	}
	if v.Translatable {
		return true
	}
	_, ok := v.Value.(map[string]any)[defaultLocale]
	return ok
}

// Resolve returns the value for locale, falling back to the default locale
// when the locale entry is missing or empty.
func (v FieldValue) Resolve(locale, defaultLocale string) any {
	if !v.Localized(defaultLocale) {
		return v.Value
	}
	return ResolveLocale(v.Value.(map[string]any), locale, defaultLocale)
}

// ResolveLocale picks locale from m with default-locale fallback.
func ResolveLocale(m map[string]any, locale, defaultLocale string) any {
	if value, ok := m[locale]; ok && !IsEmpty(value) {
		return value
	}
	return m[defaultLocale]
}

// PopulatedLocales lists the locales of m holding a non-empty value, sorted.
func PopulatedLocales(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for locale, value := range m {
		if !IsEmpty(value) {
			out = append(out, locale)
		}
	}
	slices.Sort(out)
	return out
}

// IsEmpty treats nil, "", empty slices and empty maps as absent.
func IsEmpty(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return typed == ""
	case []any:
		return len(typed) == 0
	case []string:
		return len(typed) == 0
	case []map[string]any:
		return len(typed) == 0
	case map[string]any:
		return len(typed) == 0
	default:
		return false
	}
}
