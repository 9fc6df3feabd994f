package editor

import (
	"time"

	"github.com/goliatone/go-capsulo/internal/audit"
	"github.com/goliatone/go-capsulo/internal/identity"
	"github.com/goliatone/go-capsulo/internal/manifest"
	"github.com/goliatone/go-capsulo/internal/validation"
	"github.com/goliatone/go-capsulo/pkg/interfaces"
)

const (
	defaultDebounceDelay  = 500 * time.Millisecond
	defaultPersistRetries = 3
	defaultLocale         = "en"
)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for audit events.
func WithClock(clock func() time.Time) Option {
	return func(s *Session) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithLocales sets the default locale and the editable locales.
func WithLocales(defaultLocale string, locales ...string) Option {
	return func(s *Session) {
		if defaultLocale != "" {
			s.defaultLocale = defaultLocale
		}
		s.locales = append([]string(nil), locales...)
	}
}

// WithValidatorFactory replaces the per-field validator factory.
func WithValidatorFactory(factory validation.Factory) Option {
	return func(s *Session) {
		if factory != nil {
			s.factory = factory
		}
	}
}

// WithManifestProvider enables manifest synchronization on load.
func WithManifestProvider(provider manifest.Provider) Option {
	return func(s *Session) {
		s.manifests = provider
	}
}

// WithAuditRecorder records draft and publish events.
func WithAuditRecorder(recorder audit.Recorder) Option {
	return func(s *Session) {
		if recorder != nil {
			s.audit = recorder
		}
	}
}

// WithRevalidate registers a callback run after every draft write and save.
func WithRevalidate(fn func(key string)) Option {
	return func(s *Session) {
		if fn != nil {
			s.revalidate = append(s.revalidate, fn)
		}
	}
}

// WithItemIDGenerator overrides the repeater item id generator.
func WithItemIDGenerator(generator identity.Generator) Option {
	return func(s *Session) {
		if generator != nil {
			s.newItemID = generator
		}
	}
}

// WithDebounceDelay sets the quiet period before a draft write.
func WithDebounceDelay(delay time.Duration) Option {
	return func(s *Session) {
		if delay > 0 {
			s.delay = delay
		}
	}
}

// WithPersistRetries bounds how often a failed draft write is re-armed.
func WithPersistRetries(retries int) Option {
	return func(s *Session) {
		if retries >= 0 {
			s.retries = retries
		}
	}
}
