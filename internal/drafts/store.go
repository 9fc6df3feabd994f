package drafts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-capsulo/internal/content"
	"github.com/goliatone/go-capsulo/internal/validation"
)

// GlobalsKey is the draft key of the site-wide document.
const GlobalsKey = content.GlobalsKey

var (
	ErrKeyRequired      = errors.New("drafts: document key is required")
	ErrDocumentRequired = errors.New("drafts: document is required")
	ErrDraftInvalid     = errors.New("drafts: stored draft is invalid")
)

// Store persists in-progress documents keyed by page id or GlobalsKey.
// Get returns (nil, nil) when no draft exists.
type Store interface {
	Get(ctx context.Context, key string) (*content.Document, error)
	Set(ctx context.Context, key string, doc *content.Document) error
	Delete(ctx context.Context, key string) error
	Subscribe(ctx context.Context) (<-chan ChangeEvent, error)
}

// Lister is implemented by stores able to enumerate their keys.
type Lister interface {
	Keys(ctx context.Context) ([]string, error)
}

// Action describes a draft mutation.
type Action string

const (
	ActionSet    Action = "set"
	ActionDelete Action = "delete"
)

// ChangeEvent is broadcast after every successful mutation so views reading
// drafts can revalidate.
type ChangeEvent struct {
	Key        string
	Action     Action
	OccurredAt time.Time
}

func normalizeKey(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", ErrKeyRequired
	}
	return trimmed, nil
}

// encode serializes doc for storage.
func encode(doc *content.Document) ([]byte, error) {
	if doc == nil {
		return nil, ErrDocumentRequired
	}
	return content.Encode(doc)
}

// decode validates the stored envelope before decoding. A draft that fails
// validation is reported as ErrDraftInvalid so callers can fall back to the
// baseline.
func decode(key string, raw []byte) (*content.Document, error) {
	if err := validation.ValidateDocumentJSON(raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDraftInvalid, key, err)
	}
	doc, err := content.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDraftInvalid, key, err)
	}
	return doc, nil
}
