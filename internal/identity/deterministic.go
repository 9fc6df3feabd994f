package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a stable UUID from key using go-hashid. Keys should be
// prefixed by domain so different kinds never collide.
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// DraftUUID is the primary key of the stored draft for a page id or the
// globals key.
func DraftUUID(documentKey string) uuid.UUID {
	return UUID("capsulo:draft:" + strings.TrimSpace(documentKey))
}
