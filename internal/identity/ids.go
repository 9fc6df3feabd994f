package identity

import (
	"strconv"

	"github.com/google/uuid"
)

// Generator produces identifiers for repeater items.
type Generator func() string

// NewItemID returns a random identifier.
func NewItemID() string {
	return uuid.NewString()
}

// Unique returns base when taken reports false, otherwise the first free
// "base-N" with N starting at 1.
func Unique(base string, taken func(string) bool) string {
	if !taken(base) {
		return base
	}
	for n := 1; ; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		if !taken(candidate) {
			return candidate
		}
	}
}
