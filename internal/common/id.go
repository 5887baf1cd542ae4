package common

import (
	"strings"

	"github.com/google/uuid"
)

// NewID generates a prefixed unique identifier, e.g. "tour_<uuid>"
func NewID(prefix string) string {
	if prefix == "" {
		return uuid.New().String()
	}
	return prefix + "_" + uuid.New().String()
}

// NewToken generates an opaque 64 hex character session token
func NewToken() string {
	return strings.ReplaceAll(uuid.New().String()+uuid.New().String(), "-", "")
}
