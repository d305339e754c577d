package util

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// ShortID returns a random UUID encoded as 22 URL-safe characters.
func ShortID() string {
	id := uuid.New()
	return base64.RawURLEncoding.EncodeToString(id[:])
}
