package app

import (
	"github.com/google/uuid"
)

// newSessionID generates a random UUIDv4 string.
func newSessionID() string {
	return uuid.NewString()
}

// normalizeID canonicalises a client supplied id; malformed ids are reported as not found.
func normalizeID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", ErrNotFound
	}
	return u.String(), nil
}
