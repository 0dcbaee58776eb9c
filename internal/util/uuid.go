package util

import (
	guuid "github.com/google/uuid"
)

// NewUUID returns an RFC 4122 v4 UUID string.
func NewUUID() string {
	return guuid.NewString()
}
