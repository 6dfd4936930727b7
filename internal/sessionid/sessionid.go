// Package sessionid generates identifiers for game sessions. IDs are UUIDv7
// values encoded as 26 lowercase Crockford base32 characters, so they sort by
// creation time and are safe to use in log fields and file names.
package sessionid

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length is the size of an encoded session ID.
const Length = 26

var encoding = base32.NewEncoding(alphabet).WithPadding(base32.NoPadding)

// New returns a fresh session ID. It panics only if the system random source
// is unavailable, matching uuid.Must semantics.
func New() string {
	return Encode(uuid.Must(uuid.NewV7()))
}

// Encode renders a UUID in session ID form.
func Encode(id uuid.UUID) string {
	return encoding.EncodeToString(id[:])
}

// Decode parses a session ID back into its UUID.
func Decode(s string) (uuid.UUID, error) {
	if err := Validate(s); err != nil {
		return uuid.Nil, err
	}
	raw, err := encoding.DecodeString(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("decode session id: %w", err)
	}
	return uuid.FromBytes(raw)
}

// Validate reports whether s is a well-formed session ID.
func Validate(s string) error {
	if len(s) != Length {
		return fmt.Errorf("session id must be exactly %d characters, got %d", Length, len(s))
	}
	for i, r := range s {
		if !strings.ContainsRune(alphabet, r) {
			return fmt.Errorf("invalid character %q at position %d", r, i)
		}
	}
	return nil
}
