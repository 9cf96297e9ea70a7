package accesskey

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// Role extracts the caller role embedded in an access key.
//
// Keys follow the shape "<tag>-<role>-<suffix>". The role is the second
// dash-separated segment when the first segment matches the configured
// tag. Keys that do not carry the tag, or that have no second segment,
// yield an empty role.
func Role(key, tag string) string {
	parts := strings.Split(key, "-")
	if len(parts) < 2 {
		return ""
	}
	if parts[0] != tag {
		return ""
	}
	return parts[1]
}

// HashKey hashes a raw access key for storage and comparison.
func HashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Keyring holds the set of accepted access keys, stored hashed.
type Keyring struct {
	tag    string
	hashes []string
}

// NewKeyring hashes the configured raw keys up front.
func NewKeyring(tag string, rawKeys []string) *Keyring {
	hashes := make([]string, 0, len(rawKeys))
	for _, raw := range rawKeys {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		hashes = append(hashes, HashKey(raw))
	}
	return &Keyring{tag: tag, hashes: hashes}
}

// Contains reports whether the presented key matches a configured key.
// Comparison is constant time over the hashed values.
func (k *Keyring) Contains(raw string) bool {
	presented := HashKey(raw)
	matched := false
	for _, h := range k.hashes {
		if subtle.ConstantTimeCompare([]byte(presented), []byte(h)) == 1 {
			matched = true
		}
	}
	return matched
}

// RoleFor validates the key against the ring and returns its role.
// The second return value is false when the key is unknown.
func (k *Keyring) RoleFor(raw string) (string, bool) {
	if !k.Contains(raw) {
		return "", false
	}
	return Role(raw, k.tag), true
}
