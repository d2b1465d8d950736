package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// maxCanonicalIDLen caps canonical identifiers so they stay usable as
// catalog dataset names.
const maxCanonicalIDLen = 90

// NormalizeID derives the canonical identifier for a source identifier.
// It is a pure function: lowercase, runs of non-alphanumeric characters
// collapsed to a single '-', trimmed and length-capped. Identifiers that
// normalize to nothing fall back to a hash of the raw input so every
// remote record still gets a stable, non-empty name.
func NormalizeID(raw string) string {
	trimmed := strings.TrimSpace(raw)

	var b strings.Builder
	lastDash := true // suppress leading dash
	for _, r := range strings.ToLower(trimmed) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		switch {
		case isAlnum:
			b.WriteRune(r)
			lastDash = false
		case r == '_' || r == '-':
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	name := strings.Trim(b.String(), "-")
	if len(name) > maxCanonicalIDLen {
		name = strings.Trim(name[:maxCanonicalIDLen], "-")
	}
	if name == "" {
		sum := sha1.Sum([]byte(raw))
		return hex.EncodeToString(sum[:])[:16]
	}
	return name
}
