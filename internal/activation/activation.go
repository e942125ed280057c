package activation

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Validator checks client-supplied license keys. A key is derived from the
// client name with a shared secret: the first 16 bytes of
// HMAC-SHA256(secret, UPPER(TRIM(name))), hex-encoded uppercase and grouped
// in blocks of four (XXXX-XXXX-...-XXXX). The check is a boolean gate run
// once at session start; it has no bearing on core correctness.
type Validator struct {
	secret []byte
}

func New(secret string) *Validator {
	return &Validator{secret: []byte(secret)}
}

// KeyFor derives the expected license key for a client name.
func (v *Validator) KeyFor(clientName string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(strings.ToUpper(strings.TrimSpace(clientName))))
	digest := strings.ToUpper(hex.EncodeToString(mac.Sum(nil)[:16]))

	groups := make([]string, 0, len(digest)/4)
	for i := 0; i < len(digest); i += 4 {
		groups = append(groups, digest[i:i+4])
	}
	return strings.Join(groups, "-")
}

// Validate reports whether the supplied key matches the one derived from the
// client name. Comparison is constant-time; the key is case-insensitive and
// tolerant of surrounding whitespace.
func (v *Validator) Validate(clientName string, key string) bool {
	if strings.TrimSpace(clientName) == "" {
		return false
	}
	supplied := strings.ToUpper(strings.TrimSpace(key))
	expected := v.KeyFor(clientName)
	return hmac.Equal([]byte(supplied), []byte(expected))
}
