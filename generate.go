package dynamodel

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// uidAlphabet is the character set for uid tokens.
const uidAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// defaultUIDSize is the token length used when a uid generator gives no
// explicit size.
const defaultUIDSize = 10

// knownGenerator reports whether scheme names a supported generator.
func knownGenerator(scheme string) bool {
	switch scheme {
	case "uuid", "ulid", "uid":
		return true
	}
	if strings.HasPrefix(scheme, "uid(") && strings.HasSuffix(scheme, ")") {
		var n int
		if _, err := fmt.Sscanf(scheme, "uid(%d)", &n); err == nil && n > 0 {
			return true
		}
	}
	return false
}

// generateValue produces a new identifier for the given scheme. Schemes are
// validated at schema-load time, so an unknown scheme here falls back to
// uuid.
func generateValue(scheme string) (string, error) {
	switch {
	case scheme == "ulid":
		return ulid.Make().String(), nil
	case scheme == "uid":
		return generateUID(defaultUIDSize)
	case strings.HasPrefix(scheme, "uid("):
		n := defaultUIDSize
		fmt.Sscanf(scheme, "uid(%d)", &n)
		return generateUID(n)
	default:
		return uuid.NewString(), nil
	}
}

// generateUID returns a random token of n characters.
func generateUID(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate uid: %w", err)
	}
	var b strings.Builder
	for _, c := range buf {
		b.WriteByte(uidAlphabet[int(c)%len(uidAlphabet)])
	}
	return b.String(), nil
}
