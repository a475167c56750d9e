package stocktakes

import (
	"crypto/rand"
	"fmt"
	"time"
)

const referenceAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
const referenceSuffixLength = 4

// newReference builds a location-coded stock take reference such as
// ST-HK-20260831-7GKQ. The suffix is random; uniqueness is enforced by the
// database constraint and callers retry on collision.
func newReference(locationCode string, now time.Time) (string, error) {
	buf := make([]byte, referenceSuffixLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random suffix: %w", err)
	}
	for i, b := range buf {
		buf[i] = referenceAlphabet[int(b)%len(referenceAlphabet)]
	}
	return fmt.Sprintf("ST-%s-%s-%s", locationCode, now.UTC().Format("20060102"), string(buf)), nil
}
