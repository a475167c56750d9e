package movements

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/marcuschung/assetflow-backend/pkg/config"
)

// trackingAlphabet omits characters that read ambiguously when printed on a
// label (0/O, 1/I/L).
const trackingAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// TrackingGenerator allocates human-presentable tracking numbers of the form
// MV{year}-{suffix}. Suffixes are random, so uniqueness is enforced by the
// database constraint and callers retry on collision.
type TrackingGenerator struct {
	suffixLength int
	now          func() time.Time
}

// NewTrackingGenerator builds a generator from the tracking configuration.
func NewTrackingGenerator(cfg config.TrackingConfig) *TrackingGenerator {
	length := cfg.SuffixLength
	if length <= 0 {
		length = config.DefaultTrackingSuffixLength
	}
	return &TrackingGenerator{
		suffixLength: length,
		now:          time.Now,
	}
}

// Next returns a fresh candidate tracking number.
func (g *TrackingGenerator) Next() (string, error) {
	buf := make([]byte, g.suffixLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random suffix: %w", err)
	}
	for i, b := range buf {
		buf[i] = trackingAlphabet[int(b)%len(trackingAlphabet)]
	}
	return fmt.Sprintf("MV%d-%s", g.now().UTC().Year(), string(buf)), nil
}
