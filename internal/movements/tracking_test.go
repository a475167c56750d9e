package movements

import (
	"strings"
	"testing"
	"time"

	"github.com/marcuschung/assetflow-backend/pkg/config"
)

func TestTrackingGeneratorFormat(t *testing.T) {
	gen := NewTrackingGenerator(config.TrackingConfig{SuffixLength: 8})
	gen.now = func() time.Time {
		return time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	}

	number, err := gen.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}

	prefix := "MV2026-"
	if !strings.HasPrefix(number, prefix) {
		t.Fatalf("expected prefix %q, got %q", prefix, number)
	}
	suffix := strings.TrimPrefix(number, prefix)
	if len(suffix) != 8 {
		t.Fatalf("expected 8 char suffix, got %q", suffix)
	}
	for _, c := range suffix {
		if !strings.ContainsRune(trackingAlphabet, c) {
			t.Fatalf("suffix contains char %q outside the tracking alphabet", c)
		}
	}
}

func TestTrackingGeneratorDefaultsSuffixLength(t *testing.T) {
	gen := NewTrackingGenerator(config.TrackingConfig{})

	number, err := gen.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	parts := strings.SplitN(number, "-", 2)
	if len(parts) != 2 {
		t.Fatalf("unexpected format %q", number)
	}
	if len(parts[1]) != config.DefaultTrackingSuffixLength {
		t.Fatalf("expected default suffix length %d, got %d", config.DefaultTrackingSuffixLength, len(parts[1]))
	}
}

func TestTrackingGeneratorDistinctness(t *testing.T) {
	gen := NewTrackingGenerator(config.TrackingConfig{SuffixLength: 8})

	seen := make(map[string]struct{}, 200)
	for i := 0; i < 200; i++ {
		number, err := gen.Next()
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if _, dup := seen[number]; dup {
			t.Fatalf("duplicate tracking number %s after %d draws", number, i)
		}
		seen[number] = struct{}{}
	}
}
