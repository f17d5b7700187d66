package vocab_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/subszero0/mandimonitor/internal/vocab"
)

func TestNormalizeRefreshRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    int
		wantOk  bool
	}{
		{"144hz", 144, true},
		{"165 Hz", 165, true},
		{"240fps", 240, true},
		{"60 hertz", 60, true},
		{"not-a-rate", 0, false},
	}
	for _, tt := range tests {
		got, ok := vocab.NormalizeRefreshRate(tt.raw)
		assert.Equal(t, tt.wantOk, ok, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestNormalizeSize(t *testing.T) {
	t.Parallel()

	got, ok := vocab.NormalizeSize(`27"`)
	assert.True(t, ok)
	assert.InDelta(t, 27.0, got, 0.01)

	got, ok = vocab.NormalizeSize("32 in")
	assert.True(t, ok)
	assert.InDelta(t, 32.0, got, 0.01)

	got, ok = vocab.NormalizeSize("81cm")
	assert.True(t, ok)
	assert.InDelta(t, 31.9, got, 0.1)

	_, ok = vocab.NormalizeSize("huge")
	assert.False(t, ok)
}

func TestNormalizeResolution(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"1080p": "1080p", "Full HD": "1080p", "FHD": "1080p",
		"1440p": "1440p", "2K": "1440p", "QHD": "1440p",
		"4K": "4k", "UHD": "4k",
		"ultrawide": "ultrawide", "UW": "ultrawide",
	}
	for raw, want := range tests {
		got, ok := vocab.NormalizeResolution(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	_, ok := vocab.NormalizeResolution("potato")
	assert.False(t, ok)
}

func TestNormalizeCurvature(t *testing.T) {
	t.Parallel()

	got, ok := vocab.NormalizeCurvature("curved")
	assert.True(t, ok)
	assert.Equal(t, "curved", got)

	got, ok = vocab.NormalizeCurvature("1500R")
	assert.True(t, ok)
	assert.Equal(t, "1500r-curved", got)

	_, ok = vocab.NormalizeCurvature("round")
	assert.False(t, ok)
}

func TestNormalizePanelType(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"IPS": "ips", "va": "va", "TN": "tn", "OLED": "oled", "QD-OLED": "qd-oled",
	}
	for raw, want := range tests {
		got, ok := vocab.NormalizePanelType(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	_, ok := vocab.NormalizePanelType("led")
	assert.False(t, ok)
}

func TestNormalizeUsageContext(t *testing.T) {
	t.Parallel()

	got, ok := vocab.NormalizeUsageContext("eSports")
	assert.True(t, ok)
	assert.Equal(t, "gaming", got)

	got, ok = vocab.NormalizeUsageContext("editing")
	assert.True(t, ok)
	assert.Equal(t, "professional", got)

	_, ok = vocab.NormalizeUsageContext("home")
	assert.False(t, ok)
}

func TestIsMarketingOnly(t *testing.T) {
	t.Parallel()

	assert.True(t, vocab.IsMarketingOnly("a stunning cinematic display"))
	assert.False(t, vocab.IsMarketingOnly("stunning 144hz gaming monitor"))
	assert.False(t, vocab.IsMarketingOnly("under 20000 stunning monitor"))
	assert.False(t, vocab.IsMarketingOnly("27 inch monitor"))
}

func TestStripTransliterationNoise(t *testing.T) {
	t.Parallel()

	got := vocab.StripTransliterationNoise("monitor chahiye bhai 144hz wala")
	assert.Equal(t, "monitor 144hz", got)
}
