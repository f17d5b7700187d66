package vocab

import (
	"math"
	"strconv"
	"strings"
)

// NormalizeRefreshRate parses a raw "144hz"/"144 fps"/"144 hertz" match into
// an integer Hz value. Idempotent: feeding back the Hz value as a string
// with a "hz" suffix reproduces the same integer.
func NormalizeRefreshRate(raw string) (int, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	raw = strings.TrimSuffix(raw, "hertz")
	raw = strings.TrimSuffix(raw, "hz")
	raw = strings.TrimSuffix(raw, "fps")
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// NormalizeSize parses a raw size token ("32\"", "32 in", "81 cm") into
// inches, rounded to one decimal place. cm is converted at 1cm = 0.3937in.
func NormalizeSize(raw string) (float64, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	isCM := strings.HasSuffix(raw, "cm")
	numPart := raw
	for _, suf := range []string{"cm", "inches", "inch", "in", "\""} {
		numPart = strings.TrimSuffix(numPart, suf)
	}
	numPart = strings.TrimSpace(numPart)
	v, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, false
	}
	if isCM {
		v = v * 0.3937
	}
	return roundTo1(v), true
}

func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}

// resolutionSynonyms canonicalizes resolution spellings to the closed set
// {1080p, 1440p, 4k, 8k, ultrawide} (spec.md §4.1).
var resolutionSynonyms = map[string]string{
	"1080p":     "1080p",
	"full hd":   "1080p",
	"fullhd":    "1080p",
	"fhd":       "1080p",
	"1440p":     "1440p",
	"2k":        "1440p",
	"qhd":       "1440p",
	"wqhd":      "1440p",
	"4k":        "4k",
	"uhd":       "4k",
	"ultra hd":  "4k",
	"8k":        "8k",
	"ultrawide": "ultrawide",
	"uw":        "ultrawide",
}

// NormalizeResolution canonicalizes a raw resolution token.
func NormalizeResolution(raw string) (string, bool) {
	key := strings.ToLower(strings.Join(strings.Fields(strings.TrimSpace(raw)), " "))
	if v, ok := resolutionSynonyms[key]; ok {
		return v, true
	}
	return "", false
}

// NormalizeCurvature maps curved|flat|<N>R to {curved, flat}, retaining the
// radius as a suffix for curved panels where present (e.g. "1500r-curved").
func NormalizeCurvature(raw string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case lower == "flat":
		return "flat", true
	case lower == "curved":
		return "curved", true
	case strings.HasSuffix(lower, "r"):
		// radius spec e.g. "1500r" implies a curved panel.
		if _, err := strconv.Atoi(strings.TrimSuffix(lower, "r")); err == nil {
			return lower + "-curved", true
		}
	}
	return "", false
}

// NormalizePanelType canonicalizes IPS/VA/TN/OLED/QD-OLED spellings.
func NormalizePanelType(raw string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	lower = strings.ReplaceAll(lower, "-", "")
	switch lower {
	case "ips":
		return "ips", true
	case "va":
		return "va", true
	case "tn":
		return "tn", true
	case "oled":
		return "oled", true
	case "qdoled":
		return "qd-oled", true
	}
	return "", false
}

// NormalizeUsageContext maps free-text usage hints to the closed set
// {gaming, professional, budget}.
func NormalizeUsageContext(raw string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	switch lower {
	case "gaming", "esports", "e-sports":
		return "gaming", true
	case "professional", "editing":
		return "professional", true
	case "budget", "cheap", "affordable":
		return "budget", true
	}
	return "", false
}

// IsMarketingOnly reports whether text contains only marketing deny-list
// terms plus generic nouns — no technical content at all.
func IsMarketingOnly(text string) bool {
	lower := strings.ToLower(text)
	found := false
	for _, term := range marketingDenylist {
		if strings.Contains(lower, term) {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	for _, p := range GamingMonitor.Patterns {
		if p.Regex.MatchString(lower) {
			return false
		}
	}
	if PricePattern().MatchString(lower) {
		return false
	}
	return true
}

// StripTransliterationNoise removes Hindi/English transliteration filler
// tokens without touching numeric tokens.
func StripTransliterationNoise(text string) string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		clean := strings.ToLower(strings.Trim(f, ".,!?"))
		noise := false
		for _, n := range transliterationNoise {
			if clean == n {
				noise = true
				break
			}
		}
		if !noise {
			out = append(out, f)
		}
	}
	return strings.Join(out, " ")
}
