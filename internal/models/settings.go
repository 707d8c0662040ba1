package models

import (
	"math"
	"strconv"
	"strings"
)

var (
	VoiceStyles  = []string{"Conversational", "Promo", "Angry", "Sad"}
	AccentColors = []string{"brand-blue", "brand-purple", "brand-teal", "brand-amber"}
)

type VoiceSettings struct {
	Rate        int     `json:"rate"`
	Pitch       int     `json:"pitch"`
	Style       string  `json:"style"`
	Temperature float64 `json:"temperature"`
	AccentColor string  `json:"accent_color"`
}

func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{
		Rate:        0,
		Pitch:       0,
		Style:       "Conversational",
		Temperature: 0.5,
		AccentColor: "brand-blue",
	}
}

// Merge applies a filtered config map and returns the updated settings.
// Values outside their range are clamped; unknown enum values are ignored.
func (v VoiceSettings) Merge(cfg map[string]any) VoiceSettings {
	out := v
	for k, raw := range cfg {
		switch k {
		case "rate":
			if n, ok := toFloat(raw); ok {
				out.Rate = clampInt(int(math.Round(n)), -50, 50)
			}
		case "pitch":
			if n, ok := toFloat(raw); ok {
				out.Pitch = clampInt(int(math.Round(n)), -50, 50)
			}
		case "temperature":
			if n, ok := toFloat(raw); ok {
				out.Temperature = math.Min(1, math.Max(0, n))
			}
		case "style":
			if s, ok := matchOption(raw, VoiceStyles); ok {
				out.Style = s
			}
		case "accent_color":
			if s, ok := matchOption(raw, AccentColors); ok {
				out.AccentColor = s
			}
		}
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func matchOption(v any, options []string) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	for _, o := range options {
		if strings.EqualFold(o, s) {
			return o, true
		}
	}
	return "", false
}

func clampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
