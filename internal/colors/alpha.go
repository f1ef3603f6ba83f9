package colors

import (
	"fmt"
	"strconv"
	"strings"
)

// Neutral is the stroke used for markers and estate types without a colour.
const Neutral = "hsl(0, 0%, 60%)"

// WithAlpha returns color with the given alpha applied. Colours that already
// carry alpha, and formats it does not understand, are returned unchanged.
func WithAlpha(color string, alpha float64) string {
	switch {
	case strings.HasPrefix(color, "hsla("), strings.HasPrefix(color, "rgba("):
		return color
	case strings.HasPrefix(color, "hsl("):
		out := strings.Replace(color, "hsl(", "hsla(", 1)
		return strings.Replace(out, ")", ", "+formatAlpha(alpha)+")", 1)
	case strings.HasPrefix(color, "#"):
		r, g, b, ok := parseHex6(color)
		if !ok {
			return color
		}
		return fmt.Sprintf("rgba(%d, %d, %d, %s)", r, g, b, formatAlpha(alpha))
	default:
		return color
	}
}

func formatAlpha(alpha float64) string {
	return strconv.FormatFloat(alpha, 'f', -1, 64)
}

// parseHex6 parses the #RRGGBB form only.
func parseHex6(s string) (r, g, b uint8, ok bool) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), true
}
