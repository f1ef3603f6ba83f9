package colors

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"
)

const (
	// Fallback is what invalid database colours are read as.
	Fallback = "hsl(180, 0%, 100%)"
	// Default is the estate type colour used when nothing else is known.
	Default = "hsl(0, 0%, 50%)"
)

var (
	strictHSL  = regexp.MustCompile(`^hsl\((\d+),\s*(\d+)%,\s*(\d+)%\)$`)
	looseHSL   = regexp.MustCompile(`hsl\((\d+),\s*(\d+)%,\s*(\d+)%\)`)
	rgbPrefix  = regexp.MustCompile(`rgba?\((\d+),\s*(\d+),\s*(\d+)`)
	hexPattern = regexp.MustCompile(`^#?([a-fA-F\d]{2})([a-fA-F\d]{2})([a-fA-F\d]{2})$`)
)

type HSL struct {
	H int
	S int
	L int
}

func (c HSL) String() string {
	return fmt.Sprintf("hsl(%d, %d%%, %d%%)", c.H, c.S, c.L)
}

type RGB struct {
	R int
	G int
	B int
}

// IsValidHSL reports whether color is exactly hsl(h, s%, l%) with every
// component in range.
func IsValidHSL(color string) bool {
	m := strictHSL.FindStringSubmatch(color)
	if m == nil {
		return false
	}
	h, s, l := atoi(m[1]), atoi(m[2]), atoi(m[3])
	return h >= 0 && h <= 360 && s >= 0 && s <= 100 && l >= 0 && l <= 100
}

// SafeReadHSL returns color when it is valid strict HSL, Fallback otherwise.
func SafeReadHSL(color string) string {
	if IsValidHSL(color) {
		return color
	}
	return Fallback
}

// EnsureHSLForDatabase converts hex and rgb(a) colours into strict HSL.
// Anything unrecognised becomes Fallback.
func EnsureHSLForDatabase(color string) string {
	if IsValidHSL(color) {
		return color
	}
	if strings.HasPrefix(color, "#") {
		return RGBToHSL(HexToRGB(color)).String()
	}
	if strings.HasPrefix(color, "rgb") {
		if m := rgbPrefix.FindStringSubmatch(color); m != nil {
			return RGBToHSL(RGB{R: atoi(m[1]), G: atoi(m[2]), B: atoi(m[3])}).String()
		}
	}
	return Fallback
}

// HexToRGB parses #RRGGBB (the # is optional). Invalid input yields mid gray.
func HexToRGB(hex string) RGB {
	m := hexPattern.FindStringSubmatch(hex)
	if m == nil {
		return RGB{R: 128, G: 128, B: 128}
	}
	return RGB{R: hexByte(m[1]), G: hexByte(m[2]), B: hexByte(m[3])}
}

func RGBToHSL(c RGB) HSL {
	r := float64(c.R) / 255
	g := float64(c.G) / 255
	b := float64(c.B) / 255

	hi := math.Max(r, math.Max(g, b))
	lo := math.Min(r, math.Min(g, b))
	l := (hi + lo) / 2

	var h, s float64
	if hi != lo {
		d := hi - lo
		if l > 0.5 {
			s = d / (2 - hi - lo)
		} else {
			s = d / (hi + lo)
		}
		switch hi {
		case r:
			h = (g - b) / d
			if g < b {
				h += 6
			}
		case g:
			h = (b-r)/d + 2
		default:
			h = (r-g)/d + 4
		}
		h /= 6
	}

	return HSL{
		H: int(math.Round(h * 360)),
		S: int(math.Round(s * 100)),
		L: int(math.Round(l * 100)),
	}
}

// ParseHSL reads hsl(h, s%, l%) anywhere in color, falling back to a hex
// conversion.
func ParseHSL(color string) HSL {
	if m := looseHSL.FindStringSubmatch(color); m != nil {
		return HSL{H: atoi(m[1]), S: atoi(m[2]), L: atoi(m[3])}
	}
	return RGBToHSL(HexToRGB(color))
}

// DistrictColor derives a stable hue from the district name.
func DistrictColor(name string) string {
	var hash int32
	for _, unit := range utf16.Encode([]rune(name)) {
		hash = int32(unit) + ((hash << 5) - hash)
	}
	hue := int(hash % 360)
	if hue < 0 {
		hue += 360
	}
	return fmt.Sprintf("hsl(%d, 70%%, 50%%)", hue)
}

// PopulationRange configures the population colour ramp.
type PopulationRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	MinColor string  `json:"minColor"`
	MaxColor string  `json:"maxColor"`
}

func DefaultPopulationRange() PopulationRange {
	return PopulationRange{
		Min:      0,
		Max:      1000,
		MinColor: "hsl(60, 100%, 70%)",
		MaxColor: "hsl(0, 100%, 40%)",
	}
}

// PopulationColor interpolates between the range colours in HSL space.
func PopulationColor(population float64, rng PopulationRange) string {
	if population <= 0 {
		return Default
	}

	var t float64
	if rng.Max > rng.Min {
		t = (population - rng.Min) / (rng.Max - rng.Min)
	} else if population >= rng.Max {
		t = 1
	}
	t = math.Min(math.Max(t, 0), 1)

	a := ParseHSL(rng.MinColor)
	b := ParseHSL(rng.MaxColor)
	lerp := func(x, y int) int {
		return int(math.Round(float64(x) + float64(y-x)*t))
	}
	return HSL{H: lerp(a.H, b.H), S: lerp(a.S, b.S), L: lerp(a.L, b.L)}.String()
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func hexByte(s string) int {
	n, _ := strconv.ParseUint(s, 16, 8)
	return int(n)
}
