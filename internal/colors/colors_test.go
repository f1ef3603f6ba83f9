package colors

import (
	"strings"
	"testing"
)

func TestWithAlpha(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		alpha float64
		want  string
	}{
		{"hsl", "hsl(120, 50%, 50%)", 0.5, "hsla(120, 50%, 50%, 0.5)"},
		{"hex upper", "#FF0000", 0.5, "rgba(255, 0, 0, 0.5)"},
		{"hex lower", "#0a0b0c", 1, "rgba(10, 11, 12, 1)"},
		{"rgba untouched", "rgba(1,2,3,0.9)", 0.2, "rgba(1,2,3,0.9)"},
		{"hsla untouched", "hsla(1, 2%, 3%, 0.4)", 0.2, "hsla(1, 2%, 3%, 0.4)"},
		{"short hex passthrough", "#fff", 0.3, "#fff"},
		{"bad hex passthrough", "#GGHHII", 0.3, "#GGHHII"},
		{"named passthrough", "red", 0.3, "red"},
		{"empty passthrough", "", 0.3, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := WithAlpha(tc.in, tc.alpha); got != tc.want {
				t.Fatalf("WithAlpha(%q, %v) = %q, want %q", tc.in, tc.alpha, got, tc.want)
			}
		})
	}
}

func TestPaletteColor_Wraps(t *testing.T) {
	if PaletteSize() != 10 {
		t.Fatalf("expected 10 palette entries, got %d", PaletteSize())
	}
	if PaletteColor(0) != PaletteColor(10) {
		t.Fatalf("expected index 0 and 10 to match")
	}
	if PaletteColor(-1) != PaletteColor(9) {
		t.Fatalf("expected -1 to wrap to 9, got %q", PaletteColor(-1))
	}
	if PaletteColor(-10) != PaletteColor(0) {
		t.Fatalf("expected -10 to wrap to 0")
	}
	if PaletteColor(3) != "hsl(136, 33%, 65%)" {
		t.Fatalf("unexpected palette entry 3: %q", PaletteColor(3))
	}
}

func TestPalette_ReturnsCopy(t *testing.T) {
	p := Palette()
	p[0] = "mutated"
	if PaletteColor(0) == "mutated" {
		t.Fatalf("expected Palette to return a copy")
	}
}

func TestIsValidHSL(t *testing.T) {
	valid := []string{"hsl(0, 0%, 50%)", "hsl(360,100%,100%)", "hsl(120, 5%, 7%)"}
	for _, c := range valid {
		if !IsValidHSL(c) {
			t.Fatalf("expected %q to be valid", c)
		}
	}
	invalid := []string{"hsl(361, 0%, 50%)", "hsl(0, 101%, 50%)", "#ff0000", "hsla(0, 0%, 0%, 1)", " hsl(0, 0%, 0%)"}
	for _, c := range invalid {
		if IsValidHSL(c) {
			t.Fatalf("expected %q to be invalid", c)
		}
	}
}

func TestSafeReadHSL(t *testing.T) {
	if got := SafeReadHSL("hsl(10, 20%, 30%)"); got != "hsl(10, 20%, 30%)" {
		t.Fatalf("expected valid colour to pass through, got %q", got)
	}
	if got := SafeReadHSL("#123456"); got != Fallback {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestEnsureHSLForDatabase(t *testing.T) {
	cases := map[string]string{
		"hsl(0, 85%, 55%)":   "hsl(0, 85%, 55%)",
		"#FF0000":            "hsl(0, 100%, 50%)",
		"#00FF00":            "hsl(120, 100%, 50%)",
		"#808080":            "hsl(0, 0%, 50%)",
		"rgb(255, 0, 0)":     "hsl(0, 100%, 50%)",
		"rgba(0, 0, 255, 1)": "hsl(240, 100%, 50%)",
		"papayawhip":         Fallback,
		"rgb(nope)":          Fallback,
	}
	for in, want := range cases {
		if got := EnsureHSLForDatabase(in); got != want {
			t.Fatalf("EnsureHSLForDatabase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHexToRGB_InvalidIsGray(t *testing.T) {
	got := HexToRGB("zzz")
	if got != (RGB{128, 128, 128}) {
		t.Fatalf("expected mid gray, got %+v", got)
	}
	if got := HexToRGB("00ff7f"); got != (RGB{0, 255, 127}) {
		t.Fatalf("expected hex without # to parse, got %+v", got)
	}
}

func TestDistrictColor_StableAndInRange(t *testing.T) {
	a := DistrictColor("Тобольский уезд")
	b := DistrictColor("Тобольский уезд")
	if a != b {
		t.Fatalf("expected stable colour, got %q and %q", a, b)
	}
	if !IsValidHSL(a) {
		t.Fatalf("expected strict HSL, got %q", a)
	}
	if !strings.HasSuffix(a, ", 70%, 50%)") {
		t.Fatalf("expected fixed saturation and lightness, got %q", a)
	}
	// "A" hashes to 65.
	if got := DistrictColor("A"); got != "hsl(65, 70%, 50%)" {
		t.Fatalf("unexpected colour for A: %q", got)
	}
}

func TestPopulationColor(t *testing.T) {
	rng := PopulationRange{Min: 0, Max: 100, MinColor: "hsl(100, 50%, 50%)", MaxColor: "hsl(0, 100%, 30%)"}

	if got := PopulationColor(0, rng); got != Default {
		t.Fatalf("expected default for zero population, got %q", got)
	}
	if got := PopulationColor(50, rng); got != "hsl(50, 75%, 40%)" {
		t.Fatalf("unexpected midpoint colour %q", got)
	}
	if got := PopulationColor(5000, rng); got != "hsl(0, 100%, 30%)" {
		t.Fatalf("expected clamp to max colour, got %q", got)
	}
}
