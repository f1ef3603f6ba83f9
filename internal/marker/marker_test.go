package marker

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"tahisis/core-go/internal/estates"
)

var (
	radiusAttr = regexp.MustCompile(`r="([0-9.]+)"`)
	pathTag    = regexp.MustCompile(`<path d="M [^"]+"`)
)

func TestGenerate_EmptyIsPlaceholder(t *testing.T) {
	for _, in := range [][]Slice{nil, {}} {
		got := Generate(in)
		if got != Placeholder {
			t.Fatalf("expected placeholder, got %s", got)
		}
	}
	if !strings.Contains(Placeholder, `r="7"`) || !strings.Contains(Placeholder, `viewBox="0 0 20 20"`) {
		t.Fatalf("placeholder must be radius 7 on a 20x20 view box")
	}
}

func TestGenerate_SingleSlice(t *testing.T) {
	got := Generate([]Slice{{Color: "hsl(0, 85%, 55%)", Population: 505}})
	want := `<div class="pie-marker"><svg width="30" height="30" viewBox="0 0 30 30">` +
		`<circle cx="15" cy="15" r="7.25" fill="transparent" stroke="hsl(0, 85%, 55%)" stroke-width="3"/>` +
		`</svg></div>`
	if got != want {
		t.Fatalf("unexpected markup:\n got %s\nwant %s", got, want)
	}
}

func singleRadius(t *testing.T, population float64) float64 {
	t.Helper()
	m := radiusAttr.FindStringSubmatch(Generate([]Slice{{Color: "#000000", Population: population}}))
	if m == nil {
		t.Fatalf("no radius in markup for population %v", population)
	}
	r, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		t.Fatalf("parse radius %q: %v", m[1], err)
	}
	return r
}

func TestGenerate_RadiusMonotonicAndClamped(t *testing.T) {
	prev := -1.0
	for _, p := range []float64{-50, 0, 5, 10, 11, 100, 500, 999, 1000, 1001, 1e6} {
		r := singleRadius(t, p)
		if r < prev {
			t.Fatalf("radius decreased at population %v: %v < %v", p, r, prev)
		}
		if r < MinRadius || r > MaxRadius {
			t.Fatalf("radius %v out of range for population %v", r, p)
		}
		prev = r
	}
	if r := singleRadius(t, 10); r != MinRadius {
		t.Fatalf("expected min radius at 10, got %v", r)
	}
	if r := singleRadius(t, 1000); r != MaxRadius {
		t.Fatalf("expected max radius at 1000, got %v", r)
	}
	if r := singleRadius(t, 5000); r != MaxRadius {
		t.Fatalf("expected saturation above 1000, got %v", r)
	}
}

func TestGenerate_MultipleSlices(t *testing.T) {
	slices := []Slice{
		{Color: "hsl(0, 85%, 55%)", Population: 100},
		{Color: "hsl(178, 63%, 52%)", Population: 200},
		{Color: "", Population: 300},
	}
	got := Generate(slices)

	if n := len(pathTag.FindAllString(got, -1)); n != len(slices) {
		t.Fatalf("expected %d paths, got %d: %s", len(slices), n, got)
	}
	if strings.Contains(got, "<circle") {
		t.Fatalf("expected no full circle for multiple slices")
	}
	if !strings.Contains(got, `stroke="hsl(0, 0%, 60%)"`) {
		t.Fatalf("expected neutral stroke for missing colour")
	}
	if !strings.Contains(got, `stroke-linecap="butt"`) || !strings.Contains(got, `fill="none"`) {
		t.Fatalf("expected open stroked arcs")
	}
	// First arc starts at 12 o'clock: (15, 15-r).
	r := Radius(600)
	wantStart := `M 15 ` + strconv.FormatFloat(15-r, 'f', -1, 64) + ` A`
	if !strings.Contains(got, wantStart) {
		t.Fatalf("expected first arc to start at top (%q), got %s", wantStart, got)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	in := []Slice{{Color: "a", Population: 1}, {Color: "b", Population: 2}, {Color: "c", Population: 3}, {Color: "d", Population: 4}}
	if Generate(in) != Generate(in) {
		t.Fatalf("expected byte-identical output")
	}
}

func TestGenerate_EscapesColour(t *testing.T) {
	got := Generate([]Slice{{Color: `"><script>`, Population: 1}})
	if strings.Contains(got, "<script>") {
		t.Fatalf("expected colour to be escaped: %s", got)
	}
}

func TestSegments_CoverFullCircle(t *testing.T) {
	for n := 1; n <= 12; n++ {
		segs := Segments(n)
		if len(segs) != n {
			t.Fatalf("expected %d segments, got %d", n, len(segs))
		}
		var sum float64
		for i, s := range segs {
			sum += s.Span()
			if i > 0 && s.Start != segs[i-1].End {
				t.Fatalf("segments not contiguous at %d", i)
			}
		}
		if math.Abs(sum-360) > 1e-6 {
			t.Fatalf("n=%d: spans sum to %v", n, sum)
		}
		if segs[0].Start != -90 {
			t.Fatalf("expected first segment to start at -90, got %v", segs[0].Start)
		}
	}
	if Segments(0) != nil {
		t.Fatalf("expected no segments for n=0")
	}
}

func TestSegment_LargeArc(t *testing.T) {
	if Segments(1)[0].LargeArc() != 1 {
		t.Fatalf("expected large-arc flag for a full circle segment")
	}
	for _, s := range Segments(2) {
		if s.LargeArc() != 0 {
			t.Fatalf("expected no large-arc flag for half circles")
		}
	}
}

func TestShape(t *testing.T) {
	if Shape(nil) != "placeholder" || Shape(make([]Slice, 1)) != "ring" || Shape(make([]Slice, 3)) != "pie" {
		t.Fatalf("unexpected shapes")
	}
}

func TestSlicesFromTypes(t *testing.T) {
	red := "hsl(0, 100%, 50%)"
	got := SlicesFromTypes([]estates.AggregatedType{
		{TypeColor: &red, TotalMale: 3, TotalFemale: 4, TotalPopulation: 7},
		{TotalMale: 1, TotalPopulation: 1},
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 slices, got %d", len(got))
	}
	if got[0].Color != red || got[0].Population != 7 {
		t.Fatalf("unexpected first slice %+v", got[0])
	}
	if got[1].Color != "hsl(0, 0%, 60%)" || got[1].Population != 1 {
		t.Fatalf("expected neutral colour for uncoloured type, got %q", got[1].Color)
	}
	if SlicesFromTypes(nil) != nil {
		t.Fatalf("expected nil slices for no types")
	}
}
