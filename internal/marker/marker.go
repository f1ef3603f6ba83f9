// Package marker renders settlement marker icons and popups.
package marker

import (
	"html"
	"strconv"
	"strings"

	"tahisis/core-go/internal/colors"
	"tahisis/core-go/internal/estates"
)

// Placeholder is the marker for a settlement without estate data.
const Placeholder = `<div class="pie-marker"><svg width="20" height="20" viewBox="0 0 20 20">` +
	`<circle cx="10" cy="10" r="7" fill="transparent" stroke="hsl(0, 0%, 60%)" stroke-width="3"/>` +
	`</svg></div>`

// Slice is one coloured band of a marker.
type Slice struct {
	Color      string  `json:"color"`
	Population float64 `json:"population"`
}

// Shape names the kind of markup Generate produces for slices.
func Shape(slices []Slice) string {
	switch len(slices) {
	case 0:
		return "placeholder"
	case 1:
		return "ring"
	default:
		return "pie"
	}
}

// Generate renders the marker markup: a single ring for one slice, a ring
// of equal coloured arcs for several, sized by total population.
func Generate(slices []Slice) string {
	if len(slices) == 0 {
		return Placeholder
	}

	var total float64
	for _, s := range slices {
		if s.Population > 0 {
			total += s.Population
		}
	}
	radius := Radius(total)
	center := CanvasSize / 2
	size := num(CanvasSize)

	var b strings.Builder
	b.WriteString(`<div class="pie-marker"><svg width="`)
	b.WriteString(size)
	b.WriteString(`" height="`)
	b.WriteString(size)
	b.WriteString(`" viewBox="0 0 `)
	b.WriteString(size + " " + size)
	b.WriteString(`">`)

	if len(slices) == 1 {
		b.WriteString(`<circle cx="`)
		b.WriteString(num(center))
		b.WriteString(`" cy="`)
		b.WriteString(num(center))
		b.WriteString(`" r="`)
		b.WriteString(num(radius))
		b.WriteString(`" fill="transparent" stroke="`)
		b.WriteString(strokeColor(slices[0].Color))
		b.WriteString(`" stroke-width="`)
		b.WriteString(num(StrokeWidth))
		b.WriteString(`"/>`)
	} else {
		for i, seg := range Segments(len(slices)) {
			from := onCircle(center, radius, seg.Start)
			to := onCircle(center, radius, seg.End)
			b.WriteString(`<path d="M `)
			b.WriteString(num(from.X) + " " + num(from.Y))
			b.WriteString(" A ")
			b.WriteString(num(radius) + " " + num(radius))
			b.WriteString(" 0 ")
			b.WriteString(strconv.Itoa(seg.LargeArc()))
			b.WriteString(" 1 ")
			b.WriteString(num(to.X) + " " + num(to.Y))
			b.WriteString(`" fill="none" stroke="`)
			b.WriteString(strokeColor(slices[i].Color))
			b.WriteString(`" stroke-width="`)
			b.WriteString(num(StrokeWidth))
			b.WriteString(`" stroke-linecap="butt"/>`)
		}
	}

	b.WriteString(`</svg></div>`)
	return b.String()
}

// SlicesFromTypes builds marker slices from aggregated estate types, one per
// type, weighted by population and coloured by the type colour.
func SlicesFromTypes(types []estates.AggregatedType) []Slice {
	if len(types) == 0 {
		return nil
	}
	out := make([]Slice, 0, len(types))
	for _, t := range types {
		c := colors.Neutral
		if t.TypeColor != nil && *t.TypeColor != "" {
			c = *t.TypeColor
		}
		out = append(out, Slice{Color: c, Population: float64(t.Population())})
	}
	return out
}

func strokeColor(c string) string {
	c = strings.TrimSpace(c)
	if c == "" {
		c = colors.Neutral
	}
	return html.EscapeString(c)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
