package marker

import "math"

const (
	MinRadius     = 2.5
	MaxRadius     = 12.0
	MinPopulation = 10.0
	MaxPopulation = 1000.0
	StrokeWidth   = 3.0

	// CanvasSize fits the largest ring plus stroke headroom.
	CanvasSize = (MaxRadius + StrokeWidth) * 2

	startAngle = -90.0
)

// Radius maps a population onto the ring radius. Populations at or below
// MinPopulation get MinRadius, at or above MaxPopulation get MaxRadius.
func Radius(population float64) float64 {
	if math.IsNaN(population) {
		population = 0
	}
	t := math.Max(population-MinPopulation, 0) / (MaxPopulation - MinPopulation)
	t = math.Min(t, 1)
	return MinRadius + (MaxRadius-MinRadius)*t
}

// Segment is one arc of the ring, in degrees. 0° points right and angles
// grow clockwise in screen space.
type Segment struct {
	Start float64
	End   float64
}

func (s Segment) Span() float64 {
	return s.End - s.Start
}

// LargeArc is the SVG large-arc flag for the segment.
func (s Segment) LargeArc() int {
	if s.Span() > 180 {
		return 1
	}
	return 0
}

// Segments splits the full circle into n equal arcs starting at 12 o'clock.
func Segments(n int) []Segment {
	if n <= 0 {
		return nil
	}
	span := 360.0 / float64(n)
	out := make([]Segment, n)
	current := startAngle
	for i := range out {
		end := current + span
		out[i] = Segment{Start: current, End: end}
		current = end
	}
	return out
}

type point struct {
	X float64
	Y float64
}

func onCircle(center, radius, degrees float64) point {
	rad := degrees * math.Pi / 180
	return point{
		X: center + radius*math.Cos(rad),
		Y: center + radius*math.Sin(rad),
	}
}
