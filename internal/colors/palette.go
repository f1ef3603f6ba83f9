package colors

var layerPalette = []string{
	"hsl(0, 85%, 55%)",
	"hsl(178, 63%, 52%)",
	"hsl(197, 65%, 55%)",
	"hsl(136, 33%, 65%)",
	"hsl(48, 100%, 67%)",
	"hsl(282, 44%, 70%)",
	"hsl(174, 38%, 70%)",
	"hsl(48, 100%, 67%)",
	"hsl(262, 41%, 68%)",
	"hsl(204, 70%, 67%)",
}

// PaletteSize is the number of distinct palette slots.
func PaletteSize() int {
	return len(layerPalette)
}

// PaletteColor picks the vector layer colour for index. Any integer is
// accepted; negative indices wrap from the end of the palette.
func PaletteColor(index int) string {
	n := len(layerPalette)
	i := index % n
	if i < 0 {
		i += n
	}
	return layerPalette[i]
}

// Palette returns a copy of the layer palette.
func Palette() []string {
	out := make([]string, len(layerPalette))
	copy(out, layerPalette)
	return out
}
