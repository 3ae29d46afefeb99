package entity

import (
	"image/color"

	"golang.org/x/image/colornames"
)

// Palette is the fixed set of ball colours, assigned round robin
var Palette = []color.RGBA{
	colornames.Tomato,
	colornames.Gold,
	colornames.Mediumseagreen,
	colornames.Deepskyblue,
	colornames.Mediumpurple,
	colornames.Hotpink,
	colornames.Darkorange,
	colornames.Turquoise,
}

// BoundaryColor is used for container outlines
var BoundaryColor = colornames.Whitesmoke

// PaletteColor returns the colour for the i-th ball
func PaletteColor(i int) color.RGBA {
	if i < 0 {
		i = -i
	}
	return Palette[i%len(Palette)]
}
