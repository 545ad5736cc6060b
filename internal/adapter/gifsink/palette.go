package gifsink

import (
	"image/color"
	"math"
)

// viridis anchor colours at equally spaced positions in [0, 1].
var viridis = []color.RGBA{
	{68, 1, 84, 255},
	{71, 45, 123, 255},
	{59, 82, 139, 255},
	{44, 114, 142, 255},
	{33, 145, 140, 255},
	{40, 174, 128, 255},
	{94, 201, 98, 255},
	{173, 220, 48, 255},
	{253, 231, 37, 255},
}

// buildPalette returns white, black, then colorLevels interpolated viridis shades.
func buildPalette() color.Palette {
	p := make(color.Palette, 0, firstColorIndex+colorLevels)
	p = append(p, color.RGBA{255, 255, 255, 255}, color.RGBA{0, 0, 0, 255})
	for i := 0; i < colorLevels; i++ {
		p = append(p, colormap(float64(i)/float64(colorLevels-1)))
	}
	return p
}

func colormap(t float64) color.RGBA {
	pos := t * float64(len(viridis)-1)
	k := int(math.Floor(pos))
	if k >= len(viridis)-1 {
		return viridis[len(viridis)-1]
	}
	if k < 0 {
		return viridis[0]
	}
	f := pos - float64(k)
	a, b := viridis[k], viridis[k+1]
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + f*(float64(y)-float64(x))))
	}
	return color.RGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), 255}
}
