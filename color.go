// Package palettegen builds small palettes of distinct colors from images by
// ranking exact pixel frequencies and dropping near duplicates.
package palettegen

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is an 8-bit RGB triple. Alpha is dropped on construction.
type Color struct {
	R, G, B uint8
}

// FromColor converts any color.Color to Color through the non-premultiplied
// model, so translucent pixels keep their straight RGB values.
func FromColor(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{R: n.R, G: n.G, B: n.B}
}

// FromColorful clamps a go-colorful color into 8-bit channels.
func FromColorful(c colorful.Color) Color {
	r, g, b := c.Clamped().RGB255()
	return Color{R: r, G: g, B: b}
}

// RGBA implements color.Color. The result is always opaque.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}.RGBA()
}

func (c Color) Colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

// Hex returns the lowercase #rrggbb form.
func (c Color) Hex() string {
	return c.Colorful().Hex()
}

func (c Color) String() string {
	return fmt.Sprintf("(%d, %d, %d)", c.R, c.G, c.B)
}

// Distance is the Euclidean distance between a and b in RGB space.
// Channel deltas are taken in int so uint8 subtraction cannot wrap.
func Distance(a, b Color) float64 {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	return math.Sqrt(float64(dr*dr + dg*dg + db*db))
}

// ParseHex accepts #rgb and #rrggbb forms.
func ParseHex(s string) (Color, error) {
	c, err := colorful.Hex(expandShortHex(s))
	if err != nil {
		return Color{}, fmt.Errorf("parse hex color %q: %w", s, err)
	}
	return FromColorful(c), nil
}

func expandShortHex(s string) string {
	if len(s) != 4 || s[0] != '#' {
		return s
	}
	return string([]byte{'#', s[1], s[1], s[2], s[2], s[3], s[3]})
}
