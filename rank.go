package palettegen

import (
	"image"
	"image/color"
	"slices"
)

// MaxRanked bounds the ranked list handed to Filter. Only the first few
// entries ever survive filtering, so the tail is dropped early.
const MaxRanked = 10000

// ColorCount is a distinct color and the number of pixels that carry it.
type ColorCount struct {
	Color Color
	Count int
}

// Rank returns the distinct colors of pixels ordered by descending
// frequency, capped at MaxRanked. Colors with equal counts keep the order
// in which they were first seen.
func Rank(pixels []Color) []Color {
	counts := RankCounts(pixels, MaxRanked)
	out := make([]Color, len(counts))
	for i, cc := range counts {
		out[i] = cc.Color
	}
	return out
}

// RankCounts is Rank with the counts attached and a caller-chosen cap.
// A limit <= 0 disables the cap.
func RankCounts(pixels []Color, limit int) []ColorCount {
	index := make(map[Color]int)
	var counts []ColorCount
	for _, p := range pixels {
		if i, ok := index[p]; ok {
			counts[i].Count++
			continue
		}
		index[p] = len(counts)
		counts = append(counts, ColorCount{Color: p, Count: 1})
	}

	// Stable sort keeps first-seen order between equal counts.
	slices.SortStableFunc(counts, func(a, b ColorCount) int {
		return b.Count - a.Count
	})

	if limit > 0 && len(counts) > limit {
		counts = counts[:limit:limit]
	}
	return counts
}

// Pixels flattens img into a row-major pixel buffer with alpha dropped.
func Pixels(img image.Image) []Color {
	b := img.Bounds()
	if b.Empty() {
		return nil
	}
	out := make([]Color, 0, b.Dx()*b.Dy())

	switch src := img.(type) {
	case *image.NRGBA:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, y):]
			for x := 0; x < b.Dx(); x++ {
				o := x * 4
				out = append(out, Color{R: row[o], G: row[o+1], B: row[o+2]})
			}
		}
	case *image.RGBA:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, y):]
			for x := 0; x < b.Dx(); x++ {
				o := x * 4
				out = append(out, FromColor(color.RGBA{R: row[o], G: row[o+1], B: row[o+2], A: row[o+3]}))
			}
		}
	default:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				out = append(out, FromColor(img.At(x, y)))
			}
		}
	}
	return out
}
