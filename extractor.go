package palettegen

import (
	"errors"
	"image"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/floats"
)

const (
	maxLimit        = 256
	minMaxDimension = 16
)

var ErrEmptyImage = errors.New("image has no pixels")

type Options struct {
	// Colors closer than this (inclusive) to an already kept color are dropped.
	// Zero or negative selects DefaultThreshold.
	Threshold float64 `json:"threshold"`
	// Upper bound on palette length, clamped to [1, 256].
	Limit int `json:"limit"`
	// How many ranked colors are offered to the filter.
	MaxRanked int `json:"maxRanked"`
	// When positive, larger images are fitted inside MaxDimension x MaxDimension
	// before counting. Resampling blends neighbouring pixels, so this trades
	// exact counts for speed on large inputs.
	MaxDimension int `json:"maxDimension"`
}

func DefaultOptions() Options {
	return Options{
		Threshold:    DefaultThreshold,
		Limit:        DefaultLimit,
		MaxRanked:    MaxRanked,
		MaxDimension: 0,
	}
}

// Normalized returns a copy of o with unset fields defaulted and the rest
// clamped into range.
func (o Options) Normalized() Options {
	n := o
	if n.Threshold <= 0 {
		n.Threshold = DefaultThreshold
	}
	if n.Limit <= 0 {
		n.Limit = DefaultLimit
	}
	n.Limit = min(n.Limit, maxLimit)
	if n.MaxRanked <= 0 {
		n.MaxRanked = MaxRanked
	}
	if n.MaxDimension < 0 {
		n.MaxDimension = 0
	}
	if n.MaxDimension > 0 {
		n.MaxDimension = max(n.MaxDimension, minMaxDimension)
	}
	return n
}

type Swatch struct {
	Color      Color   `json:"-"`
	Hex        string  `json:"hex"`
	R          int     `json:"r"`
	G          int     `json:"g"`
	B          int     `json:"b"`
	Population int     `json:"population"`
	Share      float64 `json:"share"`
	Coverage   float64 `json:"coverage"`
}

type Palette struct {
	Swatches       []Swatch `json:"swatches"`
	DistinctColors int      `json:"distinctColors"`
	SourceWidth    int      `json:"sourceWidth"`
	SourceHeight   int      `json:"sourceHeight"`
	SampleWidth    int      `json:"sampleWidth"`
	SampleHeight   int      `json:"sampleHeight"`
	Options        Options  `json:"options"`
}

// Colors returns the swatch colors in palette order.
func (p Palette) Colors() []Color {
	out := make([]Color, len(p.Swatches))
	for i, s := range p.Swatches {
		out[i] = s.Color
	}
	return out
}

// Extract ranks the pixels of img by frequency and filters the ranking into
// a palette of visually distinct colors.
func Extract(img image.Image, opt Options) (Palette, error) {
	opt = opt.Normalized()
	if img == nil || img.Bounds().Empty() {
		return Palette{}, ErrEmptyImage
	}
	src := img.Bounds()
	sample := downscale(img, opt.MaxDimension)

	pixels := Pixels(sample)
	counts := RankCounts(pixels, 0)

	ranked := make([]Color, min(len(counts), opt.MaxRanked))
	population := make(map[Color]int, len(ranked))
	for i := range ranked {
		ranked[i] = counts[i].Color
		population[ranked[i]] = counts[i].Count
	}
	colors := Filter(ranked, opt.Threshold, opt.Limit)

	total := float64(len(pixels))
	coverage := nearestCoverage(counts, colors, total)
	swatches := make([]Swatch, len(colors))
	for i, c := range colors {
		swatches[i] = Swatch{
			Color:      c,
			Hex:        c.Hex(),
			R:          int(c.R),
			G:          int(c.G),
			B:          int(c.B),
			Population: population[c],
			Share:      float64(population[c]) / total,
			Coverage:   coverage[i],
		}
	}

	sb := sample.Bounds()
	return Palette{
		Swatches:       swatches,
		DistinctColors: len(counts),
		SourceWidth:    src.Dx(),
		SourceHeight:   src.Dy(),
		SampleWidth:    sb.Dx(),
		SampleHeight:   sb.Dy(),
		Options:        opt,
	}, nil
}

func downscale(img image.Image, maxDimension int) image.Image {
	if maxDimension <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= maxDimension && b.Dy() <= maxDimension {
		return img
	}
	return imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
}

// nearestCoverage assigns every counted color to its closest palette entry
// and returns, per entry, the fraction of total pixels it absorbed.
func nearestCoverage(counts []ColorCount, palette []Color, total float64) []float64 {
	coverage := make([]float64, len(palette))
	if len(palette) == 0 || total == 0 {
		return coverage
	}
	vecs := make([][]float64, len(palette))
	for i, c := range palette {
		vecs[i] = channels(c)
	}
	v := make([]float64, 3)
	for _, cc := range counts {
		v[0], v[1], v[2] = float64(cc.Color.R), float64(cc.Color.G), float64(cc.Color.B)
		best := 0
		bestDist := floats.Distance(v, vecs[0], 2)
		for i := 1; i < len(vecs); i++ {
			if d := floats.Distance(v, vecs[i], 2); d < bestDist {
				best, bestDist = i, d
			}
		}
		coverage[best] += float64(cc.Count)
	}
	floats.Scale(1/total, coverage)
	return coverage
}

func channels(c Color) []float64 {
	return []float64{float64(c.R), float64(c.G), float64(c.B)}
}
