package utils

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cenkalti/dominantcolor"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"github.com/setanarut/palettegen"
)

type PaletteMethod int

const (
	PaletteMethodFrequency PaletteMethod = iota
	PaletteMethodDominantColor
	PaletteMethodKMeans
)

// AllowedExtensions lists the upload formats accepted by AllowedFile.
var AllowedExtensions = []string{"png", "jpg", "jpeg"}

var ErrUnsupportedFile = errors.New("unsupported file type, expected .png, .jpg or .jpeg")

type weightedColor struct {
	Col    palettegen.Color
	Weight float64
}

func (m PaletteMethod) String() string {
	switch m {
	case PaletteMethodDominantColor:
		return "dominantcolor"
	case PaletteMethodKMeans:
		return "kmeans"
	default:
		return "frequency"
	}
}

func ParsePaletteMethod(s string) (PaletteMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "frequency":
		return PaletteMethodFrequency, nil
	case "dominantcolor", "dominant":
		return PaletteMethodDominantColor, nil
	case "kmeans":
		return PaletteMethodKMeans, nil
	default:
		return 0, fmt.Errorf("unknown palette method %q", s)
	}
}

// SortPaletteByBrightness orders colors from darkest to brightest by
// relative luminance. Equal luminance keeps the incoming order.
func SortPaletteByBrightness(palette []palettegen.Color) {
	slices.SortStableFunc(palette, func(a, b palettegen.Color) int {
		ya, yb := luminance(a), luminance(b)
		if ya < yb {
			return -1
		}
		if ya > yb {
			return 1
		}
		return 0
	})
}

func luminance(c palettegen.Color) float64 {
	r, g, b := c.Colorful().LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// ExtractFrequencyPalette is the exact-count palette: rank every pixel
// color, then drop near duplicates.
func ExtractFrequencyPalette(img image.Image, opt palettegen.Options) []palettegen.Color {
	p, err := palettegen.Extract(img, opt)
	if err != nil {
		return nil
	}
	return p.Colors()
}

func ExtractDominantPalette(img image.Image, opt palettegen.Options) []palettegen.Color {
	opt = opt.Normalized()
	nCandidates := max(24, opt.Limit*8)
	candidates := dominantcolor.FindWeight(img, nCandidates)

	weighted := make([]weightedColor, 0, len(candidates))
	for _, c := range candidates {
		w := c.Weight
		if w <= 0 {
			w = 1e-6
		}
		weighted = append(weighted, weightedColor{Col: palettegen.FromColor(c.RGBA), Weight: w})
	}
	return filterWeighted(weighted, opt)
}

func ExtractKMeansPalette(img image.Image, opt palettegen.Options) []palettegen.Color {
	opt = opt.Normalized()
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	// Subsample to keep kmeans tractable on large images.
	maxSamples := 12000
	step := 1
	if width*height > maxSamples {
		step = int(math.Sqrt(float64(width*height)/float64(maxSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, min(width*height, maxSamples))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			c := palettegen.FromColor(img.At(x, y))
			dataset = append(dataset, clusters.Coordinates{
				float64(c.R) / 255.0,
				float64(c.G) / 255.0,
				float64(c.B) / 255.0,
			})
		}
	}

	workK := min(max(opt.Limit*4, opt.Limit+2), len(dataset))
	if workK <= 0 {
		return nil
	}
	km := kmeans.New()
	cc, err := km.Partition(dataset, workK)
	if err != nil || len(cc) == 0 {
		return nil
	}

	weighted := make([]weightedColor, 0, len(cc))
	for _, c := range cc {
		if len(c.Observations) == 0 || len(c.Center) < 3 {
			continue
		}
		weighted = append(weighted, weightedColor{
			Col: palettegen.Color{
				R: unitToByte(c.Center[0]),
				G: unitToByte(c.Center[1]),
				B: unitToByte(c.Center[2]),
			},
			Weight: float64(len(c.Observations)),
		})
	}
	return filterWeighted(weighted, opt)
}

// filterWeighted ranks candidates by weight, heaviest first, and applies the
// same distance filter the frequency method uses.
func filterWeighted(cands []weightedColor, opt palettegen.Options) []palettegen.Color {
	slices.SortStableFunc(cands, func(a, b weightedColor) int {
		if a.Weight > b.Weight {
			return -1
		}
		if a.Weight < b.Weight {
			return 1
		}
		return 0
	})
	ranked := make([]palettegen.Color, len(cands))
	for i, c := range cands {
		ranked[i] = c.Col
	}
	return palettegen.Filter(ranked, opt.Threshold, opt.Limit)
}

func unitToByte(v float64) uint8 {
	return uint8(max(0, min(255, math.Round(v*255))))
}

func ExtractPalette(img image.Image, opt palettegen.Options, method PaletteMethod) []palettegen.Color {
	switch method {
	case PaletteMethodKMeans:
		p := ExtractKMeansPalette(img, opt)
		if len(p) != 0 {
			return p
		}
		log.Println("palette warning: kmeans returned empty palette, falling back to frequency")
		return ExtractFrequencyPalette(img, opt)
	case PaletteMethodDominantColor:
		p := ExtractDominantPalette(img, opt)
		if len(p) != 0 {
			return p
		}
		log.Println("palette warning: dominantcolor returned empty palette, falling back to frequency")
		return ExtractFrequencyPalette(img, opt)
	default:
		return ExtractFrequencyPalette(img, opt)
	}
}

// AllowedFile reports whether name carries one of AllowedExtensions.
// The check is case-insensitive and needs an explicit dot.
func AllowedFile(name string) bool {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return false
	}
	return slices.Contains(AllowedExtensions, strings.ToLower(name[i+1:]))
}

func DecodeImage(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func ReadImage(path string) (image.Image, error) {
	if !AllowedFile(path) {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFile)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer file.Close()
	return DecodeImage(file)
}

func SaveImage(img image.Image, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// PaletteImage draws palette as a strip of square tiles, left to right.
func PaletteImage(palette []palettegen.Color, tileSize int) (*image.RGBA, error) {
	if len(palette) == 0 {
		return nil, fmt.Errorf("empty palette")
	}
	if tileSize <= 0 {
		tileSize = 64
	}

	w := tileSize * len(palette)
	h := tileSize
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	for i, c := range palette {
		x0 := i * tileSize
		x1 := x0 + tileSize
		for y := range h {
			for x := x0; x < x1; x++ {
				img.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
			}
		}
	}
	return img, nil
}

func EncodePalette(w io.Writer, palette []palettegen.Color, tileSize int) error {
	img, err := PaletteImage(palette, tileSize)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

func SavePalette(palette []palettegen.Color, tileSize int, filename string) error {
	img, err := PaletteImage(palette, tileSize)
	if err != nil {
		return err
	}
	return SaveImage(img, filename)
}
