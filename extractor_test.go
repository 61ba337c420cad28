package palettegen

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

func fillRect(img *image.NRGBA, rect image.Rectangle, fill color.NRGBA) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.SetNRGBA(x, y, fill)
		}
	}
}

func TestExtractBands(t *testing.T) {
	t.Parallel()

	img := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	fillRect(img, image.Rect(0, 0, 100, 50), color.NRGBA{R: 198, G: 48, B: 59, A: 255})
	fillRect(img, image.Rect(0, 50, 100, 80), color.NRGBA{R: 24, G: 144, B: 242, A: 255})
	fillRect(img, image.Rect(0, 80, 100, 95), color.NRGBA{R: 242, G: 188, B: 12, A: 255})
	// Near-duplicate of the dominant red.
	fillRect(img, image.Rect(0, 95, 100, 100), color.NRGBA{R: 200, G: 50, B: 60, A: 255})

	p, err := Extract(img, Options{})
	if err != nil {
		t.Fatalf("extract palette: %v", err)
	}

	if len(p.Swatches) != 3 {
		t.Fatalf("expected 3 swatches, got %d: %+v", len(p.Swatches), p.Swatches)
	}
	want := []string{"#c6303b", "#1890f2", "#f2bc0c"}
	for i, s := range p.Swatches {
		if s.Hex != want[i] {
			t.Errorf("swatch %d: expected %s, got %s", i, want[i], s.Hex)
		}
	}
	if p.Swatches[0].Population != 5000 {
		t.Errorf("expected dominant population 5000, got %d", p.Swatches[0].Population)
	}
	if p.Swatches[0].Share != 0.5 {
		t.Errorf("expected dominant share 0.5, got %v", p.Swatches[0].Share)
	}
	// The near-duplicate band is absorbed by the dominant swatch.
	if math.Abs(p.Swatches[0].Coverage-0.55) > 1e-9 {
		t.Errorf("expected dominant coverage 0.55, got %v", p.Swatches[0].Coverage)
	}
	var total float64
	for _, s := range p.Swatches {
		total += s.Coverage
	}
	if math.Abs(total-1) > 1e-9 {
		t.Errorf("expected coverage to sum to 1, got %v", total)
	}
	if p.DistinctColors != 4 {
		t.Errorf("expected 4 distinct colors, got %d", p.DistinctColors)
	}
	if p.SampleWidth != 100 || p.SampleHeight != 100 {
		t.Errorf("expected no downscale, got %dx%d", p.SampleWidth, p.SampleHeight)
	}
}

func TestExtractDownscales(t *testing.T) {
	t.Parallel()

	img := image.NewNRGBA(image.Rect(0, 0, 400, 200))
	fillRect(img, img.Bounds(), color.NRGBA{R: 10, G: 200, B: 90, A: 255})

	p, err := Extract(img, Options{MaxDimension: 64})
	if err != nil {
		t.Fatalf("extract palette: %v", err)
	}
	if p.SourceWidth != 400 || p.SourceHeight != 200 {
		t.Fatalf("unexpected source dimensions %dx%d", p.SourceWidth, p.SourceHeight)
	}
	if p.SampleWidth != 64 || p.SampleHeight != 32 {
		t.Fatalf("expected 64x32 sample, got %dx%d", p.SampleWidth, p.SampleHeight)
	}
	if len(p.Swatches) != 1 || p.Swatches[0].Color != (Color{R: 10, G: 200, B: 90}) {
		t.Fatalf("expected single green swatch, got %+v", p.Swatches)
	}
}

func TestExtractRejectsEmptyImage(t *testing.T) {
	t.Parallel()

	_, err := Extract(image.NewNRGBA(image.Rectangle{}), DefaultOptions())
	if !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}
}

func TestOptionsNormalized(t *testing.T) {
	t.Parallel()

	n := Options{}.Normalized()
	if n != DefaultOptions() {
		t.Fatalf("expected zero options to normalize to defaults, got %+v", n)
	}

	n = Options{Threshold: 12.5, Limit: 1000, MaxRanked: 50, MaxDimension: 3}.Normalized()
	if n.Threshold != 12.5 || n.Limit != maxLimit || n.MaxRanked != 50 || n.MaxDimension != minMaxDimension {
		t.Fatalf("unexpected normalization %+v", n)
	}
}

func TestExtractLimit(t *testing.T) {
	t.Parallel()

	img := image.NewNRGBA(image.Rect(0, 0, 11, 1))
	for x := 0; x < 11; x++ {
		img.SetNRGBA(x, 0, color.NRGBA{R: uint8(x * 25), A: 255})
	}

	p, err := Extract(img, Options{Threshold: 20, Limit: 4})
	if err != nil {
		t.Fatalf("extract palette: %v", err)
	}
	colors := p.Colors()
	if len(colors) != 4 {
		t.Fatalf("expected 4 colors, got %v", colors)
	}
	for i, c := range colors {
		if c.R != uint8(i*25) {
			t.Fatalf("expected scan order for tied colors, got %v", colors)
		}
	}
}
