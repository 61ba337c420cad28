package palettegen

import (
	"slices"
	"testing"
)

func TestFilter(t *testing.T) {
	t.Parallel()

	red := Color{R: 255}
	green := Color{G: 255}
	nearRed := Color{R: 250, G: 5, B: 2}

	tests := []struct {
		name      string
		ranked    []Color
		threshold float64
		limit     int
		want      []Color
	}{
		{
			name:      "single color",
			ranked:    []Color{red},
			threshold: DefaultThreshold,
			limit:     DefaultLimit,
			want:      []Color{red},
		},
		{
			name:      "near duplicate rejected",
			ranked:    []Color{red, green, nearRed},
			threshold: DefaultThreshold,
			limit:     DefaultLimit,
			want:      []Color{red, green},
		},
		{
			name:      "distance equal to threshold is similar",
			ranked:    []Color{{}, {R: 40}},
			threshold: 40,
			limit:     DefaultLimit,
			want:      []Color{{}},
		},
		{
			name:      "just past threshold is distinct",
			ranked:    []Color{{}, {R: 41}},
			threshold: 40,
			limit:     DefaultLimit,
			want:      []Color{{}, {R: 41}},
		},
		{
			name:      "boundary on a diagonal",
			ranked:    []Color{{}, {R: 24, G: 32}},
			threshold: 40,
			limit:     DefaultLimit,
			want:      []Color{{}},
		},
		{
			name:      "compared against every kept color",
			ranked:    []Color{{}, {R: 100}, {R: 130}, {R: 60}},
			threshold: 40,
			limit:     DefaultLimit,
			want:      []Color{{}, {R: 100}},
		},
		{
			name:      "limit stops the scan",
			ranked:    []Color{{}, {R: 100}, {R: 200}},
			threshold: 40,
			limit:     2,
			want:      []Color{{}, {R: 100}},
		},
		{
			name:      "zero limit",
			ranked:    []Color{red},
			threshold: 40,
			limit:     0,
			want:      []Color{},
		},
		{
			name:      "empty input",
			ranked:    nil,
			threshold: 40,
			limit:     10,
			want:      []Color{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Filter(tc.ranked, tc.threshold, tc.limit)
			if !slices.Equal(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestFilterScenarioElevenDistinctColors(t *testing.T) {
	t.Parallel()

	// Corners and edge midpoints of the RGB cube are all > 40 apart.
	colors := []Color{
		{0, 0, 0}, {255, 0, 0}, {0, 255, 0}, {0, 0, 255},
		{255, 255, 0}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
		{128, 0, 0}, {0, 128, 0}, {0, 0, 128},
	}
	ranked := Rank(colors)
	if !slices.Equal(ranked, colors) {
		t.Fatalf("expected tied colors in scan order, got %v", ranked)
	}

	got := FilterDefault(ranked)
	if len(got) != DefaultLimit {
		t.Fatalf("expected %d colors, got %d", DefaultLimit, len(got))
	}
	if !slices.Equal(got, colors[:DefaultLimit]) {
		t.Fatalf("expected the last scanned color to be dropped, got %v", got)
	}
}

func TestFilterProperties(t *testing.T) {
	t.Parallel()

	for _, seed := range []uint64{3, 11, 99} {
		for _, threshold := range []float64{10, 40, 90} {
			ranked := Rank(randomPixels(seed, 4000, 600))
			got := Filter(ranked, threshold, DefaultLimit)

			if len(got) > DefaultLimit {
				t.Fatalf("seed %d: palette of %d exceeds limit", seed, len(got))
			}
			for i := range got {
				for j := i + 1; j < len(got); j++ {
					if d := Distance(got[i], got[j]); d <= threshold {
						t.Fatalf("seed %d: %v and %v are %.2f apart (threshold %.0f)", seed, got[i], got[j], d, threshold)
					}
				}
			}
			if !isSubsequence(got, ranked) {
				t.Fatalf("seed %d: palette %v is not a subsequence of the ranking", seed, got)
			}
			if again := Filter(got, threshold, DefaultLimit); !slices.Equal(again, got) {
				t.Fatalf("seed %d: filter not idempotent: %v then %v", seed, got, again)
			}
		}
	}
}

func TestRankThenFilterScenarios(t *testing.T) {
	t.Parallel()

	red := Color{R: 255}
	if got := FilterDefault(Rank(repeat(red, 100))); !slices.Equal(got, []Color{red}) {
		t.Fatalf("single color image: got %v", got)
	}

	var pixels []Color
	pixels = append(pixels, repeat(red, 50)...)
	pixels = append(pixels, repeat(Color{G: 255}, 30)...)
	pixels = append(pixels, repeat(Color{R: 250, G: 5, B: 2}, 20)...)
	want := []Color{red, {G: 255}}
	if got := FilterDefault(Rank(pixels)); !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func isSubsequence(sub, seq []Color) bool {
	i := 0
	for _, c := range seq {
		if i < len(sub) && sub[i] == c {
			i++
		}
	}
	return i == len(sub)
}
