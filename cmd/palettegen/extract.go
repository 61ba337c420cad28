package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/setanarut/palettegen"
	"github.com/setanarut/palettegen/utils"
	"github.com/urfave/cli/v3"
)

const defaultWorkers = 4

func extractCommand() *cli.Command {
	flags := append(paletteFlags(),
		&cli.BoolFlag{
			Name:    "dir",
			Usage:   "Process all png/jpg/jpeg files in the given directories",
			Aliases: []string{"d"},
		},
		&cli.StringFlag{
			Name:    "method",
			Usage:   "frequency, dominantcolor or kmeans",
			Aliases: []string{"m"},
			Value:   utils.PaletteMethodFrequency.String(),
		},
		&cli.BoolFlag{
			Name:  "sort",
			Usage: "Order each palette from darkest to brightest",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Print results as JSON",
		},
		&cli.StringFlag{
			Name:  "swatch",
			Usage: "Write a PNG swatch strip per image into this directory",
		},
		&cli.IntFlag{
			Name:    "workers",
			Usage:   "Number of images processed concurrently",
			Aliases: []string{"w"},
			Value:   defaultWorkers,
		},
	)
	return &cli.Command{
		Name:      "extract",
		Usage:     "Print the palette of one or more images",
		ArgsUsage: "<file|dir>...",
		Flags:     flags,
		Action:    runExtract,
	}
}

type extractJob struct {
	opt    palettegen.Options
	method utils.PaletteMethod
	sort   bool
	swatch string
}

type fileResult struct {
	Path     string              `json:"path"`
	Method   string              `json:"method"`
	Swatches []palettegen.Swatch `json:"swatches,omitempty"`
	Error    string              `json:"error,omitempty"`
}

func runExtract(ctx context.Context, c *cli.Command) error {
	logger := loggerFrom(ctx)
	args := c.Args().Slice()
	if len(args) == 0 {
		return cli.ShowSubcommandHelp(c)
	}

	method, err := utils.ParsePaletteMethod(c.String("method"))
	if err != nil {
		return err
	}
	job := extractJob{
		opt:    paletteOptions(c),
		method: method,
		sort:   c.Bool("sort"),
		swatch: c.String("swatch"),
	}
	if job.swatch != "" {
		if err := os.MkdirAll(job.swatch, 0o755); err != nil {
			return fmt.Errorf("create swatch dir: %w", err)
		}
	}

	paths := args
	if c.Bool("dir") {
		paths = collectImages(args, func(dir string, err error) {
			logger.Error("read directory", "dir", dir, "err", err)
		})
	}

	results := processImages(ctx, paths, job, c.Int("workers"))

	out := c.Root().Writer
	if c.Bool("json") {
		return writeJSONResults(out, results)
	}
	writeTextResults(out, results)

	for _, r := range results {
		if r.Error != "" {
			logger.Warn("image skipped", "path", r.Path, "err", r.Error)
		}
	}
	return nil
}

// collectImages lists the allowed image files directly inside each dir.
func collectImages(dirs []string, onErr func(string, error)) []string {
	var paths []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			onErr(dir, err)
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !utils.AllowedFile(entry.Name()) {
				continue
			}
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	return paths
}

// processImages runs at most workers extractions at once. Results keep the
// order of paths.
func processImages(ctx context.Context, paths []string, job extractJob, workers int) []fileResult {
	results := make([]fileResult, len(paths))
	if len(paths) == 0 {
		return results
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	workers = min(workers, len(paths))

	semaphore := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, p := range paths {
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if err := ctx.Err(); err != nil {
				results[i] = fileResult{Path: p, Method: job.method.String(), Error: err.Error()}
				return
			}
			results[i] = processImage(p, job)
		}(i, p)
	}
	wg.Wait()
	return results
}

func processImage(path string, job extractJob) fileResult {
	res := fileResult{Path: path, Method: job.method.String()}
	img, err := utils.ReadImage(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	if job.method == utils.PaletteMethodFrequency {
		p, err := palettegen.Extract(img, job.opt)
		if err != nil {
			res.Error = err.Error()
			return res
		}
		res.Swatches = p.Swatches
	} else {
		for _, c := range utils.ExtractPalette(img, job.opt, job.method) {
			res.Swatches = append(res.Swatches, swatchOf(c))
		}
	}

	if job.sort {
		sortSwatches(res.Swatches)
	}
	if job.swatch != "" {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + "_palette.png"
		if err := utils.SavePalette(colorsOf(res.Swatches), 64, filepath.Join(job.swatch, name)); err != nil {
			res.Error = fmt.Sprintf("save swatch: %v", err)
		}
	}
	return res
}

func swatchOf(c palettegen.Color) palettegen.Swatch {
	return palettegen.Swatch{Color: c, Hex: c.Hex(), R: int(c.R), G: int(c.G), B: int(c.B)}
}

func colorsOf(swatches []palettegen.Swatch) []palettegen.Color {
	out := make([]palettegen.Color, len(swatches))
	for i, s := range swatches {
		out[i] = s.Color
	}
	return out
}

// sortSwatches reorders swatches to match SortPaletteByBrightness.
func sortSwatches(swatches []palettegen.Swatch) {
	colors := colorsOf(swatches)
	utils.SortPaletteByBrightness(colors)
	byColor := make(map[palettegen.Color]palettegen.Swatch, len(swatches))
	for _, s := range swatches {
		byColor[s.Color] = s
	}
	for i, c := range colors {
		swatches[i] = byColor[c]
	}
}

func writeJSONResults(w io.Writer, results []fileResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func writeTextResults(w io.Writer, results []fileResult) {
	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(w, "❌ Failed processing '%s': %s\n", r.Path, r.Error)
			continue
		}
		fmt.Fprintf(w, "🟢 '%s' (%s, %d colours)\n", r.Path, r.Method, len(r.Swatches))
		for _, s := range r.Swatches {
			if s.Population > 0 {
				fmt.Fprintf(w, "  %s  rgb(%3d, %3d, %3d)  %5.1f%%\n", s.Hex, s.R, s.G, s.B, s.Share*100)
			} else {
				fmt.Fprintf(w, "  %s  rgb(%3d, %3d, %3d)\n", s.Hex, s.R, s.G, s.B)
			}
		}
	}
}
