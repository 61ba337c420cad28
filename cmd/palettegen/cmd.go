package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/setanarut/palettegen"
	"github.com/urfave/cli/v3"
)

type loggerKey struct{}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "palettegen",
		Usage: "Extract the most common distinct colours from images",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn or error",
				Value:   "info",
				Sources: cli.EnvVars("PALETTEGEN_LOG_LEVEL"),
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			level, err := parseLevel(c.String("log-level"))
			if err != nil {
				return ctx, err
			}
			logger := newLogger(c.Root().ErrWriter, level)
			return context.WithValue(ctx, loggerKey{}, logger), nil
		},
		Commands: []*cli.Command{
			extractCommand(),
			serveCommand(),
		},
	}
}

// paletteFlags are shared by every command that builds palettes.
func paletteFlags() []cli.Flag {
	return []cli.Flag{
		&cli.FloatFlag{
			Name:    "threshold",
			Usage:   "Colours at or below this RGB distance from a kept colour are dropped",
			Aliases: []string{"t"},
			Value:   palettegen.DefaultThreshold,
		},
		&cli.IntFlag{
			Name:    "limit",
			Usage:   "Maximum number of colours in the palette",
			Aliases: []string{"n"},
			Value:   palettegen.DefaultLimit,
		},
		&cli.IntFlag{
			Name:  "max-dimension",
			Usage: "Downscale images larger than this before counting (0 keeps full resolution)",
			Value: 0,
		},
	}
}

func paletteOptions(c *cli.Command) palettegen.Options {
	return palettegen.Options{
		Threshold:    c.Float("threshold"),
		Limit:        c.Int("limit"),
		MaxRanked:    palettegen.MaxRanked,
		MaxDimension: c.Int("max-dimension"),
	}.Normalized()
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

func loggerFrom(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
