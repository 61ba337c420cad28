package main

import (
	"context"

	"github.com/setanarut/palettegen/web"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	flags := append(paletteFlags(),
		&cli.StringFlag{
			Name:    "addr",
			Usage:   "Listen address",
			Value:   ":8080",
			Sources: cli.EnvVars("PALETTEGEN_ADDR"),
		},
		&cli.Int64Flag{
			Name:  "max-upload",
			Usage: "Maximum upload size in bytes",
			Value: web.DefaultMaxUploadBytes,
		},
	)
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the upload web page",
		Flags:  flags,
		Action: runServe,
	}
}

func runServe(ctx context.Context, c *cli.Command) error {
	srv := web.NewServer(loggerFrom(ctx), web.Options{
		Palette:        paletteOptions(c),
		MaxUploadBytes: c.Int64("max-upload"),
	})
	return srv.ListenAndServe(ctx, c.String("addr"))
}
