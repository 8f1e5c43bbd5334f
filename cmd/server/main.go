package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "ventas",
		Usage: "point of sale API for a small food stand",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "env file to load before reading the environment (repeatable)",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			exportCommand(),
		},
	}
}
