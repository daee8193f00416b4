// main.go - PC-G815 emulator entry point

package main

import (
	"fmt"
	"os"

	"gopkg.in/urfave/cli.v2"
)

func main() {
	app := &cli.App{
		Name:  "g815",
		Usage: "PC-G815 pocket computer emulator",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "program",
				Aliases: []string{"p"},
				Usage:   "binary image to load",
			},
			&cli.IntFlag{
				Name:  "origin",
				Usage: "load address for --program",
			},
			&cli.IntFlag{
				Name:  "entry",
				Usage: "entry point (defaults to the load address)",
				Value: -1,
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "directory backing file statements",
				Value: ".",
			},
			&cli.StringFlag{
				Name:  "snapshot",
				Usage: "snapshot file to restore at startup",
			},
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "run the LCD front end instead of the line monitor",
			},
		},
		Action: runEmulator,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runEmulator(c *cli.Context) error {
	machine := NewMachine()
	machine.SetBaseDir(c.String("dir"))
	machine.Reset(true)

	if path := c.String("snapshot"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cli.Exit(fmt.Sprintf("g815: %v", err), 1)
		}
		snap, err := UnmarshalSnapshot(data)
		if err != nil {
			return cli.Exit(fmt.Sprintf("g815: %v", err), 1)
		}
		if err := machine.LoadSnapshot(snap); err != nil {
			return cli.Exit(fmt.Sprintf("g815: %v", err), 1)
		}
	}

	if path := c.String("program"); path != "" {
		image, err := os.ReadFile(path)
		if err != nil {
			return cli.Exit(fmt.Sprintf("g815: %v", err), 1)
		}
		origin := uint16(c.Int("origin"))
		if err := machine.LoadProgram(image, origin); err != nil {
			return cli.Exit(fmt.Sprintf("g815: %v", err), 1)
		}
		entry := c.Int("entry")
		if entry < 0 {
			entry = int(origin)
		}
		machine.SetProgramCounter(uint16(entry))
	}

	if c.Bool("tui") {
		return RunLcdTUI(machine)
	}
	return NewTerminalHost(machine).Run()
}
