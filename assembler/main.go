// main.go - asm command line front end

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/urfave/cli.v2"
)

func main() {
	app := &cli.App{
		Name:  "asm",
		Usage: "assemble Z80 source into a loadable binary image",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "in",
				Aliases: []string{"i"},
				Usage:   "input source file",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "output binary file",
			},
			&cli.StringFlag{
				Name:  "lst",
				Usage: "write listing file",
			},
			&cli.StringFlag{
				Name:  "sym",
				Usage: "write symbol table file",
			},
			&cli.StringFlag{
				Name:  "dump",
				Usage: "write hex dump file",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "stdout report: summary or dump",
				Value: "summary",
			},
		},
		Action: runAssembler,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runAssembler(c *cli.Context) error {
	inPath := c.String("in")
	if inPath == "" {
		cli.ShowAppHelp(c)
		return cli.Exit("asm: no input file", 1)
	}

	source, err := os.ReadFile(inPath)
	if err != nil {
		return cli.Exit(fmt.Sprintf("asm: %v", err), 1)
	}

	baseDir := filepath.Dir(inPath)
	result := Assemble(string(source), Options{
		Filename: filepath.Base(inPath),
		IncludeResolver: func(path string) (IncludeFile, bool) {
			data, err := os.ReadFile(filepath.Join(baseDir, path))
			if err != nil {
				return IncludeFile{}, false
			}
			return IncludeFile{Filename: path, Source: string(data)}, true
		},
	})

	if !result.OK {
		for _, diag := range result.Diagnostics {
			fmt.Fprintln(os.Stderr, diag.String())
		}
		return cli.Exit("", 1)
	}

	if outPath := c.String("out"); outPath != "" {
		if err := os.WriteFile(outPath, result.Binary, 0o644); err != nil {
			return cli.Exit(fmt.Sprintf("asm: %v", err), 1)
		}
	}
	if lstPath := c.String("lst"); lstPath != "" {
		if err := os.WriteFile(lstPath, []byte(result.Lst), 0o644); err != nil {
			return cli.Exit(fmt.Sprintf("asm: %v", err), 1)
		}
	}
	if symPath := c.String("sym"); symPath != "" {
		if err := os.WriteFile(symPath, []byte(result.Sym), 0o644); err != nil {
			return cli.Exit(fmt.Sprintf("asm: %v", err), 1)
		}
	}
	if dumpPath := c.String("dump"); dumpPath != "" {
		if err := os.WriteFile(dumpPath, []byte(result.Dump), 0o644); err != nil {
			return cli.Exit(fmt.Sprintf("asm: %v", err), 1)
		}
	}

	switch c.String("format") {
	case "dump":
		fmt.Print(result.Dump)
	default:
		fmt.Printf("origin 0x%04X entry 0x%04X size %d bytes\n",
			result.Origin, result.Entry, len(result.Binary))
	}
	return nil
}
