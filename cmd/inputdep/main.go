package main

import (
	"fmt"
	"os"

	"github.com/tum-i22/input-dependency-analyzer/cmd/inputdep/analyze"
	"github.com/tum-i22/input-dependency-analyzer/cmd/inputdep/stats"
	"github.com/tum-i22/input-dependency-analyzer/cmd/inputdep/tools"
)

const usage = `Input-dependency analyzer for Go programs
Usage:
  inputdep [tool] [options] <Go file path(s)>
Tools:
  - analyze: runs the whole-program input-dependency analysis
  - stats: prints the verdicts saved by a previous analyze run
Examples:
  Run the analysis: inputdep analyze -config config.yaml main.go
  Print saved results: inputdep stats -config config.yaml results.bin`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "error: expected subcommand\n%s\n", usage)
		os.Exit(2)
	}

	if snd := os.Args[1]; snd == "-help" || snd == "--help" {
		fmt.Println(usage)
		return
	}

	args := os.Args[2:]
	switch cmd := os.Args[1]; cmd {
	case "analyze":
		flags, err := tools.NewCommonFlags("analyze", args, analyze.Usage)
		if err != nil {
			errExit(err)
		}
		if err := analyze.Run(flags); err != nil {
			errExit(err)
		}
	case "stats":
		flags, err := tools.NewCommonFlags("stats", args, stats.Usage)
		if err != nil {
			errExit(err)
		}
		if err := stats.Run(flags); err != nil {
			errExit(err)
		}
	default:
		fmt.Fprintf(os.Stderr, "error: unknown subcommand %q\n%s\n", cmd, usage)
		os.Exit(2)
	}
}

func errExit(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
