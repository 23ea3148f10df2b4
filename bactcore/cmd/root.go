package cmd

import (
	"fmt"
	"os"
)

func Execute(args []string) {
	if len(args) < 1 {
		printUsage()
		os.Exit(exitUsage)
	}

	switch args[0] {
	case "filter":
		runFilter(args[1:])
	case "shape":
		runShape(args[1:])
	case "sites":
		runSites(args[1:])
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand: %s\n", args[0])
		printUsage()
		os.Exit(exitUsage)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "BactCore - alignment site filtering")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  bactcore <command> [options]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  filter     Keep alignment columns by valid-base threshold and polymorphism")
	fmt.Fprintln(os.Stderr, "  shape      Print alignment columns and records")
	fmt.Fprintln(os.Stderr, "  sites      Classify columns and write a per-column table and report")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Run 'bactcore <command> -h' for command-specific options.")
}
