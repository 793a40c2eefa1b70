package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/okian/claimmix/internal/decomposecli"
)

// Default configuration constants.
const (
	defaultTimeout = 10 * time.Second
	runTimeout     = 1 * time.Minute
)

func main() {
	// CLAIMMIX_URL in .env or the environment provides the default -url.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		os.Stderr.WriteString("failed to load .env: " + err.Error() + "\n")
		os.Exit(1)
	}

	var (
		input   = flag.String("input", "", `Scenario file (.json, .yaml, .yml) or "-" for JSON on stdin`)
		baseURL = flag.String("url", os.Getenv("CLAIMMIX_URL"), "Base URL of a running server; runs in-process when empty")
		sample  = flag.Bool("sample", false, "Use the built-in five-line auto scenario")
		detail  = flag.Bool("detail", false, "Include both substitution paths in the result")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		decomposecli.ShowHelp()
		return
	}

	if err := decomposecli.SetupLogging(os.Stderr, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	config := &decomposecli.Config{
		Input:   *input,
		BaseURL: *baseURL,
		Sample:  *sample,
		Detail:  *detail,
		Timeout: *timeout,
		Verbose: *verbose,
	}

	if err := decomposecli.Run(ctx, config, os.Stdin, os.Stdout); err != nil {
		os.Stderr.WriteString("Decomposition failed: " + err.Error() + "\n")
		if errors.Is(err, decomposecli.ErrNoInput) {
			os.Stderr.WriteString("Pass -input <file>, -input - or -sample. See -help.\n")
		}
		cancel()
		os.Exit(1)
	}
}
