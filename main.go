package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rohanthewiz/logger"
	"toolcheck/config"
	"toolcheck/providers"
	"toolcheck/roundtrip"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run parses args, performs the round trip and returns the process exit code
func run(args []string, out io.Writer) int {
	cfg := config.Load()

	fs := flag.NewFlagSet("toolcheck", flag.ContinueOnError)
	fs.SetOutput(out)
	var (
		baseURL   = fs.String("base-url", cfg.BaseURL, "Messages endpoint base URL")
		model     = fs.String("model", cfg.Model, "Model to request")
		timeout   = fs.Float64("timeout", cfg.Timeout.Seconds(), "HTTP timeout seconds")
		maxTokens = fs.Int("max-tokens", cfg.MaxTokens, "max_tokens for both requests")
		verbose   = fs.Bool("verbose", false, "Enable verbose logging")
	)
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg.BaseURL = *baseURL
	cfg.Model = *model
	cfg.Timeout = config.SecondsToDuration(*timeout)
	cfg.MaxTokens = *maxTokens
	cfg.Verbose = *verbose

	if cfg.Verbose {
		logger.SetLogLevel("debug")
	}

	client := providers.NewClient(cfg.BaseURL, cfg.Timeout)
	logger.Debug("Starting tool-calling roundtrip", "url", client.URL(), "model", cfg.Model,
		"timeout", cfg.Timeout.String())

	checker := roundtrip.NewChecker(client, cfg.Model, cfg.MaxTokens, out)

	if _, err := checker.Run(context.Background()); err != nil {
		var shapeErr *roundtrip.ShapeError
		if !errors.As(err, &shapeErr) {
			// Shape failures have already been reported by the checker
			logger.LogErr(err, "roundtrip aborted")
			_, _ = fmt.Fprintf(out, "FAIL: %v\n", err)
		}
		return 1
	}
	return 0
}
