// Command convert turns a Prompt/Result sample transcript into a JSONL dataset.
//
// Usage:
//
//	convert [source-path] [output-path]
//
// Missing arguments fall back to SAMPLES_SOURCE and SAMPLES_OUTPUT.
// Exit codes: 0 written, 1 write failure, 2 source not found, 3 no pairs.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/config"
	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/extractor"
	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel, stderr)

	src, out := cfg.SourcePath, cfg.OutputPath
	if len(args) > 0 {
		src = args[0]
	}
	if len(args) > 1 {
		out = args[1]
	}

	records, err := extractor.ExtractFile(src, extractor.Options{StopAtNextPrompt: cfg.StrictPairing})
	switch {
	case errors.Is(err, fs.ErrNotExist):
		fmt.Fprintln(stdout, "Source file not found:", src)
		return 2
	case errors.Is(err, extractor.ErrNoPairs):
		fmt.Fprintln(stdout, "No pairs found in", src)
		return 3
	case err != nil:
		logger.Error("failed to read source", "path", src, "error", err)
		return 1
	}

	nulls := 0
	for _, r := range records {
		if r.Result == nil {
			nulls++
		}
	}
	logger.Debug("pairs extracted", "path", src, "records", len(records), "unparsed", nulls)

	if err := extractor.WriteJSONLFile(out, records); err != nil {
		logger.Error("failed to write dataset", "path", out, "error", err)
		return 1
	}

	fmt.Fprintf(stdout, "Wrote %d items to %s\n", len(records), out)
	return 0
}
