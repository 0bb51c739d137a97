// Command validate checks a JSONL sample dataset against the step schema.
//
// Usage:
//
//	validate <jsonl-path>
//
// Exit codes: 0 all lines valid, 1 any invalid or unparsable line,
// 2 missing arguments, 3 file not found.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/config"
	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/logging"
	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/validator"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel, stderr)

	if len(args) < 1 {
		fmt.Fprintln(stdout, "Usage: validate samples.jsonl")
		return 2
	}
	path := args[0]

	report, err := validator.CheckFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(stdout, "File not found:", path)
		return 3
	}
	if report != nil {
		if perr := report.Print(stdout); perr != nil {
			logger.Error("failed to write report", "error", perr)
			return 1
		}
	}
	if err != nil {
		// A scan error still leaves the lines read so far in the report.
		logger.Error("failed to read dataset", "path", path, "error", err)
		return 1
	}

	logger.Debug("dataset checked",
		"path", path,
		"valid", report.Valid,
		"invalid", report.Invalid,
		"unparsable", report.Unparsable,
	)
	if !report.OK() {
		return 1
	}
	return 0
}
