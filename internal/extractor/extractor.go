package extractor

import (
	"bytes"
	"encoding/json"
	"os"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

const resultMarker = "\nResult:"

// ErrNoPairs is returned when a source yields no Prompt/Result pairs at all.
var ErrNoPairs = errors.New("no prompt/result pairs found")

var promptRe = regexp.MustCompile(`(?m)^Prompt:[ \t]*(.*)$`)

// Extract scans text for Prompt/Result pairs and returns one record per pair
// whose embedded JSON object is brace-balanced, in source order.
func Extract(text string) []Record {
	return ExtractWithOptions(text, Options{})
}

// ExtractWithOptions is Extract with a configurable search window.
func ExtractWithOptions(text string, opts Options) []Record {
	matches := promptRe.FindAllStringSubmatchIndex(text, -1)

	var records []Record
	for i, m := range matches {
		limit := len(text)
		if opts.StopAtNextPrompt && i+1 < len(matches) {
			limit = matches[i+1][0]
		}

		prompt := strings.TrimSpace(text[m[2]:m[3]])
		span, ok := locateJSON(text[:limit], m[1])
		if !ok {
			continue
		}
		records = append(records, Record{
			Prompt: prompt,
			Result: parseResult(span),
		})
	}
	return records
}

// ExtractFile reads the whole source file and extracts its records.
func ExtractFile(path string, opts Options) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read source")
	}
	records := ExtractWithOptions(string(data), opts)
	if len(records) == 0 {
		return nil, ErrNoPairs
	}
	return records, nil
}

// locateJSON finds the Result marker after from, then the first '{' after it,
// and returns the brace-balanced span starting there.
func locateJSON(text string, from int) (string, bool) {
	idx := strings.Index(text[from:], resultMarker)
	if idx < 0 {
		return "", false
	}
	resIdx := from + idx

	open := strings.IndexByte(text[resIdx:], '{')
	if open < 0 {
		return "", false
	}
	start := resIdx + open

	end, ok := matchBrace(text, start)
	if !ok {
		return "", false
	}
	return text[start:end], true
}

// matchBrace counts nesting depth from the '{' at start and returns the index
// just past the '}' that brings the depth back to zero. Braces are counted
// wherever they appear, including inside JSON strings.
func matchBrace(text string, start int) (int, bool) {
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

// parseResult returns the compacted JSON for span, retrying once with
// non-breaking spaces normalized. A nil result means both attempts failed.
func parseResult(span string) json.RawMessage {
	if raw, ok := compactObject(span); ok {
		return raw
	}
	if raw, ok := compactObject(strings.ReplaceAll(span, "\u00a0", " ")); ok {
		return raw
	}
	return nil
}

func compactObject(s string) (json.RawMessage, bool) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(s)); err != nil {
		return nil, false
	}
	return json.RawMessage(buf.Bytes()), true
}
