package extractor

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTranscript = `Some heading text

Prompt: Make a 40x20 plate, 5mm thick
Result:
{
  "steps": [
    {"op": "rectangle_center", "cx": 0, "cy": 0, "w": 40, "h": 20},
    {"op": "extrude", "depth": 5}
  ]
}

Prompt:   Draw a 10mm disc
Result: {"steps": [{"op": "circle_center", "diameter": 10}, {"op": "extrude", "depth": 2}]}
trailing notes
`

func TestExtract_PairsInOrder(t *testing.T) {
	records := Extract(sampleTranscript)
	require.Len(t, records, 2)

	assert.Equal(t, "Make a 40x20 plate, 5mm thick", records[0].Prompt)
	assert.JSONEq(t, `{"steps":[{"op":"rectangle_center","cx":0,"cy":0,"w":40,"h":20},{"op":"extrude","depth":5}]}`, string(records[0].Result))

	assert.Equal(t, "Draw a 10mm disc", records[1].Prompt)
	assert.JSONEq(t, `{"steps":[{"op":"circle_center","diameter":10},{"op":"extrude","depth":2}]}`, string(records[1].Result))
}

func TestExtract_ResultIsCompacted(t *testing.T) {
	records := Extract("Prompt: p\nResult: {\n  \"b\": 1,\n  \"a\": [1, 2]\n}\n")
	require.Len(t, records, 1)
	// Key order from the source is kept.
	assert.Equal(t, `{"b":1,"a":[1,2]}`, string(records[0].Result))
}

func TestExtract_UnterminatedJSONYieldsNoRecord(t *testing.T) {
	text := "Prompt: good\nResult: {\"steps\": []}\n\nPrompt: broken\nResult: {\"steps\": [{\"op\": \"extrude\"}\n"
	records := Extract(text)
	require.Len(t, records, 1)
	assert.Equal(t, "good", records[0].Prompt)
}

func TestExtract_InvalidJSONYieldsNullResult(t *testing.T) {
	records := Extract("Prompt: bad\nResult: {steps: [1, 2,]}\n")
	require.Len(t, records, 1)
	assert.Equal(t, "bad", records[0].Prompt)
	assert.Nil(t, records[0].Result)
}

func TestExtract_NonBreakingSpaceFallback(t *testing.T) {
	text := "Prompt: nbsp\nResult: {\"steps\":\u00a0[{\"op\": \"extrude\",\u00a0\"depth\": 3}]}\n"
	records := Extract(text)
	require.Len(t, records, 1)
	assert.JSONEq(t, `{"steps":[{"op":"extrude","depth":3}]}`, string(records[0].Result))
}

func TestExtract_MissingResultMarkerSkipsPrompt(t *testing.T) {
	records := Extract("Prompt: lonely\nno result here\n")
	assert.Empty(t, records)
}

func TestExtract_NoBraceSkipsPrompt(t *testing.T) {
	records := Extract("Prompt: p\nResult: not json at all\n")
	assert.Empty(t, records)
}

func TestExtract_PromptMustStartLine(t *testing.T) {
	records := Extract("  Prompt: indented\nResult: {\"steps\": []}\nsee Prompt: inline\n")
	assert.Empty(t, records)
}

func TestExtract_MarkerIsCaseSensitive(t *testing.T) {
	records := Extract("prompt: lower\nResult: {\"steps\": []}\n")
	assert.Empty(t, records)
}

func TestExtract_WhitespaceOnlyPromptRetained(t *testing.T) {
	records := Extract("Prompt:    \nResult: {\"steps\": []}\n")
	require.Len(t, records, 1)
	assert.Equal(t, "", records[0].Prompt)
}

func TestExtract_UnboundedSearchAttachesDownstreamResult(t *testing.T) {
	text := "Prompt: first\nno result\nPrompt: second\nResult: {\"n\": 2}\n"

	records := Extract(text)
	require.Len(t, records, 2)
	assert.Equal(t, "first", records[0].Prompt)
	assert.JSONEq(t, `{"n":2}`, string(records[0].Result))
	assert.Equal(t, "second", records[1].Prompt)
	assert.JSONEq(t, `{"n":2}`, string(records[1].Result))
}

func TestExtractWithOptions_StopAtNextPrompt(t *testing.T) {
	text := "Prompt: first\nno result\nPrompt: second\nResult: {\"n\": 2}\n"

	records := ExtractWithOptions(text, Options{StopAtNextPrompt: true})
	require.Len(t, records, 1)
	assert.Equal(t, "second", records[0].Prompt)
}

func TestExtract_BracesInsideStringsAreCounted(t *testing.T) {
	// The scan is purely structural, so the '{' inside the string leaves the
	// span open until a later '}' closes it.
	text := "Prompt: p\nResult: {\"note\": \"{\"}\nmore }\n"
	records := Extract(text)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].Result)
}

func TestExtract_CRLF(t *testing.T) {
	records := Extract("Prompt: windows\r\nResult: {\"steps\": []}\r\n")
	require.Len(t, records, 1)
	assert.Equal(t, "windows", records[0].Prompt)
}

func TestExtract_Idempotent(t *testing.T) {
	first := Extract(sampleTranscript)
	second := Extract(sampleTranscript)
	assert.Equal(t, first, second)
}

func TestExtractFile_NotFound(t *testing.T) {
	_, err := ExtractFile(filepath.Join(t.TempDir(), "missing.txt"), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestExtractFile_NoPairs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Sample.txt")
	require.NoError(t, os.WriteFile(path, []byte("nothing to see\n"), 0o644))

	_, err := ExtractFile(path, Options{})
	assert.ErrorIs(t, err, ErrNoPairs)
}

func TestExtractFile_Success(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Sample.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleTranscript), 0o644))

	records, err := ExtractFile(path, Options{})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestWriteJSONL(t *testing.T) {
	records := []Record{
		{Prompt: "Plaque <30°>", Result: []byte(`{"steps":[]}`)},
		{Prompt: "broken", Result: nil},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteJSONL(&buf, records))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"prompt":"Plaque <30°>","result":{"steps":[]}}`, lines[0])
	assert.Equal(t, `{"prompt":"broken","result":null}`, lines[1])
}

func TestWriteJSONLFile_CreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.jsonl")
	require.NoError(t, WriteJSONLFile(path, Extract(sampleTranscript)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}
