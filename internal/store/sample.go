package store

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// sampleNamespace scopes deterministic sample IDs.
var sampleNamespace = uuid.MustParse("6f1c2a4e-3b7d-5e9a-8c0f-2d4b6a8e1c3f")

// Sample is one imported prompt/result record plus its validation outcome.
type Sample struct {
	ID         uuid.UUID       `json:"id"`
	Prompt     string          `json:"prompt"`
	Result     json.RawMessage `json:"result"` // nil when the source JSON could not be parsed
	Valid      bool            `json:"valid"`
	Reason     string          `json:"reason"`
	Steps      []StepRow       `json:"steps,omitempty"`
	ImportedAt time.Time       `json:"imported_at"`
}

// StepRow is one operation from a sample's result.steps.
type StepRow struct {
	Index  int             `json:"index"`
	Op     string          `json:"op"`
	Params json.RawMessage `json:"params"`
}

// SampleID derives a stable ID from the record content, so re-importing an
// unchanged dataset produces the same IDs.
func SampleID(prompt string, result json.RawMessage) uuid.UUID {
	data := make([]byte, 0, len(prompt)+1+len(result))
	data = append(data, prompt...)
	data = append(data, '\n')
	data = append(data, result...)
	return uuid.NewSHA1(sampleNamespace, data)
}

// nullableJSON maps an empty raw message to SQL NULL.
func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// withoutNUL returns a copy of sm with NUL characters removed from its text
// and JSON. Postgres TEXT and JSONB reject them. The ID is left as derived
// from the original content.
func withoutNUL(sm Sample) Sample {
	sm.Prompt = strings.ReplaceAll(sm.Prompt, "\x00", "")
	sm.Reason = strings.ReplaceAll(sm.Reason, "\x00", "")
	sm.Result = stripJSONNUL(sm.Result)
	if len(sm.Steps) > 0 {
		steps := make([]StepRow, len(sm.Steps))
		for i, st := range sm.Steps {
			st.Op = strings.ReplaceAll(st.Op, "\x00", "")
			st.Params = stripJSONNUL(st.Params)
			steps[i] = st
		}
		sm.Steps = steps
	}
	return sm
}

// stripJSONNUL drops \u0000 escapes inside JSON strings. An escaped
// backslash followed by the text u0000 is kept.
func stripJSONNUL(raw json.RawMessage) json.RawMessage {
	if !bytes.Contains(raw, []byte(`\u0000`)) {
		return raw
	}
	out := make([]byte, 0, len(raw))
	inString := false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if !inString {
			if c == '"' {
				inString = true
			}
			out = append(out, c)
			continue
		}
		switch {
		case c == '"':
			inString = false
			out = append(out, c)
		case c == '\\' && i+5 < len(raw) && string(raw[i+1:i+6]) == "u0000":
			i += 5
		case c == '\\' && i+1 < len(raw):
			out = append(out, c, raw[i+1])
			i++
		default:
			out = append(out, c)
		}
	}
	return out
}
