package importer

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/store"
	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/validator"
)

// Batch is a dataset turned into store samples.
type Batch struct {
	Samples    []store.Sample
	Report     *validator.Report
	Duplicates int
}

// BuildBatch validates every JSONL line in data and converts each parsable
// line into a sample. Unparsable lines appear only in the report; repeated
// records (same prompt and result) are kept once.
func BuildBatch(data []byte, now time.Time) (*Batch, error) {
	b := &Batch{Report: &validator.Report{}}
	seen := make(map[string]bool)

	err := validator.EachLine(bytes.NewReader(data), func(n int, line []byte) {
		res := validator.ValidateLine(n, line)
		b.Report.Add(res)
		if res.Status == validator.StatusInvalidJSON {
			return
		}

		sm := buildSample(line, res, now)
		if seen[sm.ID.String()] {
			b.Duplicates++
			return
		}
		seen[sm.ID.String()] = true
		b.Samples = append(b.Samples, sm)
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan")
	}
	return b, nil
}

func buildSample(line []byte, res validator.LineResult, now time.Time) store.Sample {
	sm := store.Sample{
		Valid:      res.Status == validator.StatusOK,
		Reason:     res.Reason,
		ImportedAt: now,
	}
	if sm.Valid {
		sm.Reason = "ok"
	}

	// Lines that are JSON but not objects keep an empty prompt and no result.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err == nil {
		_ = json.Unmarshal(fields["prompt"], &sm.Prompt)
		sm.Result = compactOrNil(fields["result"])
		sm.Steps = stepRows(sm.Result)
	}
	sm.ID = store.SampleID(sm.Prompt, sm.Result)
	return sm
}

// stepRows pulls the object steps with a string op out of a result. Anything
// else in the steps list is left to the validation reason.
func stepRows(result json.RawMessage) []store.StepRow {
	var res struct {
		Steps []json.RawMessage `json:"steps"`
	}
	if len(result) == 0 || json.Unmarshal(result, &res) != nil {
		return nil
	}

	var rows []store.StepRow
	for i, raw := range res.Steps {
		var step struct {
			Op *string `json:"op"`
		}
		if json.Unmarshal(raw, &step) != nil || step.Op == nil {
			continue
		}
		rows = append(rows, store.StepRow{Index: i, Op: *step.Op, Params: compactOrNil(raw)})
	}
	return rows
}

func compactOrNil(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil
	}
	return buf.Bytes()
}
