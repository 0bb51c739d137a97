package validator

import (
	"encoding/json"
	"fmt"
)

const reasonOK = "ok"

// Validate checks a decoded record against the step schema. It stops at the
// first problem and returns a human-readable reason; ok records return
// (true, "ok").
func Validate(record any) (bool, string) {
	obj, ok := record.(map[string]any)
	if !ok {
		return false, "Missing prompt or result"
	}
	_, hasPrompt := obj["prompt"]
	result, hasResult := obj["result"]
	if !hasPrompt || !hasResult {
		return false, "Missing prompt or result"
	}

	res, ok := result.(map[string]any)
	if !ok {
		return false, "result is not an object"
	}

	steps, ok := res["steps"].([]any)
	if !ok {
		return false, "steps missing or not a list"
	}

	for i, s := range steps {
		step, ok := s.(map[string]any)
		if !ok {
			return false, fmt.Sprintf("step %d is not an object", i)
		}
		op, ok := step["op"].(string)
		if !ok {
			return false, fmt.Sprintf("step %d missing op", i)
		}
		for _, p := range RequiredParams[op] {
			if _, present := step[p]; !present {
				return false, fmt.Sprintf("step %d op=%s missing param %s", i, op, p)
			}
		}
	}
	return true, reasonOK
}

// ValidateJSON decodes one record and validates it. A decode failure is
// returned as an error rather than a reason.
func ValidateJSON(data []byte) (bool, string, error) {
	var record any
	if err := json.Unmarshal(data, &record); err != nil {
		return false, "", err
	}
	ok, reason := Validate(record)
	return ok, reason, nil
}
