package extractor

import "encoding/json"

// Record is one Prompt/Result pair lifted out of a sample transcript.
// Result holds the compact JSON of the parsed object, or nil when the
// embedded JSON could not be parsed (encoded as null).
type Record struct {
	Prompt string          `json:"prompt"`
	Result json.RawMessage `json:"result"`
}

// Options tunes the pairing search.
type Options struct {
	// StopAtNextPrompt limits the Result/JSON search for a prompt to the text
	// before the next Prompt: marker. Off by default, in which case a prompt
	// without its own Result can pair with one further downstream.
	StopAtNextPrompt bool
}
