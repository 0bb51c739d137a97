package importer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// DefaultTarget names the store when the caller does not identify one.
const DefaultTarget = "default"

// LastImport records the dataset most recently imported into one store.
// Every import replaces the store contents, so only the last one matters.
type LastImport struct {
	Source     string    `json:"source"`
	Digest     string    `json:"digest"`
	Samples    int       `json:"samples"`
	ImportedAt time.Time `json:"imported_at"`
}

// State tracks the last import per store target (backend plus location).
type State struct {
	Targets map[string]LastImport `json:"targets"`

	path string // not serialized
}

// LoadState loads import state from path, or returns an empty state when the
// file does not exist yet.
func LoadState(path string) (*State, error) {
	p := expandHome(path)

	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{Targets: map[string]LastImport{}, path: p}, nil
		}
		return nil, errors.Wrap(err, "read state")
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "parse state")
	}
	if s.Targets == nil {
		s.Targets = map[string]LastImport{}
	}
	s.path = p
	return &s, nil
}

// Save persists the state to disk.
func (s *State) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "mkdir")
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal state")
	}

	return os.WriteFile(s.path, data, 0o644)
}

// IsCurrent reports whether source, with the same digest, is the last dataset
// imported into target.
func (s *State) IsCurrent(target, source, digest string) bool {
	last, ok := s.Targets[target]
	return ok && last.Source == source && last.Digest == digest
}

// MarkImported records source as the contents of target.
func (s *State) MarkImported(target, source, digest string, samples int, at time.Time) {
	if s.Targets == nil {
		s.Targets = map[string]LastImport{}
	}
	s.Targets[target] = LastImport{Source: source, Digest: digest, Samples: samples, ImportedAt: at}
}

func expandHome(path string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
