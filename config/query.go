package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/poiesic/docsift/core"
)

// Query is a decoded query file.
type Query = core.QueryConfig

type queryFile struct {
	Persona     json.RawMessage   `json:"persona"`
	Job         json.RawMessage   `json:"job"`
	JobToBeDone json.RawMessage   `json:"job_to_be_done"`
	Documents   []json.RawMessage `json:"documents"`
}

// ParseQuery decodes either query shape. Persona and job must both be
// present; documents may be omitted but never blank.
func ParseQuery(data []byte) (*Query, error) {
	var f queryFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrConfiguration, err)
	}

	q := &Query{}
	var err error
	if q.Persona, err = textField(f.Persona, "role"); err != nil {
		return nil, fmt.Errorf("%w: persona: %w", core.ErrConfiguration, err)
	}
	job := f.Job
	if len(job) == 0 {
		job = f.JobToBeDone
	}
	if q.Job, err = textField(job, "task"); err != nil {
		return nil, fmt.Errorf("%w: job: %w", core.ErrConfiguration, err)
	}
	for i, raw := range f.Documents {
		name, err := textField(raw, "filename")
		if err != nil {
			return nil, fmt.Errorf("%w: documents[%d]: %w", core.ErrConfiguration, i, err)
		}
		q.Documents = append(q.Documents, name)
	}

	if err := core.ValidateQueryConfig(q); err != nil {
		return nil, err
	}
	return q, nil
}

// LoadQuery reads and decodes a query file.
func LoadQuery(path string) (*Query, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrConfiguration, err)
	}
	return ParseQuery(data)
}

// textField accepts a JSON string or an object holding the string under key.
func textField(raw json.RawMessage, key string) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("expected a string or an object with %q", key)
	}
	v, ok := obj[key].(string)
	if !ok {
		return "", fmt.Errorf("missing %q", key)
	}
	return strings.TrimSpace(v), nil
}
