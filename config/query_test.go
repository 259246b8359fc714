package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docsift/core"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name string
		json string
		want Query
	}{
		{
			name: "flat",
			json: `{"persona": "Travel Planner", "job": "Plan a trip for 10 friends", "documents": ["a.pdf", "b.pdf"]}`,
			want: Query{Persona: "Travel Planner", Job: "Plan a trip for 10 friends", Documents: []string{"a.pdf", "b.pdf"}},
		},
		{
			name: "challenge",
			json: `{
				"challenge_info": {"challenge_id": "round_1b_002"},
				"documents": [{"filename": "South of France - Cities.pdf", "title": "Cities"}],
				"persona": {"role": "Travel Planner"},
				"job_to_be_done": {"task": "Plan a trip of 4 days"}
			}`,
			want: Query{Persona: "Travel Planner", Job: "Plan a trip of 4 days", Documents: []string{"South of France - Cities.pdf"}},
		},
		{
			name: "documents omitted",
			json: `{"persona": " HR professional ", "job": "Create fillable forms"}`,
			want: Query{Persona: "HR professional", Job: "Create fillable forms"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseQuery([]byte(tt.json))
			require.NoError(t, err)
			assert.Equal(t, tt.want, *q)
		})
	}
}

func TestParseQuery_Errors(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr error
	}{
		{"not json", `{`, core.ErrConfiguration},
		{"missing persona", `{"job": "x"}`, core.ErrMissingPersona},
		{"blank persona", `{"persona": "  ", "job": "x"}`, core.ErrMissingPersona},
		{"missing job", `{"persona": "x"}`, core.ErrMissingJob},
		{"role missing", `{"persona": {"name": "x"}, "job": "y"}`, core.ErrConfiguration},
		{"bad document", `{"persona": "x", "job": "y", "documents": [42]}`, core.ErrConfiguration},
		{"blank document", `{"persona": "x", "job": "y", "documents": [{"filename": " "}]}`, core.ErrConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQuery([]byte(tt.json))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, core.ErrConfiguration)
		})
	}
}

func TestLoadQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"persona": "Chef", "job": "Plan dinner"}`), 0o644))

	q, err := LoadQuery(path)
	require.NoError(t, err)
	assert.Equal(t, "Chef", q.Persona)

	_, err = LoadQuery(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, core.ErrConfiguration)
}
