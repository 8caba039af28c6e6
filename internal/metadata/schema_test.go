package metadata

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDocument() Document {
	return Document{
		"name":         "Test Mech",
		"description":  "A mech for testing",
		"inputFormat":  "ipfs-v0.1",
		"outputFormat": "ipfs-v0.1",
		"image":        "https://gateway.autonolas.tech/ipfs/test",
		"tools":        []interface{}{"openai-gpt-4"},
		"toolMetadata": map[string]interface{}{
			"openai-gpt-4": map[string]interface{}{
				"name":        "OpenAI GPT-4",
				"description": "Query GPT-4",
				"input": map[string]interface{}{
					"type":        "text",
					"description": "The prompt",
				},
				"output": map[string]interface{}{
					"type":        "object",
					"description": "The response",
					"schema":      map[string]interface{}{},
				},
			},
		},
	}
}

func TestValidateAcceptsWellFormedDocument(t *testing.T) {
	require.NoError(t, Validate(validDocument()))
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(Document)
		wantErr string
	}{
		{
			name:    "missing top-level key",
			mutate:  func(d Document) { delete(d, "toolMetadata") },
			wantErr: `missing required key "toolMetadata"`,
		},
		{
			name:    "tools not a list",
			mutate:  func(d Document) { d["tools"] = "openai-gpt-4" },
			wantErr: `"tools" must be a list`,
		},
		{
			name: "tool count mismatch",
			mutate: func(d Document) {
				d["tools"] = []interface{}{"openai-gpt-4", "prediction-offline"}
			},
			wantErr: "lists 2 tools but toolMetadata has 1 entries",
		},
		{
			name: "tool without metadata entry",
			mutate: func(d Document) {
				d["tools"] = []interface{}{"prediction-offline"}
				d["toolMetadata"] = map[string]interface{}{
					"prediction-online": map[string]interface{}{},
				}
			},
			wantErr: `missing an entry for tool "prediction-offline"`,
		},
		{
			name: "tool missing required key",
			mutate: func(d Document) {
				entry := d["toolMetadata"].(map[string]interface{})["openai-gpt-4"].(map[string]interface{})
				delete(entry, "description")
			},
			wantErr: `missing required key "description"`,
		},
		{
			name: "input missing description",
			mutate: func(d Document) {
				entry := d["toolMetadata"].(map[string]interface{})["openai-gpt-4"].(map[string]interface{})
				delete(entry["input"].(map[string]interface{}), "description")
			},
			wantErr: `under "input"`,
		},
		{
			name: "output missing schema",
			mutate: func(d Document) {
				entry := d["toolMetadata"].(map[string]interface{})["openai-gpt-4"].(map[string]interface{})
				delete(entry["output"].(map[string]interface{}), "schema")
			},
			wantErr: `missing required key "schema" under "output"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validDocument()
			tt.mutate(doc)
			err := Validate(doc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadValidatesFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata.json")

	data, err := json.Marshal(validDocument())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Test Mech", doc["name"])
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}
