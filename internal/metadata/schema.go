package metadata

import (
	"encoding/json"
	"fmt"
	"os"
)

// Document is a parsed mech metadata file.
type Document map[string]interface{}

var requiredTopLevelKeys = []string{
	"name",
	"description",
	"inputFormat",
	"outputFormat",
	"image",
	"tools",
	"toolMetadata",
}

var requiredToolKeys = []string{"name", "description", "input", "output"}

var requiredIOKeys = []string{"type", "description"}

// Load reads and validates a metadata file.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("metadata file contains invalid JSON: %w", err)
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Validate checks a metadata document against the fixed schema the mech
// contracts and tooling expect. Errors name the first offending key.
func Validate(doc Document) error {
	for _, key := range requiredTopLevelKeys {
		if _, ok := doc[key]; !ok {
			return fmt.Errorf("metadata is missing required key %q", key)
		}
	}

	tools, ok := doc["tools"].([]interface{})
	if !ok {
		return fmt.Errorf("metadata key %q must be a list", "tools")
	}
	toolMeta, ok := doc["toolMetadata"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("metadata key %q must be a map", "toolMetadata")
	}
	if len(tools) != len(toolMeta) {
		return fmt.Errorf("metadata lists %d tools but toolMetadata has %d entries", len(tools), len(toolMeta))
	}

	for _, raw := range tools {
		name, ok := raw.(string)
		if !ok {
			return fmt.Errorf("metadata key %q must contain strings", "tools")
		}
		entry, ok := toolMeta[name].(map[string]interface{})
		if !ok {
			return fmt.Errorf("toolMetadata is missing an entry for tool %q", name)
		}
		if err := validateTool(name, entry); err != nil {
			return err
		}
	}
	return nil
}

func validateTool(name string, entry map[string]interface{}) error {
	for _, key := range requiredToolKeys {
		if _, ok := entry[key]; !ok {
			return fmt.Errorf("toolMetadata entry %q is missing required key %q", name, key)
		}
	}
	for _, section := range []string{"input", "output"} {
		inner, ok := entry[section].(map[string]interface{})
		if !ok {
			return fmt.Errorf("toolMetadata entry %q key %q must be a map", name, section)
		}
		for _, key := range requiredIOKeys {
			if _, ok := inner[key]; !ok {
				return fmt.Errorf("toolMetadata entry %q is missing required key %q under %q", name, key, section)
			}
		}
	}
	if _, ok := entry["output"].(map[string]interface{})["schema"]; !ok {
		return fmt.Errorf("toolMetadata entry %q is missing required key %q under %q", name, "schema", "output")
	}
	return nil
}
