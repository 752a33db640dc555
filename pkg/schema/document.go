package schema

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-dataviews/pkg/field"
	"github.com/goliatone/go-dataviews/pkg/form"
	"github.com/goliatone/go-dataviews/pkg/view"
)

// Form is a form document bound to the field set it edits.
type Form struct {
	FieldSet  string `json:"fieldSet" yaml:"fieldSet"`
	form.Form `yaml:",inline"`
}

// View is a view document bound to the field set it lists.
type View struct {
	FieldSet  string `json:"fieldSet" yaml:"fieldSet"`
	Items     string `json:"items,omitempty" yaml:"items,omitempty"`
	view.View `yaml:",inline"`
}

// document is the on-disk shape of one descriptor file.
type document struct {
	FieldSets map[string][]field.Descriptor `json:"fieldSets" yaml:"fieldSets"`
	Forms     map[string]Form               `json:"forms" yaml:"forms"`
	Views     map[string]View               `json:"views" yaml:"views"`
}

func parseDocument(data []byte, source string) (document, error) {
	var doc document
	if len(strings.TrimSpace(string(data))) == 0 {
		return document{}, fmt.Errorf("schema: file %s is empty", source)
	}

	if strings.EqualFold(filepath.Ext(source), ".json") {
		if err := json.Unmarshal(data, &doc); err != nil {
			return document{}, fmt.Errorf("schema: parse %s: %w", source, err)
		}
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return document{}, fmt.Errorf("schema: parse %s: %w", source, err)
	}
	return doc, nil
}

func isDocumentFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// isSequence reports whether data holds a top-level list. Lists are items
// files living next to the documents, not documents themselves.
func isSequence(data []byte) bool {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil || len(node.Content) == 0 {
		return false
	}
	return node.Content[0].Kind == yaml.SequenceNode
}
