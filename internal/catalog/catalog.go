// Package catalog holds the survey question catalog the rule editor refers to.
//
// The catalog is owned by the survey editor; skiplogic only reads it to pick a
// default question for new conditions and to resolve question labels for
// summaries. Unknown ids resolve to themselves.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/solatis/skiplogic/internal/types"
	"gopkg.in/yaml.v3"
)

// Catalog is an ordered, read-only list of questions with id lookup.
type Catalog struct {
	questions []types.Question
	labels    map[string]string
}

// New builds a catalog preserving question order. Later duplicates of an id
// keep their position but do not override the first label.
func New(questions []types.Question) *Catalog {
	c := &Catalog{
		questions: append([]types.Question(nil), questions...),
		labels:    make(map[string]string, len(questions)),
	}
	for _, q := range questions {
		if _, ok := c.labels[q.ID]; !ok {
			c.labels[q.ID] = q.Label
		}
	}
	return c
}

// Label returns the label for id, or id itself if the question is unknown.
func (c *Catalog) Label(id string) string {
	if c == nil {
		return id
	}
	if label, ok := c.labels[id]; ok && label != "" {
		return label
	}
	return id
}

// Has reports whether id is in the catalog.
func (c *Catalog) Has(id string) bool {
	if c == nil {
		return false
	}
	_, ok := c.labels[id]
	return ok
}

// First returns the id of the first question, or "" for an empty catalog.
func (c *Catalog) First() string {
	if c == nil || len(c.questions) == 0 {
		return ""
	}
	return c.questions[0].ID
}

// Questions returns a copy of the catalog entries.
func (c *Catalog) Questions() []types.Question {
	if c == nil {
		return nil
	}
	return append([]types.Question(nil), c.questions...)
}

// Len returns the number of questions.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.questions)
}

// document is the on-disk layout: either a bare list or {questions: [...]}.
type document struct {
	Questions []types.Question `json:"questions" yaml:"questions"`
}

// LoadFile reads a catalog from a YAML (.yaml/.yml) or JSON (.json) file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parse(data, yaml.Unmarshal)
	case ".json":
		return parse(data, json.Unmarshal)
	default:
		return nil, fmt.Errorf("unsupported catalog format: %s (expected .yaml, .yml or .json)", filepath.Ext(path))
	}
}

func parse(data []byte, unmarshal func([]byte, any) error) (*Catalog, error) {
	var list []types.Question
	if err := unmarshal(data, &list); err == nil {
		return validate(list)
	}

	var doc document
	if err := unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return validate(doc.Questions)
}

func validate(questions []types.Question) (*Catalog, error) {
	for i, q := range questions {
		if strings.TrimSpace(q.ID) == "" {
			return nil, fmt.Errorf("question %d: id is required", i)
		}
	}
	return New(questions), nil
}
