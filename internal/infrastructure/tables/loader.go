// Package tables loads the curated similarity tables from YAML.
package tables

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
)

//go:embed default_tables.yaml
var defaultTables []byte

// Default returns the tables compiled into the binary.
func Default() (*domain.SimilarityTables, error) {
	return Parse(defaultTables)
}

// Load reads tables from path, or the embedded default when path is empty.
func Load(path string) (*domain.SimilarityTables, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read similarity tables: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*domain.SimilarityTables, error) {
	var t domain.SimilarityTables
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parse similarity tables: %w", err)
	}
	if err := validate(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

func validate(t *domain.SimilarityTables) error {
	for _, set := range []struct {
		kind   string
		groups []domain.PhraseGroup
	}{{"concept", t.Concepts}, {"phrase", t.Phrases}} {
		names := make(map[string]struct{}, len(set.groups))
		for _, g := range set.groups {
			if strings.TrimSpace(g.Name) == "" {
				return domain.WrapError(domain.ErrInvalidInput, "validate tables", fmt.Errorf("%s group without name", set.kind))
			}
			if _, dup := names[g.Name]; dup {
				return domain.WrapError(domain.ErrInvalidInput, "validate tables", fmt.Errorf("duplicate %s group %q", set.kind, g.Name))
			}
			names[g.Name] = struct{}{}
		}
		for _, g := range set.groups {
			for _, rel := range g.Related {
				if _, ok := names[rel.Name]; !ok {
					return domain.WrapError(domain.ErrInvalidInput, "validate tables", fmt.Errorf("%s group %q relates to unknown group %q", set.kind, g.Name, rel.Name))
				}
				if rel.Weight < 0 || rel.Weight > 1 {
					return domain.WrapError(domain.ErrInvalidInput, "validate tables", fmt.Errorf("%s group %q has weight %v outside [0,1]", set.kind, g.Name, rel.Weight))
				}
			}
		}
	}
	for _, topic := range t.Topics {
		if topic.From < 0 || topic.To > 1 || topic.From >= topic.To {
			return domain.WrapError(domain.ErrInvalidInput, "validate tables", fmt.Errorf("topic %q has invalid range [%v,%v)", topic.Name, topic.From, topic.To))
		}
	}
	return nil
}
