// Package templates is the industry template registry.
//
// A template lists the questionnaire fields an industry expects, their
// defaults, and the calculator family that turns the answers into a load
// profile. Templates are data: they are loaded once from a Source (embedded
// YAML, a YAML file, or the question store in SQL) and never mutated.
package templates

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/merlin-energy/truequote/internal/answers"
	"github.com/merlin-energy/truequote/internal/logging"
)

// FieldType is the questionnaire input kind.
type FieldType string

// Known field types.
const (
	FieldNumber      FieldType = "number"
	FieldInteger     FieldType = "integer"
	FieldSelect      FieldType = "select"
	FieldBoolean     FieldType = "boolean"
	FieldMultiSelect FieldType = "multiselect"
	FieldText        FieldType = "text"
)

// Valid reports whether t is a known field type.
func (t FieldType) Valid() bool {
	switch t {
	case FieldNumber, FieldInteger, FieldSelect, FieldBoolean, FieldMultiSelect, FieldText:
		return true
	}
	return false
}

// FieldDescriptor describes one expected questionnaire field. Required marks
// questions the questionnaire must ask; the engine still falls back to
// Default when one goes unanswered and notes it in the trace.
type FieldDescriptor struct {
	Name     string    `yaml:"name"               json:"name"`
	Type     FieldType `yaml:"type"               json:"type"`
	Default  any       `yaml:"default"            json:"default"`
	Required bool      `yaml:"required,omitempty" json:"required,omitempty"`
	Options  []string  `yaml:"options,omitempty"  json:"options,omitempty"`
	Unit     string    `yaml:"unit,omitempty"     json:"unit,omitempty"`
	Question string    `yaml:"question,omitempty" json:"question,omitempty"`
	Help     string    `yaml:"help,omitempty"     json:"help,omitempty"`
}

// IndustryTemplate is the static configuration for one industry.
type IndustryTemplate struct {
	IndustryID     string            `yaml:"industryId"   json:"industryId"`
	DisplayName    string            `yaml:"displayName"  json:"displayName"`
	CalculatorID   string            `yaml:"calculatorId" json:"calculatorId"`
	ExpectedFields []FieldDescriptor `yaml:"fields"       json:"expectedFields"`
}

// Field returns the descriptor for name.
func (t *IndustryTemplate) Field(name string) (FieldDescriptor, bool) {
	for _, f := range t.ExpectedFields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

// Defaults returns every field default as an AnswerSet.
func (t *IndustryTemplate) Defaults() answers.AnswerSet {
	out := make(answers.AnswerSet, len(t.ExpectedFields))
	for _, f := range t.ExpectedFields {
		out[f.Name] = f.Default
	}
	return out
}

// Sentinel errors for template handling.
var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidTemplate  = errors.New("invalid template")
)

// TemplateNotFoundError is returned when an industry id is not registered.
type TemplateNotFoundError struct {
	IndustryID string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("template not found for industry %q", e.IndustryID)
}

// Is lets errors.Is match ErrTemplateNotFound.
func (e *TemplateNotFoundError) Is(target error) bool {
	return target == ErrTemplateNotFound
}

// Registry is an immutable set of templates keyed by industry id.
type Registry struct {
	byID map[string]*IndustryTemplate
	ids  []string
}

// NewRegistry loads every template from src, merges the universal fields
// into each, and validates the result.
func NewRegistry(ctx context.Context, src Source) (*Registry, error) {
	log := logging.FromContext(ctx)

	list, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading templates from %s: %w", src.Name(), err)
	}

	reg, err := NewRegistryFromTemplates(list)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Ctx(ctx).
		Str("component", "templates").
		Str("operation", "load").
		Str("source", src.Name()).
		Int("template_count", len(reg.ids)).
		Msg("template registry loaded")

	return reg, nil
}

// NewRegistryFromTemplates builds a registry from an in-memory list.
func NewRegistryFromTemplates(list []IndustryTemplate) (*Registry, error) {
	reg := &Registry{byID: make(map[string]*IndustryTemplate, len(list))}

	for i := range list {
		tmpl := withUniversalFields(list[i])
		if err := validateTemplate(&tmpl); err != nil {
			return nil, err
		}
		if _, dup := reg.byID[tmpl.IndustryID]; dup {
			return nil, fmt.Errorf("%w: duplicate industry id %q", ErrInvalidTemplate, tmpl.IndustryID)
		}
		reg.byID[tmpl.IndustryID] = &tmpl
		reg.ids = append(reg.ids, tmpl.IndustryID)
	}
	slices.Sort(reg.ids)

	return reg, nil
}

// GetTemplate returns the template for industryID, or a
// *TemplateNotFoundError. The returned template must not be modified.
func (r *Registry) GetTemplate(industryID string) (*IndustryTemplate, error) {
	t, ok := r.byID[strings.TrimSpace(industryID)]
	if !ok {
		return nil, &TemplateNotFoundError{IndustryID: industryID}
	}
	return t, nil
}

// IDs returns the registered industry ids, sorted.
func (r *Registry) IDs() []string {
	return slices.Clone(r.ids)
}

// All returns every template in id order.
func (r *Registry) All() []IndustryTemplate {
	out := make([]IndustryTemplate, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, *r.byID[id])
	}
	return out
}

func validateTemplate(t *IndustryTemplate) error {
	if t.IndustryID == "" {
		return fmt.Errorf("%w: empty industry id", ErrInvalidTemplate)
	}
	if t.CalculatorID == "" {
		return fmt.Errorf("%w: industry %q has no calculator id", ErrInvalidTemplate, t.IndustryID)
	}

	seen := make(map[string]struct{}, len(t.ExpectedFields))
	for _, f := range t.ExpectedFields {
		if f.Name == "" {
			return fmt.Errorf("%w: industry %q has a field with no name", ErrInvalidTemplate, t.IndustryID)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%w: industry %q declares field %q twice", ErrInvalidTemplate, t.IndustryID, f.Name)
		}
		seen[f.Name] = struct{}{}

		if !f.Type.Valid() {
			return fmt.Errorf("%w: field %s.%s has unknown type %q", ErrInvalidTemplate, t.IndustryID, f.Name, f.Type)
		}
		if f.Type == FieldSelect && len(f.Options) > 0 && f.Default != nil {
			def := fmt.Sprint(f.Default)
			if !slices.Contains(f.Options, def) {
				return fmt.Errorf("%w: field %s.%s default %q is not one of %v",
					ErrInvalidTemplate, t.IndustryID, f.Name, def, f.Options)
			}
		}
	}
	return nil
}
