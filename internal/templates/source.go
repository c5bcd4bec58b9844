package templates

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var embeddedTemplates []byte

// Source supplies the raw template list. Implementations may block on I/O;
// the registry calls Load once.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]IndustryTemplate, error)
}

type templateDocument struct {
	Templates []IndustryTemplate `yaml:"templates"`
}

// ParseYAML decodes a templates document. Unknown keys are rejected so that
// typos in field names do not silently drop configuration.
func ParseYAML(data []byte) ([]IndustryTemplate, error) {
	var doc templateDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}
	return doc.Templates, nil
}

// EmbeddedSource serves the templates compiled into the binary.
type EmbeddedSource struct{}

// Name implements Source.
func (EmbeddedSource) Name() string { return "embedded" }

// Load implements Source.
func (EmbeddedSource) Load(context.Context) ([]IndustryTemplate, error) {
	return ParseYAML(embeddedTemplates)
}

// FileSource reads templates from a YAML file on disk.
type FileSource struct {
	Path string
}

// Name implements Source.
func (s FileSource) Name() string { return "file:" + s.Path }

// Load implements Source.
func (s FileSource) Load(context.Context) ([]IndustryTemplate, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading template file: %w", err)
	}
	return ParseYAML(data)
}
