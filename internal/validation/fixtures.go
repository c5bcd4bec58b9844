package validation

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/merlin-energy/truequote/internal/answers"
	"github.com/merlin-energy/truequote/internal/engine"
)

//go:embed fixtures.yaml
var embeddedFixtures []byte

// ErrInvalidFixtures is returned for malformed fixture documents.
var ErrInvalidFixtures = errors.New("invalid fixtures")

// Fixture is a canned quote request for one industry.
type Fixture struct {
	IndustryID    string            `yaml:"industryId"              json:"industryId"`
	LocationZip   string            `yaml:"locationZip,omitempty"   json:"locationZip,omitempty"`
	LocationState string            `yaml:"locationState,omitempty" json:"locationState,omitempty"`
	Answers       answers.AnswerSet `yaml:"answers"                 json:"answers"`
}

// Request converts the fixture to an engine request.
func (f Fixture) Request() engine.Request {
	return engine.Request{
		IndustryID:    f.IndustryID,
		Answers:       f.Answers.Clone(),
		LocationZip:   f.LocationZip,
		LocationState: f.LocationState,
	}
}

// Fixtures maps industry id to its fixture.
type Fixtures map[string]Fixture

// For returns the fixture for an industry. Industries without one are run
// with no answers, so every field falls back to its default.
func (f Fixtures) For(industryID string) Fixture {
	if fx, ok := f[industryID]; ok {
		return fx
	}
	return Fixture{IndustryID: industryID}
}

// DefaultFixtures returns the fixtures compiled into the binary.
func DefaultFixtures() (Fixtures, error) {
	return ParseFixtures(embeddedFixtures)
}

// LoadFixtures reads fixtures from a YAML file.
func LoadFixtures(path string) (Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixtures: %w", err)
	}
	return ParseFixtures(data)
}

// ParseFixtures decodes a fixture document. Empty and duplicate industry
// ids are rejected.
func ParseFixtures(data []byte) (Fixtures, error) {
	var doc struct {
		Fixtures []Fixture `yaml:"fixtures"`
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFixtures, err)
	}

	out := make(Fixtures, len(doc.Fixtures))
	for i, fx := range doc.Fixtures {
		fx.IndustryID = strings.TrimSpace(fx.IndustryID)
		if fx.IndustryID == "" {
			return nil, fmt.Errorf("%w: fixture %d has no industryId", ErrInvalidFixtures, i)
		}
		if _, dup := out[fx.IndustryID]; dup {
			return nil, fmt.Errorf("%w: duplicate fixture for %q", ErrInvalidFixtures, fx.IndustryID)
		}
		out[fx.IndustryID] = fx
	}
	return out, nil
}
