package harness

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// Scenario is one ingestion conformance case: a batch of raw lines fed to a
// receiver, and the outcome expected from it.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Now is the RFC 3339 instant the validator treats as the current time.
	Now string `yaml:"now"`

	// Lines are sent verbatim, so each must carry its own trailing "\n".
	Lines []string `yaml:"lines"`

	Expect Expectation `yaml:"expect"`
}

// Expectation is checked after every line has been received and the queue drained.
type Expectation struct {
	Accepted int `yaml:"accepted"`
	Rejected int `yaml:"rejected"`

	// Order is the drained instruction type sequence. Omit to skip the check.
	Order []string `yaml:"order,omitempty"`

	// Rejections lists every rejected line. Omit to skip the check.
	Rejections []Rejection `yaml:"rejections,omitempty"`
}

// Rejection pairs a 1-based line number with its error code.
type Rejection struct {
	Line int    `yaml:"line"`
	Code string `yaml:"code"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or does not satisfy the schema.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := checkSchema(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// NowTime returns Now as a time.Time.
func (s *Scenario) NowTime() (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s.Now)
	if err != nil {
		return time.Time{}, fmt.Errorf("now: %w", err)
	}
	return t, nil
}

// object mirrors the YAML document for schema unification. Optional lists
// are left out rather than encoded as null.
func (s *Scenario) object() map[string]any {
	expect := map[string]any{
		"accepted": s.Expect.Accepted,
		"rejected": s.Expect.Rejected,
	}
	if s.Expect.Order != nil {
		expect["order"] = s.Expect.Order
	}
	if s.Expect.Rejections != nil {
		rejections := make([]map[string]any, len(s.Expect.Rejections))
		for i, r := range s.Expect.Rejections {
			rejections[i] = map[string]any{"line": r.Line, "code": r.Code}
		}
		expect["rejections"] = rejections
	}

	lines := s.Lines
	if lines == nil {
		lines = []string{}
	}
	return map[string]any{
		"name":        s.Name,
		"description": s.Description,
		"now":         s.Now,
		"lines":       lines,
		"expect":      expect,
	}
}

func checkSchema(s *Scenario) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Scenario"))
	v := def.Unify(ctx.Encode(s.object()))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}

// validateScenario checks cross-field rules the schema cannot express.
func validateScenario(s *Scenario) error {
	if _, err := s.NowTime(); err != nil {
		return err
	}

	if got := s.Expect.Accepted + s.Expect.Rejected; got != len(s.Lines) {
		return fmt.Errorf("expect: accepted + rejected = %d, want %d lines", got, len(s.Lines))
	}

	if s.Expect.Order != nil && len(s.Expect.Order) != s.Expect.Accepted {
		return fmt.Errorf("expect.order: %d entries, want %d accepted", len(s.Expect.Order), s.Expect.Accepted)
	}

	if s.Expect.Rejections != nil {
		if len(s.Expect.Rejections) != s.Expect.Rejected {
			return fmt.Errorf("expect.rejections: %d entries, want %d rejected", len(s.Expect.Rejections), s.Expect.Rejected)
		}
		for i, r := range s.Expect.Rejections {
			if r.Line > len(s.Lines) {
				return fmt.Errorf("expect.rejections[%d]: line %d out of range", i, r.Line)
			}
		}
	}

	return nil
}
