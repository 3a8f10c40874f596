package engine

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var rulesYAML []byte

//go:embed rules.schema.json
var rulesSchemaJSON string

// Substitution is one literal from->to rewrite.
type Substitution struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

// Rules holds the ordered substitution tables the Normalizer applies.
// Phrases are case-sensitive literal rewrites applied in order; Units maps
// lowercased unit tokens to their canonical spelling.
type Rules struct {
	Version int            `yaml:"version"`
	Phrases []Substitution `yaml:"phrases"`
	Units   []Substitution `yaml:"units"`

	unitLookup map[string]string
}

// ParseRules decodes and validates a rules document. The YAML is checked
// against the embedded JSON schema before use so a malformed table is caught
// at load time, not mid-normalization.
func ParseRules(data []byte) (*Rules, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("rules: decode: %w", err)
	}
	// Round-trip through JSON so numeric types match what the validator expects.
	buf, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("rules: to json: %w", err)
	}
	var jsonDoc any
	if err := json.Unmarshal(buf, &jsonDoc); err != nil {
		return nil, fmt.Errorf("rules: from json: %w", err)
	}

	schema, err := jsonschema.CompileString("rules.schema.json", rulesSchemaJSON)
	if err != nil {
		return nil, fmt.Errorf("rules: compile schema: %w", err)
	}
	if err := schema.Validate(jsonDoc); err != nil {
		return nil, fmt.Errorf("rules: validate: %w", err)
	}

	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("rules: decode: %w", err)
	}
	r.unitLookup = make(map[string]string, len(r.Units))
	for _, u := range r.Units {
		key := strings.ToLower(u.From)
		if _, exists := r.unitLookup[key]; !exists {
			r.unitLookup[key] = u.To
		}
	}
	return &r, nil
}

// CanonicalUnit returns the canonical spelling for a unit token, or the
// trimmed input unchanged when the token is not in the table.
func (r *Rules) CanonicalUnit(tok string) string {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return ""
	}
	if canon, ok := r.unitLookup[strings.ToLower(tok)]; ok {
		return canon
	}
	return tok
}

var (
	defaultRulesOnce sync.Once
	defaultRulesVal  *Rules
)

// DefaultRules returns the embedded substitution tables. The embedded
// document is validated at first use; failure is a build defect.
func DefaultRules() *Rules {
	defaultRulesOnce.Do(func() {
		r, err := ParseRules(rulesYAML)
		if err != nil {
			panic(fmt.Sprintf("engine: embedded rules invalid: %v", err))
		}
		defaultRulesVal = r
	})
	return defaultRulesVal
}
