// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "embed"

	engine "github.com/jason-s-yu/haggle/engine"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// Match describes one negotiation: the shared catalog counts, each party's
// private values, the round count and the strategy both engines play.
type Match struct {
	Rounds   int             `yaml:"rounds" json:"rounds"`
	Counts   []int           `yaml:"counts" json:"counts"`
	ValuesA  []float64       `yaml:"values_a" json:"values_a"` // first mover
	ValuesB  []float64       `yaml:"values_b" json:"values_b"` // second mover
	Strategy engine.Strategy `yaml:"strategy" json:"strategy"`
}

//go:embed match.schema.json
var matchSchemaJSON string

var matchSchema = jsonschema.MustCompileString("match.schema.json", matchSchemaJSON)

// Validate checks the match against the engine's construction rules for both
// parties.
func (m Match) Validate() error {
	if m.Rounds < 1 {
		return fmt.Errorf("%w: rounds %d must be at least 1", engine.ErrConfiguration, m.Rounds)
	}
	if _, err := engine.NewCatalog(m.Counts, m.ValuesA); err != nil {
		return fmt.Errorf("values_a: %w", err)
	}
	if _, err := engine.NewCatalog(m.Counts, m.ValuesB); err != nil {
		return fmt.Errorf("values_b: %w", err)
	}
	return m.Strategy.Validate()
}

// Load reads a match description from a YAML or JSON file, chosen by
// extension.
func Load(path string) (Match, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Match{}, err
	}
	var m Match
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		m, err = ParseJSON(raw)
	case ".yaml", ".yml":
		m, err = ParseYAML(raw)
	default:
		return Match{}, fmt.Errorf("load match %s: unsupported extension", path)
	}
	if err != nil {
		return Match{}, fmt.Errorf("load match %s: %w", path, err)
	}
	return m, nil
}

// ParseYAML decodes a YAML match description. Strategy fields left out keep
// their defaults.
func ParseYAML(raw []byte) (Match, error) {
	m := Match{Strategy: engine.DefaultStrategy()}
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return Match{}, fmt.Errorf("match yaml: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Match{}, err
	}
	return m, nil
}

// ParseJSON validates raw against the match schema and extracts it. Strategy
// fields left out keep their defaults.
func ParseJSON(raw []byte) (Match, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Match{}, fmt.Errorf("match json: %w", err)
	}
	if err := matchSchema.Validate(doc); err != nil {
		return Match{}, fmt.Errorf("match json: %w", err)
	}

	res := gjson.ParseBytes(raw)
	m := Match{
		Rounds:   int(res.Get("rounds").Int()),
		Counts:   readInts(res.Get("counts")),
		ValuesA:  readFloats(res.Get("values_a")),
		ValuesB:  readFloats(res.Get("values_b")),
		Strategy: engine.DefaultStrategy(),
	}
	if st := res.Get("strategy"); st.Exists() {
		applyStrategy(&m.Strategy, st)
	}
	if err := m.Validate(); err != nil {
		return Match{}, err
	}
	return m, nil
}

func applyStrategy(s *engine.Strategy, st gjson.Result) {
	if v := st.Get("rounds_to_hold"); v.Exists() {
		s.RoundsToHold = int(v.Int())
	}
	floats := map[string]*float64{
		"fold_fraction":            &s.FoldFraction,
		"panic_fraction":           &s.PanicFraction,
		"est_error_multiplier":     &s.EstErrorMultiplier,
		"lowest_req_fraction":      &s.LowestReqFraction,
		"stubborn_accept_fraction": &s.StubbornAcceptFraction,
		"no_value_interest_factor": &s.NoValueInterestFactor,
	}
	for key, dst := range floats {
		if v := st.Get(key); v.Exists() {
			*dst = v.Float()
		}
	}
}

func readInts(v gjson.Result) []int {
	var out []int
	v.ForEach(func(_, n gjson.Result) bool {
		out = append(out, int(n.Int()))
		return true
	})
	return out
}

func readFloats(v gjson.Result) []float64 {
	var out []float64
	v.ForEach(func(_, n gjson.Result) bool {
		out = append(out, n.Float())
		return true
	})
	return out
}
