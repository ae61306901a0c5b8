package config

import "fmt"

// PolicyHints is the gate-hint configuration: pattern maps for the Φ and K
// detectors and a weighted token map for the L scorer. The maps are compiled
// by the gate package at load time; a bad pattern is a fatal error, never
// silently skipped.
type PolicyHints struct {
	Phi map[string]HintPatterns `yaml:"phi"`
	K   map[string]HintPatterns `yaml:"k"`
	L   LexicalHints            `yaml:"l"`
}

// HintPatterns is the pattern list of a single hint id.
type HintPatterns struct {
	Patterns []string `yaml:"patterns"`
}

// LexicalHints configures the L detector: token weights and the score
// threshold at which a claim becomes an l_hard candidate.
type LexicalHints struct {
	HardThreshold int            `yaml:"hard_threshold"`
	Weights       map[string]int `yaml:"weights"`
}

// DefaultHardThreshold applies when the config omits l.hard_threshold.
const DefaultHardThreshold = 3

// LoadPolicyHints reads and validates a policy-hints YAML.
func LoadPolicyHints(path string) (*PolicyHints, error) {
	var hints PolicyHints
	if err := loadYAML(path, &hints); err != nil {
		return nil, err
	}
	if hints.L.HardThreshold == 0 {
		hints.L.HardThreshold = DefaultHardThreshold
	}
	if err := hints.Validate(); err != nil {
		return nil, err
	}
	return &hints, nil
}

// Validate checks structural consistency. Regex compilation happens in the
// gate package; this only rejects obviously empty configuration.
func (h *PolicyHints) Validate() error {
	if len(h.Phi) == 0 && len(h.K) == 0 && len(h.L.Weights) == 0 {
		return ErrHintsEmpty
	}
	for id, p := range h.Phi {
		if len(p.Patterns) == 0 {
			return fmt.Errorf("%w: phi.%s", ErrHintMissingPatterns, id)
		}
	}
	for id, p := range h.K {
		if len(p.Patterns) == 0 {
			return fmt.Errorf("%w: k.%s", ErrHintMissingPatterns, id)
		}
	}
	if len(h.L.Weights) == 0 {
		return ErrBadL
	}
	if h.L.HardThreshold <= 0 {
		return ErrBadHardThreshold
	}
	for token, w := range h.L.Weights {
		if w <= 0 {
			return fmt.Errorf("%w: token %q has weight %d", ErrNonPositiveTokenMass, token, w)
		}
	}
	return nil
}
