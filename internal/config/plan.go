package config

import "fmt"

// SamplingPlan declares the R (representative) and T (targeted) cohorts.
type SamplingPlan struct {
	Representative RepresentativePlan `yaml:"representative"`
	Targeted       TargetedPlan       `yaml:"targeted"`
}

// RepresentativePlan is the stratified random cohort: target sample size and
// per-stratum allocation fractions. The allocations double as the
// target_proportion inputs of the weight stage.
type RepresentativePlan struct {
	TargetN int       `yaml:"target_n"`
	Strata  []Stratum `yaml:"strata"`
}

// Stratum is one named allocation of the representative cohort.
type Stratum struct {
	Name       string  `yaml:"name"`
	Allocation float64 `yaml:"allocation"`
}

// TargetedPlan is the keyword-driven, intentionally biased cohort.
type TargetedPlan struct {
	Nodes []TargetNode `yaml:"nodes"`
}

// TargetNode is one high-risk target: a category name, discovery keywords and
// the gate label the node was chosen for.
type TargetNode struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Gate     string   `yaml:"gate"`
}

// LoadSamplingPlan reads and validates a sampling plan YAML.
func LoadSamplingPlan(path string) (*SamplingPlan, error) {
	var plan SamplingPlan
	if err := loadYAML(path, &plan); err != nil {
		return nil, err
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Validate checks plan consistency.
func (p *SamplingPlan) Validate() error {
	if len(p.Representative.Strata) == 0 {
		return ErrNoStrata
	}
	if p.Representative.TargetN < 1 {
		return ErrBadTargetN
	}
	for _, s := range p.Representative.Strata {
		if s.Allocation <= 0 || s.Allocation > 1 {
			return fmt.Errorf("%w: stratum %q has allocation %v", ErrBadAllocation, s.Name, s.Allocation)
		}
	}
	for _, n := range p.Targeted.Nodes {
		if n.Name == "" {
			return ErrNodeMissingName
		}
	}
	return nil
}

// Allocations returns stratum name -> allocation fraction.
func (p *SamplingPlan) Allocations() map[string]float64 {
	out := make(map[string]float64, len(p.Representative.Strata))
	for _, s := range p.Representative.Strata {
		out[s.Name] = s.Allocation
	}
	return out
}
