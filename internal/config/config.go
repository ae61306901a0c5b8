// Package config loads and validates the pipeline's YAML configuration files:
// the sampling plan, the policy-hints maps, and the extraction and scraping
// policies. All validation errors here are fatal configuration errors; a stage
// halts before touching any asset.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrNoStrata             = errors.New("sampling plan: at least one representative stratum is required")
	ErrBadAllocation        = errors.New("sampling plan: stratum allocations must be in (0, 1]")
	ErrBadTargetN           = errors.New("sampling plan: representative.target_n must be at least 1")
	ErrNodeMissingName      = errors.New("sampling plan: targeted node missing name")
	ErrNonZeroTemperature   = errors.New("extraction policy: temperature must be exactly 0")
	ErrUnknownBackend       = errors.New("extraction policy: backend must be 'llm' or 'rules'")
	ErrNoClaimPatterns      = errors.New("extraction policy: at least one claim pattern is required")
	ErrBadOCRThreshold      = errors.New("extraction policy: ocr.confidence_threshold must be in [0, 1]")
	ErrMissingUserAgent     = errors.New("scraping policy: user_agent is required")
	ErrBadRetries           = errors.New("scraping policy: max_retries must be non-negative")
	ErrBadBackoff           = errors.New("scraping policy: backoff_base_sec must be positive")
	ErrBadThrottle          = errors.New("scraping policy: throttle_sec must be non-negative")
	ErrHintsEmpty           = errors.New("policy hints: phi, k and l sections are all required")
	ErrHintMissingPatterns  = errors.New("policy hints: hint id has no patterns")
	ErrBadL                 = errors.New("policy hints: l.weights must not be empty")
	ErrBadHardThreshold     = errors.New("policy hints: l.hard_threshold must be positive")
	ErrNonPositiveTokenMass = errors.New("policy hints: l token weights must be positive")
)

func loadYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}
