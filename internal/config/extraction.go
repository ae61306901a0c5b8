package config

import "fmt"

// Extraction backend names.
const (
	BackendLLM   = "llm"
	BackendRules = "rules"
)

// ExtractionPolicy configures the extraction engine. Temperature is pinned to
// zero by Validate: the whole pipeline's determinism contract depends on it.
type ExtractionPolicy struct {
	Backend     string  `yaml:"backend"`
	Model       string  `yaml:"model"`
	Version     string  `yaml:"version"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSec  int     `yaml:"timeout_sec"`

	// Rule-based path.
	MinClaimLength int      `yaml:"min_claim_length"`
	ClaimPatterns  []string `yaml:"claim_patterns"`

	// Image path.
	OCR OCRPolicy `yaml:"ocr"`
}

// OCRPolicy configures the image extraction path. When the engine binary is
// not present, image assets are skipped, which is not an error.
type OCRPolicy struct {
	Binary              string  `yaml:"binary"`
	Lang                string  `yaml:"lang"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	LLMCleanup          bool    `yaml:"llm_cleanup"`
}

// LoadExtractionPolicy reads and validates an extraction policy YAML.
func LoadExtractionPolicy(path string) (*ExtractionPolicy, error) {
	var policy ExtractionPolicy
	if err := loadYAML(path, &policy); err != nil {
		return nil, err
	}
	policy.applyDefaults()
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &policy, nil
}

func (p *ExtractionPolicy) applyDefaults() {
	if p.Backend == "" {
		p.Backend = BackendRules
	}
	if p.Version == "" {
		p.Version = "v1"
	}
	if p.MaxTokens == 0 {
		p.MaxTokens = 2048
	}
	if p.TimeoutSec == 0 {
		p.TimeoutSec = 60
	}
	if p.MinClaimLength == 0 {
		p.MinClaimLength = 10
	}
	if len(p.ClaimPatterns) == 0 {
		p.ClaimPatterns = DefaultClaimPatterns()
	}
	if p.OCR.Binary == "" {
		p.OCR.Binary = "tesseract"
	}
	if p.OCR.Lang == "" {
		p.OCR.Lang = "eng"
	}
	if p.OCR.ConfidenceThreshold == 0 {
		p.OCR.ConfidenceThreshold = 0.7
	}
}

// Validate checks the policy. A non-zero temperature is fatal here, before any
// asset is processed, not just at QC time.
func (p *ExtractionPolicy) Validate() error {
	if p.Temperature != 0 {
		return fmt.Errorf("%w: got %v", ErrNonZeroTemperature, p.Temperature)
	}
	if p.Backend != BackendLLM && p.Backend != BackendRules {
		return fmt.Errorf("%w: got %q", ErrUnknownBackend, p.Backend)
	}
	if len(p.ClaimPatterns) == 0 {
		return ErrNoClaimPatterns
	}
	if p.OCR.ConfidenceThreshold < 0 || p.OCR.ConfidenceThreshold > 1 {
		return ErrBadOCRThreshold
	}
	return nil
}

// DefaultClaimPatterns is the built-in keyword/number pattern set for the
// rule-based path.
func DefaultClaimPatterns() []string {
	return []string{
		`proven`, `clinically`, `guaranteed`, `effective`, `results`,
		`cure`, `treat`, `prevent`, `relieve`, `reduce`,
		`improve`, `boost`, `enhance`, `support`, `promote`,
		`\d+%`, `instant`, `fast`, `quick`, `immediate`,
	}
}
