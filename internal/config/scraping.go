package config

// ScrapingPolicy configures the fetch stage. Throttle is enforced before every
// dispatch; retries back off exponentially from BackoffBaseSec.
type ScrapingPolicy struct {
	UserAgent      string  `yaml:"user_agent"`
	TimeoutSec     int     `yaml:"timeout_sec"`
	MaxRetries     int     `yaml:"max_retries"`
	BackoffBaseSec float64 `yaml:"backoff_base_sec"`
	ThrottleSec    float64 `yaml:"throttle_sec"`
	RatePerDomain  float64 `yaml:"rate_per_domain"`
	Burst          int     `yaml:"burst"`
	MaxBodyBytes   int64   `yaml:"max_body_bytes"`
	WaybackSave    bool    `yaml:"wayback_save"`
	WaybackAPIURL  string  `yaml:"wayback_api_url"`
	CacheDir       string  `yaml:"cache_dir"`
	CacheTTLHours  int     `yaml:"cache_ttl_hours"`
}

// LoadScrapingPolicy reads and validates a scraping policy YAML.
func LoadScrapingPolicy(path string) (*ScrapingPolicy, error) {
	var policy ScrapingPolicy
	if err := loadYAML(path, &policy); err != nil {
		return nil, err
	}
	policy.applyDefaults()
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &policy, nil
}

func (p *ScrapingPolicy) applyDefaults() {
	if p.TimeoutSec == 0 {
		p.TimeoutSec = 30
	}
	if p.BackoffBaseSec == 0 {
		p.BackoffBaseSec = 2
	}
	if p.RatePerDomain == 0 {
		p.RatePerDomain = 0.5
	}
	if p.Burst == 0 {
		p.Burst = 1
	}
	if p.MaxBodyBytes == 0 {
		p.MaxBodyBytes = 2_000_000
	}
	if p.WaybackAPIURL == "" {
		p.WaybackAPIURL = "https://web.archive.org/save/"
	}
	if p.CacheTTLHours == 0 {
		p.CacheTTLHours = 24
	}
}

// Validate checks the policy.
func (p *ScrapingPolicy) Validate() error {
	if p.UserAgent == "" {
		return ErrMissingUserAgent
	}
	if p.MaxRetries < 0 {
		return ErrBadRetries
	}
	if p.BackoffBaseSec <= 0 {
		return ErrBadBackoff
	}
	if p.ThrottleSec < 0 {
		return ErrBadThrottle
	}
	return nil
}
