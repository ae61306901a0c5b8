package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/tervyx/claimlens/internal/config"
	"github.com/tervyx/claimlens/internal/model"
)

// maxClaimsPerAsset caps rule-based output, in document order.
const maxClaimsPerAsset = 20

// rulesConfidence marks rule-based candidates as lower confidence than
// structured extraction; the normalizer turns this into review_needed.
const rulesConfidence = 0.6

var numericPattern = regexp.MustCompile(`\d`)

// RulesBackend is the always-available extraction fallback: sentence split
// each zone and keep sentences matching the configured keyword/number
// pattern set.
type RulesBackend struct {
	pattern   *regexp.Regexp
	minLength int
}

// NewRulesBackend compiles the policy's claim pattern set. A bad pattern is a
// fatal configuration error.
func NewRulesBackend(policy *config.ExtractionPolicy) (*RulesBackend, error) {
	joined := "(?i)(" + strings.Join(policy.ClaimPatterns, "|") + ")"
	pattern, err := regexp.Compile(joined)
	if err != nil {
		return nil, fmt.Errorf("compile claim patterns: %w", err)
	}

	return &RulesBackend{
		pattern:   pattern,
		minLength: policy.MinClaimLength,
	}, nil
}

// Name returns the backend name recorded in extraction metadata.
func (b *RulesBackend) Name() string {
	return config.BackendRules
}

// Extract keeps pattern-matching sentences from each zone, capped at
// maxClaimsPerAsset in document order.
func (b *RulesBackend) Extract(_ context.Context, zones ZoneSet) ([]model.RawClaim, error) {
	var claims []model.RawClaim

	for _, zone := range zones.Zones {
		for _, sentence := range splitSentences(zone.Text) {
			if len(sentence) < b.minLength {
				continue
			}
			if !b.pattern.MatchString(sentence) {
				continue
			}
			claims = append(claims, model.RawClaim{
				Text:                 sentence,
				Source:               model.SourceHTML,
				Confidence:           rulesConfidence,
				ClaimType:            "unknown",
				HasNumericQuantifier: numericPattern.MatchString(sentence),
			})
			if len(claims) >= maxClaimsPerAsset {
				return claims, nil
			}
		}
	}

	return claims, nil
}

// MatchesAny reports whether any configured claim pattern matches the text.
// The image path uses this to decide whether OCR output contains a candidate.
func (b *RulesBackend) MatchesAny(text string) bool {
	return b.pattern.MatchString(text)
}

// splitSentences splits zone text on sentence terminators.
func splitSentences(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
