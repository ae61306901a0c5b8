// Package gate scores claim text against the three policy-gate detectors and
// resolves a single provisional hint label. The detectors are independent:
// Φ (physics/physiology implausibility) and K (safety/regulatory) match
// configured pattern maps, L sums configured token weights. None of this is a
// policy decision; the labels only mark candidates for downstream review.
package gate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/tervyx/claimlens/internal/config"
)

// Resolved gate-hint labels, in resolver priority order.
const (
	HintKCandidate   = "k_candidate"
	HintPhiCandidate = "phi_candidate"
	HintLHard        = "l_hard"
	HintLSoft        = "l_soft"
	HintNone         = "none"
)

// Classifier holds the compiled detector configuration. Hint ids and tokens
// are kept in sorted order so result lists are reproducible run to run.
type Classifier struct {
	phi           []hintMatcher
	k             []hintMatcher
	tokens        []weightedToken
	hardThreshold int
}

type hintMatcher struct {
	id       string
	patterns []*regexp.Regexp
}

type weightedToken struct {
	token  string
	lower  string
	weight int
}

// Result carries the three detector outputs plus the resolved label.
type Result struct {
	PhiIDs   []string
	KIDs     []string
	LTokens  []string
	LScore   int
	GateHint string
}

// NewClassifier compiles the hint configuration. Any malformed pattern is a
// fatal configuration error.
func NewClassifier(hints *config.PolicyHints) (*Classifier, error) {
	phi, err := compileHints("phi", hints.Phi)
	if err != nil {
		return nil, err
	}
	k, err := compileHints("k", hints.K)
	if err != nil {
		return nil, err
	}

	tokens := make([]weightedToken, 0, len(hints.L.Weights))
	for token, weight := range hints.L.Weights {
		tokens = append(tokens, weightedToken{
			token:  token,
			lower:  strings.ToLower(token),
			weight: weight,
		})
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].token < tokens[j].token })

	return &Classifier{
		phi:           phi,
		k:             k,
		tokens:        tokens,
		hardThreshold: hints.L.HardThreshold,
	}, nil
}

func compileHints(gate string, m map[string]config.HintPatterns) ([]hintMatcher, error) {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	matchers := make([]hintMatcher, 0, len(ids))
	for _, id := range ids {
		hm := hintMatcher{id: id}
		for _, pattern := range m[id].Patterns {
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				return nil, fmt.Errorf("compile %s.%s pattern %q: %w", gate, id, pattern, err)
			}
			hm.patterns = append(hm.patterns, re)
		}
		matchers = append(matchers, hm)
	}
	return matchers, nil
}

// MatchPhi returns the Φ hint ids whose pattern lists match the claim text.
// A claim may match multiple ids; each id matches at most once.
func (c *Classifier) MatchPhi(text string) []string {
	return matchHints(c.phi, text)
}

// MatchK runs the Φ algorithm against the claim text concatenated with any
// associated ingredient strings.
func (c *Classifier) MatchK(text string, ingredients []string) []string {
	combined := text
	if len(ingredients) > 0 {
		combined = text + " " + strings.Join(ingredients, " ")
	}
	return matchHints(c.k, combined)
}

func matchHints(matchers []hintMatcher, text string) []string {
	var ids []string
	for _, m := range matchers {
		for _, re := range m.patterns {
			if re.MatchString(text) {
				ids = append(ids, m.id)
				break
			}
		}
	}
	return ids
}

// ScoreL sums the weights of configured tokens occurring as case-insensitive
// substrings. Each distinct token counts at most once regardless of how many
// times it appears.
func (c *Classifier) ScoreL(text string) (tokens []string, score int) {
	lower := strings.ToLower(text)
	for _, t := range c.tokens {
		if strings.Contains(lower, t.lower) {
			tokens = append(tokens, t.token)
			score += t.weight
		}
	}
	return tokens, score
}

// HardThreshold returns the configured L score threshold for l_hard.
func (c *Classifier) HardThreshold() int {
	return c.hardThreshold
}

// Classify runs all three detectors and resolves the label.
func (c *Classifier) Classify(text string, ingredients []string) Result {
	phiIDs := c.MatchPhi(text)
	kIDs := c.MatchK(text, ingredients)
	lTokens, lScore := c.ScoreL(text)

	return Result{
		PhiIDs:   phiIDs,
		KIDs:     kIDs,
		LTokens:  lTokens,
		LScore:   lScore,
		GateHint: c.Resolve(phiIDs, kIDs, lScore),
	}
}

// Resolve applies the fixed priority: K beats Φ beats L-hard beats L-soft.
// This ordering is part of the output contract and must not change.
func (c *Classifier) Resolve(phiIDs, kIDs []string, lScore int) string {
	switch {
	case len(kIDs) > 0:
		return HintKCandidate
	case len(phiIDs) > 0:
		return HintPhiCandidate
	case lScore >= c.hardThreshold:
		return HintLHard
	case lScore > 0:
		return HintLSoft
	default:
		return HintNone
	}
}
