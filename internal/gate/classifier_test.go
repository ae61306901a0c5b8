package gate

import (
	"reflect"
	"testing"

	"github.com/tervyx/claimlens/internal/config"
)

func testHints() *config.PolicyHints {
	return &config.PolicyHints{
		Phi: map[string]config.HintPatterns{
			"disease_claim": {Patterns: []string{`cure[sd]?\s`, `prevent[s]?\s+(disease|illness)`}},
			"drug_equiv":    {Patterns: []string{`works?\s+like\s+prescription`}},
		},
		K: map[string]config.HintPatterns{
			"dosage": {Patterns: []string{`\d+\s?mg\b`}},
		},
		L: config.LexicalHints{
			HardThreshold: 3,
			Weights: map[string]int{
				"proven":     2,
				"clinically": 2,
				"guaranteed": 2,
				"effective":  1,
			},
		},
	}
}

func TestClassifier_WeightedTokenScoring(t *testing.T) {
	c, err := NewClassifier(testHints())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	result := c.Classify("Clinically proven to improve sleep quality by 87%", nil)

	// clinically(2) + proven(2) = 4, at or above the threshold
	if result.LScore != 4 {
		t.Errorf("Expected L score 4, got %d", result.LScore)
	}
	if result.GateHint != HintLHard {
		t.Errorf("Expected gate hint %q, got %q", HintLHard, result.GateHint)
	}
	if !reflect.DeepEqual(result.LTokens, []string{"clinically", "proven"}) {
		t.Errorf("Expected sorted tokens [clinically proven], got %v", result.LTokens)
	}
}

func TestClassifier_TokenCountsOnce(t *testing.T) {
	c, err := NewClassifier(testHints())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// "proven" appears twice but scores once
	_, score := c.ScoreL("Proven formula, proven results")
	if score != 2 {
		t.Errorf("Expected score 2 for repeated token, got %d", score)
	}
}

func TestClassifier_KBeatsEverything(t *testing.T) {
	c, err := NewClassifier(testHints())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Matches K, Phi and L simultaneously; K must win
	result := c.Classify("Clinically proven cure for colds, take 500 mg daily", nil)

	if len(result.KIDs) == 0 {
		t.Fatal("Expected a K match")
	}
	if len(result.PhiIDs) == 0 {
		t.Fatal("Expected a Phi match")
	}
	if result.GateHint != HintKCandidate {
		t.Errorf("Expected gate hint %q, got %q", HintKCandidate, result.GateHint)
	}
}

func TestClassifier_PhiBeatsL(t *testing.T) {
	c, err := NewClassifier(testHints())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	result := c.Classify("Guaranteed to cure insomnia, clinically proven", nil)
	if result.GateHint != HintPhiCandidate {
		t.Errorf("Expected gate hint %q, got %q", HintPhiCandidate, result.GateHint)
	}
}

func TestClassifier_SoftAndNone(t *testing.T) {
	c, err := NewClassifier(testHints())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	result := c.Classify("Effective herbal blend", nil)
	if result.GateHint != HintLSoft {
		t.Errorf("Expected gate hint %q, got %q", HintLSoft, result.GateHint)
	}

	result = c.Classify("A bottle of capsules", nil)
	if result.GateHint != HintNone {
		t.Errorf("Expected gate hint %q, got %q", HintNone, result.GateHint)
	}
	if result.LScore != 0 || len(result.PhiIDs) != 0 || len(result.KIDs) != 0 {
		t.Errorf("Expected empty result, got %+v", result)
	}
}

func TestClassifier_IDMatchesOnce(t *testing.T) {
	c, err := NewClassifier(testHints())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Both disease_claim patterns match, but the id must appear once
	ids := c.MatchPhi("Cures colds and prevents illness")
	if !reflect.DeepEqual(ids, []string{"disease_claim"}) {
		t.Errorf("Expected [disease_claim], got %v", ids)
	}
}

func TestClassifier_KUsesIngredients(t *testing.T) {
	c, err := NewClassifier(testHints())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Dosage pattern only matches through the ingredient strings
	ids := c.MatchK("Supports restful sleep", []string{"melatonin 10 mg"})
	if !reflect.DeepEqual(ids, []string{"dosage"}) {
		t.Errorf("Expected [dosage], got %v", ids)
	}
	if ids := c.MatchK("Supports restful sleep", nil); len(ids) != 0 {
		t.Errorf("Expected no K match without ingredients, got %v", ids)
	}
}

func TestNewClassifier_BadPattern(t *testing.T) {
	hints := testHints()
	hints.Phi["broken"] = config.HintPatterns{Patterns: []string{"("}}

	if _, err := NewClassifier(hints); err == nil {
		t.Error("Expected error for malformed pattern")
	}
}
