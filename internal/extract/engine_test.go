package extract

import (
	"context"
	"io"
	"testing"

	"github.com/tervyx/claimlens/internal/config"
	"github.com/tervyx/claimlens/internal/logger"
)

func quietLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, "error")
}

func TestEngine_RulesBackend(t *testing.T) {
	engine, err := NewEngine(testPolicy(), Options{}, quietLogger())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	claims, meta, err := engine.ExtractHTML(context.Background(), "B0TEST01", samplePage)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if meta.Backend != config.BackendRules {
		t.Errorf("Expected rules backend in metadata, got %s", meta.Backend)
	}
	if meta.Temperature != 0 {
		t.Errorf("Expected temperature 0, got %v", meta.Temperature)
	}
	if len(claims) == 0 {
		t.Fatal("Expected claims from the sample page")
	}
	for _, c := range claims {
		if !isVerbatim(c.Text, samplePage) {
			t.Errorf("Expected verbatim claim, got %q", c.Text)
		}
	}
}

func TestEngine_EmptyPage(t *testing.T) {
	engine, err := NewEngine(testPolicy(), Options{}, quietLogger())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	claims, _, err := engine.ExtractHTML(context.Background(), "B0TEST02", "<html><body></body></html>")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(claims) != 0 {
		t.Errorf("Expected no claims, got %v", claims)
	}
}

func TestEngine_LLMWithoutKeyDegradesToRules(t *testing.T) {
	policy := testPolicy()
	policy.Backend = config.BackendLLM
	policy.Model = "gpt-4o-mini"

	// No API key: construction of the structured backend fails and the
	// engine degrades to the rule-based path instead of erroring.
	engine, err := NewEngine(policy, Options{}, quietLogger())
	if err != nil {
		t.Fatalf("Expected degraded engine, got %v", err)
	}

	_, meta, err := engine.ExtractHTML(context.Background(), "B0TEST03", samplePage)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if meta.Backend != config.BackendRules {
		t.Errorf("Expected rules fallback backend, got %s", meta.Backend)
	}
}

func TestParseClaimsJSON(t *testing.T) {
	envelope := `{"claims": [{"text": "Clinically proven", "claim_type": "efficacy"}]}`
	claims, err := parseClaimsJSON(envelope)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(claims) != 1 || claims[0].Text != "Clinically proven" {
		t.Errorf("Expected envelope parse, got %v", claims)
	}

	bare := `[{"text": "Guaranteed results"}]`
	claims, err = parseClaimsJSON(bare)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(claims) != 1 || claims[0].Text != "Guaranteed results" {
		t.Errorf("Expected bare array parse, got %v", claims)
	}

	if _, err := parseClaimsJSON("not json"); err == nil {
		t.Error("Expected error for malformed content")
	}
}
