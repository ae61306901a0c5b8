// Package extract turns one asset (a cached product page or a product image)
// into verbatim claim candidates. Backends are interchangeable and selected by
// the extraction policy; the rule-based path is always available as fallback.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/tervyx/claimlens/internal/config"
	"github.com/tervyx/claimlens/internal/logger"
	"github.com/tervyx/claimlens/internal/model"
)

// ErrSourceUnavailable marks missing cached content or an unreachable asset.
// Callers skip the asset and continue; this is a normal condition, not a
// pipeline abort.
var ErrSourceUnavailable = errors.New("source content unavailable")

// ocrDirectConfidence marks single-claim OCR output without cleanup.
const ocrDirectConfidence = 0.7

// ocrClaimCap limits raw OCR claim text length, in runes.
const ocrClaimCap = 500

// Backend extracts claims from one asset's structural zones.
type Backend interface {
	Name() string
	Extract(ctx context.Context, zones ZoneSet) ([]model.RawClaim, error)
}

// Engine orchestrates backend selection, the image path, and the fallback
// policy.
type Engine struct {
	policy   *config.ExtractionPolicy
	backend  Backend
	fallback *RulesBackend
	llm      *LLMBackend // nil when not configured; also serves OCR cleanup
	ocr      *OCREngine
	log      *logger.Logger

	httpClient   *http.Client
	warnNoOCR    sync.Once
	metaFallback model.ExtractionMeta
	metaPrimary  model.ExtractionMeta
}

// Options carries credentials for the structured backend.
type Options struct {
	APIKey  string
	BaseURL string
}

// NewEngine builds the engine from the extraction policy. A configured LLM
// backend that cannot be constructed degrades to rules with a warning; bad
// rule patterns are fatal.
func NewEngine(policy *config.ExtractionPolicy, opts Options, log *logger.Logger) (*Engine, error) {
	rules, err := NewRulesBackend(policy)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		policy:   policy,
		backend:  rules,
		fallback: rules,
		ocr:      NewOCREngine(policy.OCR),
		log:      log,
		httpClient: &http.Client{
			Timeout: time.Duration(policy.TimeoutSec) * time.Second,
		},
	}

	if policy.Backend == config.BackendLLM {
		llm, err := NewLLMBackend(policy, opts.APIKey, opts.BaseURL)
		if err != nil {
			log.Warn("llm backend unavailable, using rule-based extraction", "error", err)
		} else {
			e.backend = llm
			e.llm = llm
		}
	}

	e.metaPrimary = model.ExtractionMeta{
		Backend:     e.backend.Name(),
		Version:     policy.Version,
		Temperature: policy.Temperature,
	}
	e.metaFallback = model.ExtractionMeta{
		Backend:     rules.Name(),
		Version:     policy.Version,
		Temperature: policy.Temperature,
	}

	return e, nil
}

// ExtractHTML runs the configured backend over the page's structural zones.
// Backend failure falls back to the rule-based path with an operator-visible
// warning; the data itself carries no failure flag.
func (e *Engine) ExtractHTML(ctx context.Context, asin, htmlContent string) ([]model.RawClaim, model.ExtractionMeta, error) {
	zones, err := ParseZones(asin, htmlContent)
	if err != nil {
		return nil, model.ExtractionMeta{}, fmt.Errorf("parse zones for %s: %w", asin, err)
	}
	if len(zones.Zones) == 0 {
		return nil, e.metaPrimary, nil
	}

	claims, err := e.backend.Extract(ctx, zones)
	if err != nil {
		if e.backend == Backend(e.fallback) {
			return nil, e.metaFallback, err
		}
		e.log.Warn("extraction backend failed, falling back to rules",
			"asin", asin, "backend", e.backend.Name(), "error", err)
		claims, err = e.fallback.Extract(ctx, zones)
		if err != nil {
			return nil, e.metaFallback, err
		}
		return claims, e.metaFallback, nil
	}
	return claims, e.metaPrimary, nil
}

// ExtractImage downloads the asset, runs OCR with per-token confidence
// filtering, and either passes the text through the temperature-0 cleanup
// step or applies the rule patterns directly. An unavailable OCR engine or
// unreachable image yields zero claims, never an error that stops the run.
func (e *Engine) ExtractImage(ctx context.Context, asset model.AssetRecord) ([]model.RawClaim, model.ExtractionMeta, error) {
	meta := e.metaFallback
	meta.Backend = "ocr+" + meta.Backend

	if !e.ocr.Available() {
		e.warnNoOCR.Do(func() {
			e.log.Warn("ocr engine unavailable, skipping image assets", "binary", e.policy.OCR.Binary)
		})
		return nil, meta, nil
	}

	imagePath, err := e.downloadImage(ctx, asset)
	if err != nil {
		return nil, meta, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, asset.AssetID, err)
	}
	defer os.Remove(imagePath)

	tokens, err := e.ocr.Recognize(ctx, imagePath)
	if err != nil {
		e.log.Warn("ocr failed, skipping image", "asin", asset.ASIN, "asset_id", asset.AssetID, "error", err)
		return nil, meta, nil
	}
	if len(tokens) == 0 {
		return nil, meta, nil
	}

	rawText := JoinTokens(tokens)

	if e.policy.OCR.LLMCleanup && e.llm != nil {
		claims, err := e.llm.CleanupOCR(ctx, rawText)
		if err == nil {
			for i := range claims {
				claims[i].BBox = ""
			}
			return claims, model.ExtractionMeta{
				Backend:     "ocr+" + e.llm.Name(),
				Version:     e.policy.Version,
				Temperature: e.policy.Temperature,
			}, nil
		}
		e.log.Warn("ocr cleanup failed, using rule patterns",
			"asin", asset.ASIN, "asset_id", asset.AssetID, "error", err)
	}

	if !e.fallback.MatchesAny(rawText) {
		return nil, meta, nil
	}

	claim := model.RawClaim{
		Text:                 truncateRunes(rawText, ocrClaimCap),
		Source:               model.SourceImage,
		Confidence:           ocrDirectConfidence,
		BBox:                 FormatBBoxes(tokens),
		ClaimType:            "unknown",
		HasNumericQuantifier: numericPattern.MatchString(rawText),
	}
	return []model.RawClaim{claim}, meta, nil
}

// downloadImage fetches the asset into a temp file for the OCR binary.
func (e *Engine) downloadImage(ctx context.Context, asset model.AssetRecord) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.URL, nil)
	if err != nil {
		return "", err
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "claimlens-asset-*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
