package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tervyx/claimlens/internal/config"
	"github.com/tervyx/claimlens/internal/model"
)

// llmConfidence marks structured extraction at temperature 0.
const llmConfidence = 0.9

const extractionSystemPrompt = "You extract verbatim health and efficacy claims " +
	"from product listings. You never judge, evaluate, or add claims that are " +
	"not in the text."

// LLMBackend is the structured extraction backend. Sampling temperature is
// hard-pinned to 0; there is no configuration path to change it.
type LLMBackend struct {
	client    *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

// NewLLMBackend creates the structured backend. BaseURL allows
// OpenAI-compatible self-hosted endpoints.
func NewLLMBackend(policy *config.ExtractionPolicy, apiKey, baseURL string) (*LLMBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llm backend: API key is required")
	}
	if policy.Model == "" {
		return nil, fmt.Errorf("llm backend: model name is required")
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	return &LLMBackend{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     policy.Model,
		maxTokens: policy.MaxTokens,
		timeout:   time.Duration(policy.TimeoutSec) * time.Second,
	}, nil
}

// Name returns the backend name recorded in extraction metadata.
func (b *LLMBackend) Name() string {
	return config.BackendLLM
}

// llmClaim is the structured response row.
type llmClaim struct {
	Text                 string `json:"text"`
	ClaimType            string `json:"claim_type"`
	ImpliedOutcome       string `json:"implied_outcome"`
	Quantifier           string `json:"quantifier"`
	HasNumericQuantifier bool   `json:"has_numeric_quantifier"`
	QuantValue           string `json:"quant_value"`
	QuantUnit            string `json:"quant_unit"`
	Comparator           string `json:"comparator"`
}

// Extract runs one JSON-mode chat completion over the zone texts. Claims
// failing the verbatim check are dropped individually; transport errors and
// malformed responses are returned to the caller, which falls back to the
// rule-based path.
func (b *LLMBackend) Extract(ctx context.Context, zones ZoneSet) ([]model.RawClaim, error) {
	if len(zones.Zones) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractionSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildExtractionPrompt(zones)},
		},
		MaxTokens:   b.maxTokens,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := b.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty completion response")
	}

	parsed, err := parseClaimsJSON(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("malformed structured response: %w", err)
	}

	source := zones.CombinedText()
	var claims []model.RawClaim
	for _, c := range parsed {
		if !isVerbatim(c.Text, source) {
			continue
		}
		claims = append(claims, model.RawClaim{
			Text:                 collapseWhitespace(c.Text),
			Source:               model.SourceHTML,
			Confidence:           llmConfidence,
			ClaimType:            defaultString(c.ClaimType, "unknown"),
			ImpliedOutcome:       c.ImpliedOutcome,
			Quantifier:           c.Quantifier,
			HasNumericQuantifier: c.HasNumericQuantifier,
			QuantValue:           c.QuantValue,
			QuantUnit:            c.QuantUnit,
			Comparator:           c.Comparator,
		})
	}
	return claims, nil
}

// ocrCleanupConfidence marks OCR text that went through structured cleanup.
const ocrCleanupConfidence = 0.75

// CleanupOCR runs a temperature-0 cleanup pass over raw OCR text. The model
// may restructure and fix recognition errors but is instructed never to add
// claims; output is still capped to what the OCR produced.
func (b *LLMBackend) CleanupOCR(ctx context.Context, rawText string) ([]model.RawClaim, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	prompt := `Clean up this OCR text and extract any health/efficacy claims.

OCR may have errors. Fix obvious typos but preserve original meaning.
DO NOT add claims that are not in the text.

Return a JSON object: {"claims": [{"text": "cleaned claim text", "claim_type": "efficacy", "quantifier": "..."}]}

OCR text:
` + rawText

	req := openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractionSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   b.maxTokens,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := b.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("ocr cleanup: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty cleanup response")
	}

	parsed, err := parseClaimsJSON(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("malformed cleanup response: %w", err)
	}

	var claims []model.RawClaim
	for _, c := range parsed {
		if strings.TrimSpace(c.Text) == "" {
			continue
		}
		claims = append(claims, model.RawClaim{
			Text:                 collapseWhitespace(c.Text),
			Source:               model.SourceImage,
			Confidence:           ocrCleanupConfidence,
			ClaimType:            defaultString(c.ClaimType, "unknown"),
			ImpliedOutcome:       c.ImpliedOutcome,
			Quantifier:           c.Quantifier,
			HasNumericQuantifier: c.HasNumericQuantifier || c.Quantifier != "",
		})
	}
	return claims, nil
}

func buildExtractionPrompt(zones ZoneSet) string {
	var b strings.Builder
	b.WriteString(`Extract ALL health, efficacy, or medical claims from this product page.

RULES:
- Return verbatim claim text (no paraphrasing)
- Include quantifiers (percentages, numbers, timeframes)
- Classify claim_type: efficacy | safety | mechanism | medical
- Extract implied_outcome if obvious (sleep, hair_growth, weight_loss, pain_relief, etc.)
- DO NOT make judgments or evaluations
- DO NOT add claims that are not in the text

Return a JSON object: {"claims": [{"text": "...", "claim_type": "efficacy", "implied_outcome": "...", "quantifier": "...", "has_numeric_quantifier": true}]}

Product text:
`)
	for _, zone := range zones.Zones {
		fmt.Fprintf(&b, "\n[%s]\n%s\n", strings.ToUpper(zone.Name), zone.Text)
	}
	return b.String()
}

// parseClaimsJSON accepts both the requested {"claims": [...]} envelope and a
// bare array.
func parseClaimsJSON(content string) ([]llmClaim, error) {
	content = strings.TrimSpace(content)

	var envelope struct {
		Claims []llmClaim `json:"claims"`
	}
	if err := json.Unmarshal([]byte(content), &envelope); err == nil && envelope.Claims != nil {
		return envelope.Claims, nil
	}

	var bare []llmClaim
	if err := json.Unmarshal([]byte(content), &bare); err != nil {
		return nil, err
	}
	return bare, nil
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
