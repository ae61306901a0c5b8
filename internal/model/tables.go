package model

import "strconv"

// The two canonical tables have fixed, versioned column orders. Downstream
// consumers and the validator depend on these exact sequences; never reorder.

// SamplingFrameVersion tags which sampling frame produced a product row.
const SamplingFrameVersion = "v2025-11-12"

// ProductColumns is the frozen column order of product_info.csv.
var ProductColumns = []string{
	"asin",
	"platform",
	"category_path",
	"intervention_type",
	"product_title",
	"brand",
	"price",
	"currency",
	"product_url",
	"wayback_url",
	"captured_at",
	"sampling_cohort",
	"selection_method",
	"sampling_weight",
	"sampling_frame_version",
	"product_sha256",
	"ingredients_raw",
	"ingredients_norm",
	"risk_hits",
	"fda_warning_match",
	"phi_any_candidate",
	"k_any_candidate",
	"l_max_token_score",
}

// ClaimColumns is the frozen column order of claims.csv.
var ClaimColumns = []string{
	"asin",
	"claim_id",
	"claim_text_verbatim",
	"claim_type",
	"implied_outcome",
	"quantifier",
	"has_citation",
	"source",
	"ocr_bbox",
	"extraction_model",
	"extraction_version",
	"extraction_temperature",
	"claim_sha256",
	"page_sha256",
	"claim_scope",
	"has_numeric_quantifier",
	"quant_value",
	"quant_unit",
	"comparator",
	"phi_hint_ids",
	"k_hint_ids",
	"l_tokens",
	"l_token_score",
	"ingredient_hits",
	"medical_scope_flag",
	"evidence_anchor_id",
	"extract_confidence",
	"claim_group_id",
	"gate_hint",
	"review_needed",
}

// ProductRecord is one row of product_info.csv. Gate aggregates are folded in
// by the normalizer; SamplingWeight is rewritten later by the weight stage and
// every other column stays byte-identical.
type ProductRecord struct {
	ASIN             string
	Platform         string
	CategoryPath     string
	InterventionType string
	ProductTitle     string
	Brand            string
	Price            string
	Currency         string
	ProductURL       string
	WaybackURL       string
	CapturedAt       string
	SamplingCohort   string
	SelectionMethod  string
	SamplingWeight   string
	FrameVersion     string
	ProductSHA256    string
	IngredientsRaw   string
	IngredientsNorm  string
	RiskHits         string
	FDAWarningMatch  bool
	PhiAnyCandidate  bool
	KAnyCandidate    bool
	LMaxTokenScore   int
}

// Row renders the record in ProductColumns order.
func (p *ProductRecord) Row() []string {
	return []string{
		p.ASIN,
		p.Platform,
		p.CategoryPath,
		p.InterventionType,
		p.ProductTitle,
		p.Brand,
		p.Price,
		p.Currency,
		p.ProductURL,
		p.WaybackURL,
		p.CapturedAt,
		p.SamplingCohort,
		p.SelectionMethod,
		p.SamplingWeight,
		p.FrameVersion,
		p.ProductSHA256,
		p.IngredientsRaw,
		p.IngredientsNorm,
		p.RiskHits,
		formatBool(p.FDAWarningMatch),
		formatBool(p.PhiAnyCandidate),
		formatBool(p.KAnyCandidate),
		strconv.Itoa(p.LMaxTokenScore),
	}
}

// ClaimRecord is one row of claims.csv. Immutable once written.
type ClaimRecord struct {
	ASIN                 string
	ClaimID              string
	ClaimTextVerbatim    string
	ClaimType            string
	ImpliedOutcome       string
	Quantifier           string
	HasCitation          bool
	Source               SourceKind
	OCRBBox              string
	ExtractionModel      string
	ExtractionVersion    string
	ExtractionTemp       float64
	ClaimSHA256          string
	PageSHA256           string
	ClaimScope           string
	HasNumericQuantifier bool
	QuantValue           string
	QuantUnit            string
	Comparator           string
	PhiHintIDs           string // JSON array of hint ids
	KHintIDs             string // JSON array of hint ids
	LTokens              string // JSON array of matched tokens
	LTokenScore          int
	IngredientHits       string
	MedicalScopeFlag     bool
	EvidenceAnchorID     string
	ExtractConfidence    float64
	ClaimGroupID         string
	GateHint             string
	ReviewNeeded         bool
}

// Row renders the record in ClaimColumns order.
func (c *ClaimRecord) Row() []string {
	return []string{
		c.ASIN,
		c.ClaimID,
		c.ClaimTextVerbatim,
		c.ClaimType,
		c.ImpliedOutcome,
		c.Quantifier,
		formatBool(c.HasCitation),
		string(c.Source),
		c.OCRBBox,
		c.ExtractionModel,
		c.ExtractionVersion,
		formatFloat(c.ExtractionTemp),
		c.ClaimSHA256,
		c.PageSHA256,
		c.ClaimScope,
		formatBool(c.HasNumericQuantifier),
		c.QuantValue,
		c.QuantUnit,
		c.Comparator,
		c.PhiHintIDs,
		c.KHintIDs,
		c.LTokens,
		strconv.Itoa(c.LTokenScore),
		c.IngredientHits,
		formatBool(c.MedicalScopeFlag),
		c.EvidenceAnchorID,
		formatFloat(c.ExtractConfidence),
		c.ClaimGroupID,
		c.GateHint,
		formatBool(c.ReviewNeeded),
	}
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
