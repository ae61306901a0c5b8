package model

// SourceKind identifies the kind of asset a claim was extracted from.
type SourceKind string

const (
	SourceHTML  SourceKind = "html"
	SourceImage SourceKind = "image"
)

// AssetType classifies entries in the assets index.
type AssetType string

const (
	AssetTypeHTML  AssetType = "html"
	AssetTypeImage AssetType = "image"
)

// WaybackNotArchived is the explicit archive state for assets that are never
// sent to the archival service (image assets). It is deliberately not an empty
// string: the validator's coercion convention reads "" as NULL.
const WaybackNotArchived = "not_archived"

// SourceCapture is one fetched page as recorded by the scraping stage.
// Immutable input to extraction.
type SourceCapture struct {
	ASIN       string
	PageSHA256 string
	CapturedAt string // RFC3339, UTC
	StatusCode int
	WaybackURL string
}

// AssetRecord is one entry of the assets index (the page itself plus any
// product images discovered on it). Immutable input to extraction.
type AssetRecord struct {
	ASIN      string
	AssetID   string
	AssetType AssetType
	URL       string
	SHA256    string
	// WaybackURL is the archive URL for the page asset, or WaybackNotArchived
	// for image assets, which are never sent to the archival service.
	WaybackURL string
}

// ExtractionMeta records how a set of claims was produced. Temperature is part
// of the determinism contract: the validator rejects any row where it is not 0.
type ExtractionMeta struct {
	Backend     string  `json:"model"`
	Version     string  `json:"version"`
	Temperature float64 `json:"temperature"`
}

// RawClaim is a verbatim claim candidate as emitted by an extraction backend.
type RawClaim struct {
	Text                 string     `json:"text"`
	Source               SourceKind `json:"source"`
	Confidence           float64    `json:"confidence"`
	BBox                 string     `json:"bbox,omitempty"`
	ClaimType            string     `json:"claim_type"`
	ImpliedOutcome       string     `json:"implied_outcome"`
	Quantifier           string     `json:"quantifier"`
	HasNumericQuantifier bool       `json:"has_numeric_quantifier"`
	QuantValue           string     `json:"quant_value,omitempty"`
	QuantUnit            string     `json:"quant_unit,omitempty"`
	Comparator           string     `json:"comparator,omitempty"`
}

// ExtractionRecord is one line of the extraction stream: all claims produced
// from a single asset. Created once by the extraction stage, never mutated.
type ExtractionRecord struct {
	ASIN       string         `json:"asin"`
	AssetID    string         `json:"asset_id"`
	Source     SourceKind     `json:"source"`
	Extraction ExtractionMeta `json:"extraction"`
	Claims     []RawClaim     `json:"claims"`
	PageSHA256 string         `json:"page_sha256"`
}

// URLTarget is one row of the product-URL table produced by the sampling
// stage and joined by the normalizer.
type URLTarget struct {
	ASIN         string
	URL          string
	Cohort       string // "R" (representative) or "T" (targeted)
	Method       string // "random" or "keyword"
	CategoryHint string
	Stratum      string
}
