// Package normalize folds the extraction stream into the two canonical
// tables. One streaming pass in encounter order: products initialize on first
// sight of an asin, claims get a global running ordinal, gate-hint results
// fold into the owning product (Φ OR, K OR, L max). Identical input and hint
// configuration produce byte-identical outputs.
package normalize

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tervyx/claimlens/internal/gate"
	"github.com/tervyx/claimlens/internal/logger"
	"github.com/tervyx/claimlens/internal/model"
	"github.com/tervyx/claimlens/internal/util"
)

// reviewThreshold: claims below this extraction confidence get review_needed.
const reviewThreshold = 0.8

// Documented defaults for missing sampling metadata. Never guessed values:
// an unjoined asin is treated as an unweighted representative random pick.
const (
	defaultCohort = "R"
	defaultMethod = "random"
)

// Normalizer is the serialized reducer: extraction may run in parallel
// upstream, but every per-asin fold happens here, on one goroutine.
type Normalizer struct {
	classifier *gate.Classifier
	targets    map[string]model.URLTarget
	captures   map[string]model.SourceCapture
	log        *logger.Logger

	products map[string]*model.ProductRecord
	order    []string // asin first-encounter order
	claims   []model.ClaimRecord
	ordinal  int // global running claim counter
}

// New creates a normalizer. targets joins sampling metadata; captures joins
// capture provenance. Either map may be sparse.
func New(classifier *gate.Classifier, targets map[string]model.URLTarget, captures map[string]model.SourceCapture, log *logger.Logger) *Normalizer {
	return &Normalizer{
		classifier: classifier,
		targets:    targets,
		captures:   captures,
		log:        log,
		products:   make(map[string]*model.ProductRecord),
	}
}

// Process folds one extraction record. Records must arrive in the producer's
// emission order; ordinal assignment is stable given that order.
func (n *Normalizer) Process(rec model.ExtractionRecord) error {
	product, ok := n.products[rec.ASIN]
	if !ok {
		product = n.initProduct(rec)
		n.products[rec.ASIN] = product
		n.order = append(n.order, rec.ASIN)
	}

	for _, raw := range rec.Claims {
		result := n.classifier.Classify(raw.Text, nil)

		product.PhiAnyCandidate = product.PhiAnyCandidate || len(result.PhiIDs) > 0
		product.KAnyCandidate = product.KAnyCandidate || len(result.KIDs) > 0
		if result.LScore > product.LMaxTokenScore {
			product.LMaxTokenScore = result.LScore
		}

		claimID := fmt.Sprintf("%s_c%04d", rec.ASIN, n.ordinal)
		n.ordinal++

		hash := sha256.Sum256([]byte(raw.Text))

		n.claims = append(n.claims, model.ClaimRecord{
			ASIN:                 rec.ASIN,
			ClaimID:              claimID,
			ClaimTextVerbatim:    raw.Text,
			ClaimType:            raw.ClaimType,
			ImpliedOutcome:       raw.ImpliedOutcome,
			Quantifier:           raw.Quantifier,
			Source:               raw.Source,
			OCRBBox:              raw.BBox,
			ExtractionModel:      rec.Extraction.Backend,
			ExtractionVersion:    rec.Extraction.Version,
			ExtractionTemp:       rec.Extraction.Temperature,
			ClaimSHA256:          hex.EncodeToString(hash[:]),
			PageSHA256:           rec.PageSHA256,
			ClaimScope:           "wellness",
			HasNumericQuantifier: raw.HasNumericQuantifier,
			QuantValue:           raw.QuantValue,
			QuantUnit:            raw.QuantUnit,
			Comparator:           raw.Comparator,
			PhiHintIDs:           marshalList(result.PhiIDs),
			KHintIDs:             marshalList(result.KIDs),
			LTokens:              marshalList(result.LTokens),
			LTokenScore:          result.LScore,
			IngredientHits:       "[]",
			ExtractConfidence:    raw.Confidence,
			GateHint:             result.GateHint,
			ReviewNeeded:         raw.Confidence < reviewThreshold,
		})
	}

	return nil
}

// initProduct builds the product row from joined sampling metadata, with the
// documented defaults where the join misses.
func (n *Normalizer) initProduct(rec model.ExtractionRecord) *model.ProductRecord {
	target, joined := n.targets[rec.ASIN]
	if !joined {
		n.log.Warn("asin missing from product-URL table, using defaults", "asin", rec.ASIN)
	}

	cohort := target.Cohort
	if cohort == "" {
		cohort = defaultCohort
	}
	method := target.Method
	if method == "" {
		method = defaultMethod
	}
	productURL := target.URL
	if productURL == "" {
		productURL = "https://www.amazon.com/dp/" + rec.ASIN
	}

	// Unweighted until the weight stage runs; T cohort rows stay empty since
	// weighting never applies to them.
	weight := ""
	if cohort == "R" {
		weight = "1.0"
	}

	capture := n.captures[rec.ASIN]

	return &model.ProductRecord{
		ASIN:             rec.ASIN,
		Platform:         "amazon",
		CategoryPath:     target.Stratum,
		InterventionType: "supplement",
		ProductTitle:     "Product " + rec.ASIN,
		Currency:         "USD",
		ProductURL:       productURL,
		WaybackURL:       capture.WaybackURL,
		CapturedAt:       capture.CapturedAt,
		SamplingCohort:   cohort,
		SelectionMethod:  method,
		SamplingWeight:   weight,
		FrameVersion:     model.SamplingFrameVersion,
		ProductSHA256:    rec.PageSHA256,
		IngredientsNorm:  "[]",
		RiskHits:         "[]",
	}
}

// WriteTables writes both canonical tables with their fixed column orders,
// through the atomic rename barrier.
func (n *Normalizer) WriteTables(productPath, claimsPath string) error {
	if err := util.WriteFileAtomic(productPath, n.writeProducts); err != nil {
		return err
	}
	if err := util.WriteFileAtomic(claimsPath, n.writeClaims); err != nil {
		return err
	}
	n.log.Info("normalization complete",
		"products", len(n.order), "claims", len(n.claims))
	return nil
}

func (n *Normalizer) writeProducts(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.ProductColumns); err != nil {
		return err
	}
	for _, asin := range n.order {
		if err := cw.Write(n.products[asin].Row()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (n *Normalizer) writeClaims(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.ClaimColumns); err != nil {
		return err
	}
	for i := range n.claims {
		if err := cw.Write(n.claims[i].Row()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Products returns the folded product rows in first-encounter order.
func (n *Normalizer) Products() []*model.ProductRecord {
	out := make([]*model.ProductRecord, len(n.order))
	for i, asin := range n.order {
		out[i] = n.products[asin]
	}
	return out
}

// Claims returns the emitted claim rows in emission order.
func (n *Normalizer) Claims() []model.ClaimRecord {
	return n.claims
}

// marshalList renders a string list as a JSON array, "[]" when empty.
func marshalList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(data)
}
