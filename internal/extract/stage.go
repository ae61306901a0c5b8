package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tervyx/claimlens/internal/logger"
	"github.com/tervyx/claimlens/internal/model"
	"github.com/tervyx/claimlens/internal/worker"
)

// Stage runs extraction over a whole capture set. Per-asset jobs run in
// parallel on a bounded pool; results come back in input order so the output
// stream is reproducible.
type Stage struct {
	engine  *Engine
	htmlDir string
	workers int
	log     *logger.Logger
}

// NewStage creates an extraction stage.
func NewStage(engine *Engine, htmlDir string, workers int, log *logger.Logger) *Stage {
	if workers <= 0 {
		workers = 1
	}
	return &Stage{engine: engine, htmlDir: htmlDir, workers: workers, log: log}
}

type assetJob struct {
	stage   *Stage
	capture model.SourceCapture
	asset   *model.AssetRecord // nil for the page's own HTML
}

type assetResult struct {
	record *model.ExtractionRecord // nil when the asset was skipped
	err    error
}

func (r *assetResult) GetError() error { return r.err }

// Execute extracts one asset. Missing or unreachable content is a skip, not a
// failure.
func (j *assetJob) Execute(ctx context.Context) worker.Result {
	if j.asset == nil {
		return j.executeHTML(ctx)
	}
	return j.executeImage(ctx)
}

func (j *assetJob) executeHTML(ctx context.Context) worker.Result {
	asin := j.capture.ASIN
	htmlPath := filepath.Join(j.stage.htmlDir, asin+".html")

	data, err := os.ReadFile(htmlPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			j.stage.log.Info("cached page missing, skipping", "asin", asin, "path", htmlPath)
			return &assetResult{}
		}
		return &assetResult{err: fmt.Errorf("read %s: %w", htmlPath, err)}
	}

	claims, meta, err := j.stage.engine.ExtractHTML(ctx, asin, string(data))
	if err != nil {
		return &assetResult{err: err}
	}
	if len(claims) == 0 {
		return &assetResult{}
	}

	return &assetResult{record: &model.ExtractionRecord{
		ASIN:       asin,
		AssetID:    asin + "_html",
		Source:     model.SourceHTML,
		Extraction: meta,
		Claims:     claims,
		PageSHA256: j.capture.PageSHA256,
	}}
}

func (j *assetJob) executeImage(ctx context.Context) worker.Result {
	claims, meta, err := j.stage.engine.ExtractImage(ctx, *j.asset)
	if err != nil {
		if errors.Is(err, ErrSourceUnavailable) {
			j.stage.log.Info("asset unavailable, skipping",
				"asin", j.asset.ASIN, "asset_id", j.asset.AssetID, "error", err)
			return &assetResult{}
		}
		return &assetResult{err: err}
	}
	if len(claims) == 0 {
		return &assetResult{}
	}

	return &assetResult{record: &model.ExtractionRecord{
		ASIN:       j.asset.ASIN,
		AssetID:    j.asset.AssetID,
		Source:     model.SourceImage,
		Extraction: meta,
		Claims:     claims,
		PageSHA256: j.capture.PageSHA256,
	}}
}

// Run extracts every capture's HTML and its image assets, in capture order
// (images after the owning page, as the assets index lists them).
func (s *Stage) Run(ctx context.Context, captures []model.SourceCapture, assets []model.AssetRecord) ([]model.ExtractionRecord, error) {
	byASIN := make(map[string][]model.AssetRecord)
	for _, a := range assets {
		if a.AssetType == model.AssetTypeImage {
			byASIN[a.ASIN] = append(byASIN[a.ASIN], a)
		}
	}

	var jobs []worker.Job
	for _, capture := range captures {
		jobs = append(jobs, &assetJob{stage: s, capture: capture})
		for i := range byASIN[capture.ASIN] {
			asset := byASIN[capture.ASIN][i]
			jobs = append(jobs, &assetJob{stage: s, capture: capture, asset: &asset})
		}
	}

	pool := worker.NewPool(s.workers)
	results := pool.Run(ctx, jobs)

	var records []model.ExtractionRecord
	for _, res := range results {
		if res == nil {
			return nil, ctx.Err()
		}
		if err := res.GetError(); err != nil {
			return nil, err
		}
		if ar := res.(*assetResult); ar.record != nil {
			records = append(records, *ar.record)
		}
	}

	total := 0
	for _, r := range records {
		total += len(r.Claims)
	}
	s.log.Info("extraction complete",
		"pages", len(captures), "records", len(records), "claims", total)

	return records, nil
}
