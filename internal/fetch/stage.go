package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/tervyx/claimlens/internal/logger"
	"github.com/tervyx/claimlens/internal/model"
	"github.com/tervyx/claimlens/internal/util"
)

var (
	pageColumns  = []string{"asin", "url", "page_sha256", "captured_at", "status_code", "wayback_url"}
	assetColumns = []string{"asin", "asset_id", "asset_type", "url", "sha256", "wayback_url"}
)

// Stage runs the fetch pass: one capture per URL target, page payloads to
// disk, pages and assets indexes to CSV. Targets are fetched serially in
// table order so the indexes are reproducible.
type Stage struct {
	fetcher *Fetcher
	htmlDir string
	log     *logger.Logger

	// now is swapped out in tests.
	now func() time.Time
}

// NewStage creates a fetch stage writing page payloads under htmlDir.
func NewStage(fetcher *Fetcher, htmlDir string, log *logger.Logger) *Stage {
	return &Stage{
		fetcher: fetcher,
		htmlDir: htmlDir,
		log:     log,
		now:     time.Now,
	}
}

// Run fetches every target and writes the pages and assets indexes. A target
// whose retries are exhausted still gets a capture row, with status 0 and an
// empty digest, so downstream stages can account for it.
func (s *Stage) Run(ctx context.Context, targets []model.URLTarget, pagesPath, assetsPath string) error {
	if err := os.MkdirAll(s.htmlDir, 0o755); err != nil {
		return fmt.Errorf("create html dir: %w", err)
	}

	var captures []model.SourceCapture
	var assets []model.AssetRecord

	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		capture, pageAssets := s.fetchTarget(ctx, target)
		captures = append(captures, capture)
		assets = append(assets, pageAssets...)
	}

	if err := writePagesTable(pagesPath, targets, captures); err != nil {
		return err
	}
	if err := writeAssetsTable(assetsPath, assets); err != nil {
		return err
	}

	fetched := 0
	for _, c := range captures {
		if c.PageSHA256 != "" {
			fetched++
		}
	}
	s.log.Info("fetch complete", "targets", len(targets), "fetched", fetched,
		"failed", len(targets)-fetched, "assets", len(assets))
	return nil
}

func (s *Stage) fetchTarget(ctx context.Context, target model.URLTarget) (model.SourceCapture, []model.AssetRecord) {
	capturedAt := s.now().UTC().Format(time.RFC3339)

	result, err := s.fetcher.Fetch(ctx, target.URL)
	if err != nil {
		s.log.Warn("target unavailable", "asin", target.ASIN, "url", target.URL, "error", err)
		return model.SourceCapture{
			ASIN:       target.ASIN,
			CapturedAt: capturedAt,
			StatusCode: 0,
		}, nil
	}

	digest := sha256.Sum256(result.Body)
	pageSHA := hex.EncodeToString(digest[:])

	htmlPath := filepath.Join(s.htmlDir, target.ASIN+".html")
	err = util.WriteFileAtomic(htmlPath, func(w io.Writer) error {
		_, werr := w.Write(result.Body)
		return werr
	})
	if err != nil {
		s.log.Warn("page write failed", "asin", target.ASIN, "error", err)
		return model.SourceCapture{
			ASIN:       target.ASIN,
			CapturedAt: capturedAt,
			StatusCode: 0,
		}, nil
	}

	waybackURL := ""
	if archived, aerr := s.fetcher.ArchivePage(ctx, target.URL); aerr != nil {
		s.log.Warn("archive failed", "asin", target.ASIN, "error", aerr)
	} else {
		waybackURL = archived
	}

	capture := model.SourceCapture{
		ASIN:       target.ASIN,
		PageSHA256: pageSHA,
		CapturedAt: capturedAt,
		StatusCode: result.StatusCode,
		WaybackURL: waybackURL,
	}

	assets := []model.AssetRecord{{
		ASIN:       target.ASIN,
		AssetID:    target.ASIN + "_html",
		AssetType:  model.AssetTypeHTML,
		URL:        target.URL,
		SHA256:     pageSHA,
		WaybackURL: waybackURL,
	}}
	for i, imgURL := range ExtractImageURLs(string(result.Body)) {
		// Image bodies are not fetched; the digest covers the URL so the row
		// still carries a stable identity.
		urlDigest := sha256.Sum256([]byte(imgURL))
		assets = append(assets, model.AssetRecord{
			ASIN:       target.ASIN,
			AssetID:    fmt.Sprintf("%s_img%02d", target.ASIN, i+1),
			AssetType:  model.AssetTypeImage,
			URL:        imgURL,
			SHA256:     hex.EncodeToString(urlDigest[:]),
			WaybackURL: model.WaybackNotArchived,
		})
	}
	return capture, assets
}

func writePagesTable(path string, targets []model.URLTarget, captures []model.SourceCapture) error {
	return util.WriteFileAtomic(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(pageColumns); err != nil {
			return err
		}
		for i, c := range captures {
			row := []string{
				c.ASIN,
				targets[i].URL,
				c.PageSHA256,
				c.CapturedAt,
				fmt.Sprintf("%d", c.StatusCode),
				c.WaybackURL,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

func writeAssetsTable(path string, assets []model.AssetRecord) error {
	return util.WriteFileAtomic(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(assetColumns); err != nil {
			return err
		}
		for _, a := range assets {
			row := []string{a.ASIN, a.AssetID, string(a.AssetType), a.URL, a.SHA256, a.WaybackURL}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}
