package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tervyx/claimlens/internal/logger"
	"github.com/tervyx/claimlens/internal/model"
)

const stagePage = `<html><body>
<span id="productTitle">Sleep Gummies</span>
<img src="https://m.media-amazon.com/images/I/71abc.jpg">
</body></html>`

func TestStage_Run(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(stagePage))
	}))
	defer srv.Close()

	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	policy := testScrapingPolicy()
	policy.MaxRetries = 0
	f, _ := newTestFetcher(policy, nil)

	dir := t.TempDir()
	htmlDir := filepath.Join(dir, "html")
	stage := NewStage(f, htmlDir, logger.NewWithWriter(io.Discard, "error"))
	stage.now = func() time.Time {
		return time.Date(2025, 11, 12, 8, 0, 0, 0, time.UTC)
	}

	targets := []model.URLTarget{
		{ASIN: "B0GOOD", URL: srv.URL + "/dp/B0GOOD", Cohort: "R"},
		{ASIN: "B0DEAD", URL: deadURL + "/dp/B0DEAD", Cohort: "R"},
	}

	pagesPath := filepath.Join(dir, "pages_sha256.csv")
	assetsPath := filepath.Join(dir, "assets_index.csv")
	if err := stage.Run(context.Background(), targets, pagesPath, assetsPath); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Fetched page lands on disk
	data, err := os.ReadFile(filepath.Join(htmlDir, "B0GOOD.html"))
	if err != nil {
		t.Fatalf("Expected page payload on disk, got %v", err)
	}
	wantSHA := sha256.Sum256(data)

	captures, err := model.ReadCaptures(pagesPath)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(captures) != 2 {
		t.Fatalf("Expected 2 capture rows, got %d", len(captures))
	}

	good := captures[0]
	if good.ASIN != "B0GOOD" || good.StatusCode != 200 {
		t.Errorf("Expected successful capture, got %+v", good)
	}
	if good.PageSHA256 != hex.EncodeToString(wantSHA[:]) {
		t.Errorf("Expected digest over stored payload, got %s", good.PageSHA256)
	}
	if good.CapturedAt != "2025-11-12T08:00:00Z" {
		t.Errorf("Expected injected timestamp, got %s", good.CapturedAt)
	}

	// The unreachable target still gets a row, with status 0 and no digest
	bad := captures[1]
	if bad.ASIN != "B0DEAD" || bad.StatusCode != 0 || bad.PageSHA256 != "" {
		t.Errorf("Expected empty capture for dead target, got %+v", bad)
	}

	assets, err := model.ReadAssets(assetsPath)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("Expected html + image asset rows, got %d: %v", len(assets), assets)
	}
	if assets[0].AssetID != "B0GOOD_html" || assets[0].AssetType != model.AssetTypeHTML {
		t.Errorf("Expected page asset first, got %+v", assets[0])
	}
	if assets[1].AssetID != "B0GOOD_img01" || assets[1].AssetType != model.AssetTypeImage {
		t.Errorf("Expected image asset, got %+v", assets[1])
	}
	if assets[1].URL != "https://m.media-amazon.com/images/I/71abc.jpg" {
		t.Errorf("Expected extracted image url, got %s", assets[1].URL)
	}

	// Image assets are never archived: the archive state is the explicit
	// sentinel, not an empty cell, and the digest covers the asset URL.
	if assets[1].WaybackURL != model.WaybackNotArchived {
		t.Errorf("Expected %s for image asset, got %q", model.WaybackNotArchived, assets[1].WaybackURL)
	}
	urlSum := sha256.Sum256([]byte(assets[1].URL))
	if assets[1].SHA256 != hex.EncodeToString(urlSum[:]) {
		t.Errorf("Expected url digest for image asset, got %s", assets[1].SHA256)
	}
	if assets[0].WaybackURL != "" {
		t.Errorf("Expected empty archive url with wayback disabled, got %q", assets[0].WaybackURL)
	}
}

func TestStage_WritesHeaderOnlyTables(t *testing.T) {
	policy := testScrapingPolicy()
	f, _ := newTestFetcher(policy, nil)

	dir := t.TempDir()
	stage := NewStage(f, filepath.Join(dir, "html"), logger.NewWithWriter(io.Discard, "error"))

	pagesPath := filepath.Join(dir, "pages_sha256.csv")
	assetsPath := filepath.Join(dir, "assets_index.csv")
	if err := stage.Run(context.Background(), nil, pagesPath, assetsPath); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	f2, err := os.Open(pagesPath)
	if err != nil {
		t.Fatalf("Expected pages table, got %v", err)
	}
	defer f2.Close()
	rows, err := csv.NewReader(f2).ReadAll()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(rows) != 1 || rows[0][0] != "asin" {
		t.Errorf("Expected header-only table, got %v", rows)
	}
}
