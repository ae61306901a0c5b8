package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tervyx/claimlens/internal/model"
)

func TestStream_WriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims_raw.jsonl")

	records := []model.ExtractionRecord{
		{
			ASIN:    "B0TEST01",
			AssetID: "B0TEST01_html",
			Source:  model.SourceHTML,
			Extraction: model.ExtractionMeta{
				Backend: "rules", Version: "v1", Temperature: 0,
			},
			Claims: []model.RawClaim{
				{Text: "Clinically proven", Source: model.SourceHTML, Confidence: 0.6},
			},
			PageSHA256: "abc123",
		},
		{
			ASIN:    "B0TEST02",
			AssetID: "B0TEST02_img01",
			Source:  model.SourceImage,
			Claims: []model.RawClaim{
				{Text: "Guaranteed results", Source: model.SourceImage, Confidence: 0.7, BBox: "[[1, 2, 3, 4]]"},
			},
		},
	}

	if err := WriteStream(path, records); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var got []model.ExtractionRecord
	err := StreamRecords(path, func(r model.ExtractionRecord) error {
		got = append(got, r)
		return nil
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(got))
	}
	if got[0].ASIN != "B0TEST01" || got[1].ASIN != "B0TEST02" {
		t.Errorf("Expected encounter order preserved, got %v then %v", got[0].ASIN, got[1].ASIN)
	}
	if got[1].Claims[0].BBox != "[[1, 2, 3, 4]]" {
		t.Errorf("Expected bbox to survive the roundtrip, got %q", got[1].Claims[0].BBox)
	}
}

func TestStreamRecords_EmptyStream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.jsonl")
	if err := WriteStream(path, nil); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	err := StreamRecords(path, func(model.ExtractionRecord) error { return nil })
	if err != nil {
		t.Fatalf("Expected empty stream to read cleanly, got %v", err)
	}
}

func TestStreamRecords_MalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jsonl")
	if err := os.WriteFile(path, []byte("{not json}\n"), 0o644); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	err := StreamRecords(path, func(model.ExtractionRecord) error { return nil })
	if err == nil {
		t.Error("Expected error for malformed record line")
	}
}
