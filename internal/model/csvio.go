package model

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Input table readers. Inputs are joined by column name, not position, so the
// scraping collaborator may append columns without breaking this side.

type headerRow struct {
	index map[string]int
	row   []string
}

func (h headerRow) get(name string) string {
	i, ok := h.index[name]
	if !ok || i >= len(h.row) {
		return ""
	}
	return h.row[i]
}

func readTable(path string, visit func(line int, row headerRow) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", path, err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	for line := 1; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s row %d: %w", path, line, err)
		}
		if err := visit(line, headerRow{index: index, row: row}); err != nil {
			return err
		}
	}
}

// ReadCaptures loads the pages index produced by the fetch stage.
func ReadCaptures(path string) ([]SourceCapture, error) {
	var out []SourceCapture
	err := readTable(path, func(_ int, row headerRow) error {
		status, _ := strconv.Atoi(row.get("status_code"))
		out = append(out, SourceCapture{
			ASIN:       row.get("asin"),
			PageSHA256: row.get("page_sha256"),
			CapturedAt: row.get("captured_at"),
			StatusCode: status,
			WaybackURL: row.get("wayback_url"),
		})
		return nil
	})
	return out, err
}

// ReadAssets loads the assets index produced by the fetch stage.
func ReadAssets(path string) ([]AssetRecord, error) {
	var out []AssetRecord
	err := readTable(path, func(_ int, row headerRow) error {
		out = append(out, AssetRecord{
			ASIN:       row.get("asin"),
			AssetID:    row.get("asset_id"),
			AssetType:  AssetType(row.get("asset_type")),
			URL:        row.get("url"),
			SHA256:     row.get("sha256"),
			WaybackURL: row.get("wayback_url"),
		})
		return nil
	})
	return out, err
}

// ReadURLTargets loads the product-URL table produced by the sampling stage,
// keyed by asin.
func ReadURLTargets(path string) (map[string]URLTarget, error) {
	list, err := ReadURLTargetList(path)
	if err != nil {
		return nil, err
	}
	out := make(map[string]URLTarget, len(list))
	for _, t := range list {
		out[t.ASIN] = t
	}
	return out, nil
}

// ReadURLTargetList loads the product-URL table preserving row order, which
// fixes the fetch stage's capture order.
func ReadURLTargetList(path string) ([]URLTarget, error) {
	var out []URLTarget
	err := readTable(path, func(_ int, row headerRow) error {
		t := URLTarget{
			ASIN:         row.get("asin"),
			URL:          row.get("url"),
			Cohort:       row.get("cohort"),
			Method:       row.get("method"),
			CategoryHint: row.get("category_hint"),
			Stratum:      row.get("stratum"),
		}
		if t.ASIN != "" {
			out = append(out, t)
		}
		return nil
	})
	return out, err
}
