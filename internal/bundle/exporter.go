// Package bundle assembles the handoff directory: the canonical tables plus a
// metadata manifest carrying row counts and a combined digest, so the
// receiving side can verify integrity before loading anything.
package bundle

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/tervyx/claimlens/internal/logger"
	"github.com/tervyx/claimlens/internal/util"
)

// MetadataFile is the manifest name inside the bundle directory.
const MetadataFile = "bundle_metadata.json"

// Metadata is the bundle manifest.
type Metadata struct {
	GeneratedAt    string         `json:"generated_at"`
	Files          []FileEntry    `json:"files"`
	RowCounts      map[string]int `json:"row_counts"`
	CombinedSHA256 string         `json:"combined_sha256"`
}

// FileEntry describes one bundled file.
type FileEntry struct {
	Name   string `json:"name"`
	SHA256 string `json:"sha256"`
	Bytes  int64  `json:"bytes"`
}

// Exporter copies the pipeline outputs into a bundle directory.
type Exporter struct {
	log *logger.Logger

	// now is swapped out in tests.
	now func() time.Time
}

// NewExporter creates a bundle exporter.
func NewExporter(log *logger.Logger) *Exporter {
	return &Exporter{log: log, now: time.Now}
}

// Export copies the given CSV files into outDir and writes the manifest.
// The combined digest hashes the per-file digests in sorted filename order,
// so it does not depend on the order files were produced.
func (e *Exporter) Export(outDir string, files []string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create bundle dir: %w", err)
	}

	meta := Metadata{
		GeneratedAt: e.now().UTC().Format(time.RFC3339),
		RowCounts:   make(map[string]int),
	}

	for _, src := range files {
		name := filepath.Base(src)
		entry, rows, err := e.copyFile(src, filepath.Join(outDir, name))
		if err != nil {
			return err
		}
		meta.Files = append(meta.Files, entry)
		meta.RowCounts[name] = rows
	}

	sort.Slice(meta.Files, func(i, j int) bool {
		return meta.Files[i].Name < meta.Files[j].Name
	})

	combined := sha256.New()
	for _, entry := range meta.Files {
		combined.Write([]byte(entry.SHA256))
	}
	meta.CombinedSHA256 = hex.EncodeToString(combined.Sum(nil))

	err := util.WriteFileAtomic(filepath.Join(outDir, MetadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	})
	if err != nil {
		return err
	}

	e.log.Info("bundle written", "dir", outDir, "files", len(meta.Files),
		"combined_sha256", meta.CombinedSHA256)
	return nil
}

func (e *Exporter) copyFile(src, dst string) (FileEntry, int, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return FileEntry{}, 0, fmt.Errorf("read %s: %w", src, err)
	}

	err = util.WriteFileAtomic(dst, func(w io.Writer) error {
		_, werr := w.Write(data)
		return werr
	})
	if err != nil {
		return FileEntry{}, 0, err
	}

	digest := sha256.Sum256(data)
	rows, err := countRows(src)
	if err != nil {
		return FileEntry{}, 0, err
	}

	return FileEntry{
		Name:   filepath.Base(src),
		SHA256: hex.EncodeToString(digest[:]),
		Bytes:  int64(len(data)),
	}, rows, nil
}

// countRows counts data rows, excluding the header.
func countRows(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows := -1
	for {
		_, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("count rows of %s: %w", path, err)
		}
		rows++
	}
	if rows < 0 {
		rows = 0
	}
	return rows, nil
}
