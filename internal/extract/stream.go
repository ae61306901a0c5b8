package extract

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/tervyx/claimlens/internal/model"
	"github.com/tervyx/claimlens/internal/util"
)

// maxStreamLine bounds a single extraction record line; pages are capped well
// below this upstream.
const maxStreamLine = 4 << 20

// WriteStream writes the extraction stream as JSONL through the atomic
// rename barrier, one record per asset in run order.
func WriteStream(path string, records []model.ExtractionRecord) error {
	return util.WriteFileAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		for _, r := range records {
			if err := enc.Encode(&r); err != nil {
				return err
			}
		}
		return nil
	})
}

// StreamRecords reads an extraction JSONL file, invoking visit for each
// record in encounter order.
func StreamRecords(path string, visit func(model.ExtractionRecord) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open extraction stream %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxStreamLine)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var record model.ExtractionRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return fmt.Errorf("parse extraction record line %d: %w", line, err)
		}
		if err := visit(record); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read extraction stream %s: %w", path, err)
	}
	return nil
}
