package extract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/tervyx/claimlens/internal/config"
)

// OCREngine recognizes text in product images by invoking the tesseract
// binary with TSV output. When the binary is absent the engine reports
// unavailable and image assets are skipped, which is not an error.
type OCREngine struct {
	binary    string
	lang      string
	threshold float64 // 0..1, per-token confidence floor
}

// OCRToken is one recognized word with its confidence and bounding box
// (left, top, right, bottom).
type OCRToken struct {
	Text       string
	Confidence float64
	BBox       [4]int
}

// NewOCREngine creates an engine from the policy.
func NewOCREngine(policy config.OCRPolicy) *OCREngine {
	return &OCREngine{
		binary:    policy.Binary,
		lang:      policy.Lang,
		threshold: policy.ConfidenceThreshold,
	}
}

// Available reports whether the OCR binary can be found.
func (o *OCREngine) Available() bool {
	_, err := exec.LookPath(o.binary)
	return err == nil
}

// Recognize runs OCR over the image file and returns tokens at or above the
// confidence threshold, in reading order.
func (o *OCREngine) Recognize(ctx context.Context, imagePath string) ([]OCRToken, error) {
	cmd := exec.CommandContext(ctx, o.binary, imagePath, "stdout", "-l", o.lang, "tsv")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ocr %s: %w (%s)", imagePath, err, strings.TrimSpace(stderr.String()))
	}

	return o.parseTSV(stdout.String()), nil
}

// parseTSV reads tesseract's TSV output. Columns:
// level page block par line word left top width height conf text.
// Non-word rows carry conf -1 and are dropped with the low-confidence tokens.
func (o *OCREngine) parseTSV(output string) []OCRToken {
	var tokens []OCRToken

	lines := strings.Split(output, "\n")
	for i, line := range lines {
		if i == 0 || line == "" { // header
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 12 {
			continue
		}

		conf, err := strconv.ParseFloat(fields[10], 64)
		if err != nil || conf < o.threshold*100 {
			continue
		}

		text := strings.TrimSpace(fields[11])
		if text == "" {
			continue
		}

		left, _ := strconv.Atoi(fields[6])
		top, _ := strconv.Atoi(fields[7])
		width, _ := strconv.Atoi(fields[8])
		height, _ := strconv.Atoi(fields[9])

		tokens = append(tokens, OCRToken{
			Text:       text,
			Confidence: conf / 100,
			BBox:       [4]int{left, top, left + width, top + height},
		})
	}

	return tokens
}

// JoinTokens concatenates surviving tokens in reading order.
func JoinTokens(tokens []OCRToken) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.Text
	}
	return strings.Join(parts, " ")
}

// FormatBBoxes renders token boxes the way the claims table stores them.
func FormatBBoxes(tokens []OCRToken) string {
	if len(tokens) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("[")
	for i, t := range tokens {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "[%d, %d, %d, %d]", t.BBox[0], t.BBox[1], t.BBox[2], t.BBox[3])
	}
	b.WriteString("]")
	return b.String()
}
