package validate

import (
	"strconv"
	"strings"
)

// The canonical tables are CSV, so every cell is a string on disk. Schema
// checking applies a fixed coercion convention first. The convention is
// name-based and deliberately fragile-looking — it is a compatibility
// contract with the downstream consumer and lives only in this table.

type columnKind int

const (
	kindString columnKind = iota
	kindInt               // columns with a _score suffix
	kindFloat             // columns with a _weight suffix, or named price
)

// kindOf classifies a column by the suffix convention.
func kindOf(column string) columnKind {
	switch {
	case strings.HasSuffix(column, "_score"):
		return kindInt
	case strings.HasSuffix(column, "_weight"), column == "price":
		return kindFloat
	default:
		return kindString
	}
}

// coerceRow converts one CSV row into the value the schema is checked
// against: empty string means absent/nullable; "true"/"false" become bools;
// typed columns parse per kindOf; unparseable typed values stay strings so
// the schema reports them.
func coerceRow(header, row []string) map[string]any {
	out := make(map[string]any, len(header))
	for i, column := range header {
		var cell string
		if i < len(row) {
			cell = row[i]
		}

		if cell == "" {
			out[column] = nil
			continue
		}
		if cell == "true" || cell == "false" {
			out[column] = cell == "true"
			continue
		}

		switch kindOf(column) {
		case kindInt:
			if v, err := strconv.Atoi(cell); err == nil {
				out[column] = v
				continue
			}
		case kindFloat:
			if v, err := strconv.ParseFloat(cell, 64); err == nil {
				out[column] = v
				continue
			}
		}
		out[column] = cell
	}
	return out
}
