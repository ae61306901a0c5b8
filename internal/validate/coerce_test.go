package validate

import "testing"

func TestCoerceRow(t *testing.T) {
	header := []string{"asin", "price", "sampling_weight", "l_token_score", "review_needed", "brand"}
	row := []string{"B0AAA", "19.99", "1.0714", "4", "true", ""}

	got := coerceRow(header, row)

	if got["asin"] != "B0AAA" {
		t.Errorf("Expected plain string, got %v", got["asin"])
	}
	if got["price"] != 19.99 {
		t.Errorf("Expected float for price, got %v", got["price"])
	}
	if got["sampling_weight"] != 1.0714 {
		t.Errorf("Expected float for _weight suffix, got %v", got["sampling_weight"])
	}
	if got["l_token_score"] != 4 {
		t.Errorf("Expected int for _score suffix, got %v", got["l_token_score"])
	}
	if got["review_needed"] != true {
		t.Errorf("Expected bool, got %v", got["review_needed"])
	}
	if got["brand"] != nil {
		t.Errorf("Expected nil for empty cell, got %v", got["brand"])
	}
}

func TestCoerceRow_UnparseableTypedValue(t *testing.T) {
	header := []string{"l_token_score"}
	row := []string{"four"}

	got := coerceRow(header, row)
	// Stays a string so the schema reports it
	if got["l_token_score"] != "four" {
		t.Errorf("Expected string fallthrough, got %v", got["l_token_score"])
	}
}

func TestCoerceRow_ShortRow(t *testing.T) {
	header := []string{"asin", "brand"}
	got := coerceRow(header, []string{"B0AAA"})
	if got["brand"] != nil {
		t.Errorf("Expected nil for missing cell, got %v", got["brand"])
	}
}
