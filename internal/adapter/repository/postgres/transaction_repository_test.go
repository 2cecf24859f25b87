package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(&pq.Error{Code: "23505"}) {
		t.Fatal("expected 23505 to be a unique violation")
	}
	if isUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Fatal("expected 23503 not to be a unique violation")
	}
	if isUniqueViolation(errors.New("boom")) {
		t.Fatal("expected plain error not to be a unique violation")
	}
	if !isUniqueViolation(fmt.Errorf("create transaction: %w", &pq.Error{Code: "23505"})) {
		t.Fatal("expected wrapped 23505 to be a unique violation")
	}
}
