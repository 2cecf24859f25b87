package domain_test

import (
	"testing"
	"time"

	"github.com/vendstack/vending-backend/internal/domain"
)

func TestTransactionExpiredBy(t *testing.T) {
	deadline := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	pending := domain.Transaction{
		Status:    domain.TransactionStatusPending,
		ExpiresAt: deadline,
	}

	if pending.ExpiredBy(deadline.Add(-time.Second)) {
		t.Fatal("transaction before deadline must not be expired")
	}
	if pending.ExpiredBy(deadline) {
		t.Fatal("transaction exactly at deadline must not be expired")
	}
	if !pending.ExpiredBy(deadline.Add(time.Second)) {
		t.Fatal("transaction past deadline must be expired")
	}

	paid := domain.Transaction{
		Status:    domain.TransactionStatusPaid,
		ExpiresAt: deadline,
	}
	if paid.ExpiredBy(deadline.Add(time.Hour)) {
		t.Fatal("non-pending transaction must never report expired")
	}
}

func TestParseHolder(t *testing.T) {
	for raw, want := range map[string]domain.Holder{
		"machine":  domain.HolderMachine,
		"user":     domain.HolderUser,
		" USER ":   domain.HolderUser,
		"Machine ": domain.HolderMachine,
	} {
		got, err := domain.ParseHolder(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %s, got %s", raw, want, got)
		}
	}

	if _, err := domain.ParseHolder("bank"); err != domain.ErrUnknownHolder {
		t.Fatalf("expected ErrUnknownHolder, got %v", err)
	}
}
