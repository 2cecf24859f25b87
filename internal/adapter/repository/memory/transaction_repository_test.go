package memory_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vendstack/vending-backend/internal/adapter/repository/memory"
	"github.com/vendstack/vending-backend/internal/domain"
)

func newStores() (*memory.LedgerRepository, *memory.TransactionRepository) {
	ledger := memory.NewLedgerRepository(decimal.Zero, decimal.RequireFromString("50.00"))
	return ledger, memory.NewTransactionRepository(ledger)
}

func pendingTransaction(id, amount string, expiresIn time.Duration) domain.Transaction {
	now := time.Now().UTC()
	return domain.Transaction{
		ID:        id,
		Amount:    decimal.RequireFromString(amount),
		Items:     []json.RawMessage{json.RawMessage(`{"name":"cola"}`)},
		Status:    domain.TransactionStatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(expiresIn),
	}
}

func TestTransactionRepositoryCreateAndGet(t *testing.T) {
	_, repo := newStores()

	created, err := repo.Create(context.Background(), pendingTransaction("TXAAAAAA", "10.00", domain.PendingTTL))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	fetched, err := repo.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetched.Status != domain.TransactionStatusPending {
		t.Fatalf("expected pending status, got %s", fetched.Status)
	}
	if got := fetched.Amount.StringFixed(2); got != "10.00" {
		t.Fatalf("expected amount 10.00, got %s", got)
	}
}

func TestTransactionRepositoryCreateDuplicateID(t *testing.T) {
	_, repo := newStores()

	if _, err := repo.Create(context.Background(), pendingTransaction("TXAAAAAA", "10.00", domain.PendingTTL)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(context.Background(), pendingTransaction("TXAAAAAA", "5.00", domain.PendingTTL)); !errors.Is(err, domain.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestTransactionRepositoryGetMissing(t *testing.T) {
	_, repo := newStores()

	if _, err := repo.Get(context.Background(), "TXMISSIN"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestTransactionRepositoryUpdateStatusConflict(t *testing.T) {
	_, repo := newStores()

	created, err := repo.Create(context.Background(), pendingTransaction("TXAAAAAA", "10.00", domain.PendingTTL))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := repo.UpdateStatus(context.Background(), created.ID, domain.TransactionStatusPending, domain.TransactionStatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := repo.UpdateStatus(context.Background(), created.ID, domain.TransactionStatusPending, domain.TransactionStatusExpired); !errors.Is(err, domain.ErrStatusConflict) {
		t.Fatalf("expected ErrStatusConflict, got %v", err)
	}
}

func TestTransactionRepositoryPay(t *testing.T) {
	ledger, repo := newStores()

	created, err := repo.Create(context.Background(), pendingTransaction("TXAAAAAA", "10.00", domain.PendingTTL))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	paid, newUserBalance, err := repo.Pay(context.Background(), created.ID, created.Amount)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if paid.Status != domain.TransactionStatusPaid {
		t.Fatalf("expected paid status, got %s", paid.Status)
	}
	if paid.PaidAt == nil {
		t.Fatal("expected paidAt to be set")
	}
	if got := newUserBalance.StringFixed(2); got != "40.00" {
		t.Fatalf("expected new user balance 40.00, got %s", got)
	}

	machine, _ := ledger.GetBalance(context.Background(), domain.HolderMachine)
	if got := machine.Amount.StringFixed(2); got != "10.00" {
		t.Fatalf("expected machine balance 10.00, got %s", got)
	}
}

func TestTransactionRepositoryPayInsufficientFundsLeavesPending(t *testing.T) {
	ledger, repo := newStores()

	created, err := repo.Create(context.Background(), pendingTransaction("TXAAAAAA", "100.00", domain.PendingTTL))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, _, err := repo.Pay(context.Background(), created.ID, created.Amount); !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	fetched, _ := repo.Get(context.Background(), created.ID)
	if fetched.Status != domain.TransactionStatusPending {
		t.Fatalf("expected pending status after failed pay, got %s", fetched.Status)
	}

	user, _ := ledger.GetBalance(context.Background(), domain.HolderUser)
	if got := user.Amount.StringFixed(2); got != "50.00" {
		t.Fatalf("expected user balance 50.00, got %s", got)
	}
}

func TestTransactionRepositoryPayStaleRecordConflicts(t *testing.T) {
	_, repo := newStores()

	created, err := repo.Create(context.Background(), pendingTransaction("TXAAAAAA", "10.00", -time.Second))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, _, err := repo.Pay(context.Background(), created.ID, created.Amount); !errors.Is(err, domain.ErrStatusConflict) {
		t.Fatalf("expected ErrStatusConflict, got %v", err)
	}
}

func TestTransactionRepositoryConcurrentPaySingleWinner(t *testing.T) {
	ledger := memory.NewLedgerRepository(decimal.Zero, decimal.RequireFromString("10.00"))
	repo := memory.NewTransactionRepository(ledger)

	created, err := repo.Create(context.Background(), pendingTransaction("TXAAAAAA", "10.00", domain.PendingTTL))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, results[i] = repo.Pay(context.Background(), created.ID, created.Amount)
		}(i)
	}
	wg.Wait()

	var successes int
	for _, err := range results {
		if err == nil {
			successes++
		} else if !errors.Is(err, domain.ErrStatusConflict) && !errors.Is(err, domain.ErrInsufficientBalance) {
			t.Fatalf("unexpected pay error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one successful pay, got %d", successes)
	}

	user, _ := ledger.GetBalance(context.Background(), domain.HolderUser)
	if got := user.Amount.StringFixed(2); got != "0.00" {
		t.Fatalf("expected user balance 0.00, got %s", got)
	}
}

func TestTransactionRepositorySweepExpired(t *testing.T) {
	_, repo := newStores()

	for _, id := range []string{"TXAAAAAA", "TXBBBBBB"} {
		if _, err := repo.Create(context.Background(), pendingTransaction(id, "5.00", -time.Minute)); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	if _, err := repo.Create(context.Background(), pendingTransaction("TXCCCCCC", "5.00", domain.PendingTTL)); err != nil {
		t.Fatalf("create fresh: %v", err)
	}

	count, err := repo.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 expired, got %d", count)
	}

	count, err = repo.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected sweep to be idempotent, got %d", count)
	}

	fresh, _ := repo.Get(context.Background(), "TXCCCCCC")
	if fresh.Status != domain.TransactionStatusPending {
		t.Fatalf("expected fresh record to stay pending, got %s", fresh.Status)
	}
}

func TestTransactionRepositoryStats(t *testing.T) {
	_, repo := newStores()

	created, err := repo.Create(context.Background(), pendingTransaction("TXAAAAAA", "10.00", domain.PendingTTL))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(context.Background(), pendingTransaction("TXBBBBBB", "5.00", domain.PendingTTL)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := repo.Pay(context.Background(), created.ID, created.Amount); err != nil {
		t.Fatalf("pay: %v", err)
	}

	stats, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 2 || stats.Paid != 1 || stats.Pending != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
