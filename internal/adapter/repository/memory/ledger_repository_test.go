package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/vendstack/vending-backend/internal/adapter/repository/memory"
	"github.com/vendstack/vending-backend/internal/domain"
)

func newLedger() *memory.LedgerRepository {
	return memory.NewLedgerRepository(decimal.Zero, decimal.RequireFromString("50.00"))
}

func TestLedgerRepositoryDeposit(t *testing.T) {
	repo := newLedger()

	balance, err := repo.Deposit(context.Background(), domain.HolderUser, decimal.RequireFromString("25.50"))
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if got := balance.Amount.StringFixed(2); got != "75.50" {
		t.Fatalf("expected balance 75.50, got %s", got)
	}

	fetched, err := repo.GetBalance(context.Background(), domain.HolderUser)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if got := fetched.Amount.StringFixed(2); got != "75.50" {
		t.Fatalf("expected fetched balance 75.50, got %s", got)
	}
}

func TestLedgerRepositoryDepositRejectsNonPositiveAmount(t *testing.T) {
	repo := newLedger()

	for _, raw := range []string{"0", "-1.00"} {
		if _, err := repo.Deposit(context.Background(), domain.HolderUser, decimal.RequireFromString(raw)); !errors.Is(err, domain.ErrInvalidAmount) {
			t.Fatalf("deposit %s: expected ErrInvalidAmount, got %v", raw, err)
		}
	}
}

func TestLedgerRepositoryUnknownHolder(t *testing.T) {
	repo := newLedger()

	if _, err := repo.GetBalance(context.Background(), domain.Holder("bank")); !errors.Is(err, domain.ErrUnknownHolder) {
		t.Fatalf("expected ErrUnknownHolder, got %v", err)
	}
	if _, err := repo.Deposit(context.Background(), domain.Holder("bank"), decimal.RequireFromString("1.00")); !errors.Is(err, domain.ErrUnknownHolder) {
		t.Fatalf("expected ErrUnknownHolder, got %v", err)
	}
}

func TestLedgerRepositoryTransfer(t *testing.T) {
	repo := newLedger()

	userBalance, machineBalance, err := repo.Transfer(context.Background(), domain.HolderUser, domain.HolderMachine, decimal.RequireFromString("10.00"))
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := userBalance.Amount.StringFixed(2); got != "40.00" {
		t.Fatalf("expected user balance 40.00, got %s", got)
	}
	if got := machineBalance.Amount.StringFixed(2); got != "10.00" {
		t.Fatalf("expected machine balance 10.00, got %s", got)
	}
}

func TestLedgerRepositoryTransferInsufficientLeavesBalancesUntouched(t *testing.T) {
	repo := newLedger()

	_, _, err := repo.Transfer(context.Background(), domain.HolderUser, domain.HolderMachine, decimal.RequireFromString("100.00"))
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	user, _ := repo.GetBalance(context.Background(), domain.HolderUser)
	machine, _ := repo.GetBalance(context.Background(), domain.HolderMachine)
	if got := user.Amount.StringFixed(2); got != "50.00" {
		t.Fatalf("expected user balance 50.00, got %s", got)
	}
	if got := machine.Amount.StringFixed(2); got != "0.00" {
		t.Fatalf("expected machine balance 0.00, got %s", got)
	}
}

func TestLedgerRepositoryTransferRejectsSameHolder(t *testing.T) {
	repo := newLedger()

	if _, _, err := repo.Transfer(context.Background(), domain.HolderUser, domain.HolderUser, decimal.RequireFromString("1.00")); err == nil {
		t.Fatal("expected error for same-holder transfer")
	}
}

func TestLedgerRepositoryConcurrentTransfersNeverOverdraw(t *testing.T) {
	repo := memory.NewLedgerRepository(decimal.Zero, decimal.RequireFromString("10.00"))
	amount := decimal.RequireFromString("10.00")

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, results[i] = repo.Transfer(context.Background(), domain.HolderUser, domain.HolderMachine, amount)
		}(i)
	}
	wg.Wait()

	var successes int
	for _, err := range results {
		if err == nil {
			successes++
		} else if !errors.Is(err, domain.ErrInsufficientBalance) {
			t.Fatalf("unexpected transfer error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one successful transfer, got %d", successes)
	}

	user, _ := repo.GetBalance(context.Background(), domain.HolderUser)
	machine, _ := repo.GetBalance(context.Background(), domain.HolderMachine)
	if got := user.Amount.StringFixed(2); got != "0.00" {
		t.Fatalf("expected user balance 0.00, got %s", got)
	}
	if got := machine.Amount.StringFixed(2); got != "10.00" {
		t.Fatalf("expected machine balance 10.00, got %s", got)
	}
}
