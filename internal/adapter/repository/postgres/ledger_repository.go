package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/vendstack/vending-backend/internal/domain"
	"github.com/vendstack/vending-backend/internal/logger"
)

type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) GetBalance(ctx context.Context, holder domain.Holder) (domain.Balance, error) {
	const query = `
SELECT holder, amount, updated_at
FROM balances
WHERE holder = $1`

	var (
		balance domain.Balance
		amount  string
	)

	if err := r.db.QueryRowContext(ctx, query, holder).Scan(&balance.Holder, &amount, &balance.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return domain.Balance{}, domain.ErrUnknownHolder
		}
		logger.Error("ledger repository get balance failed", err, logger.Fields{
			"holder": holder,
		})
		return domain.Balance{}, fmt.Errorf("get balance: %w", err)
	}

	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return domain.Balance{}, fmt.Errorf("parse balance amount: %w", err)
	}
	balance.Amount = parsed

	return balance, nil
}

func (r *LedgerRepository) GetBalances(ctx context.Context) ([]domain.Balance, error) {
	const query = `
SELECT holder, amount, updated_at
FROM balances
ORDER BY holder`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.Error("ledger repository get balances failed", err, nil)
		return nil, fmt.Errorf("get balances: %w", err)
	}
	defer rows.Close()

	var balances []domain.Balance
	for rows.Next() {
		var (
			balance domain.Balance
			amount  string
		)
		if err := rows.Scan(&balance.Holder, &amount, &balance.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		parsed, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse balance amount: %w", err)
		}
		balance.Amount = parsed
		balances = append(balances, balance)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate balances: %w", err)
	}

	return balances, nil
}

func (r *LedgerRepository) Deposit(ctx context.Context, holder domain.Holder, amount decimal.Decimal) (domain.Balance, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.Balance{}, domain.ErrInvalidAmount
	}

	logger.Info("ledger repository deposit", logger.Fields{
		"holder": holder,
		"amount": amount.StringFixed(2),
	})

	const query = `
UPDATE balances
SET amount = amount + $2::numeric,
    updated_at = NOW()
WHERE holder = $1
RETURNING holder, amount, updated_at`

	balance, err := scanBalanceRow(r.db.QueryRowContext(ctx, query, holder, amount.StringFixed(2)))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Balance{}, domain.ErrUnknownHolder
		}
		logger.Error("ledger repository deposit failed", err, logger.Fields{
			"holder": holder,
		})
		return domain.Balance{}, fmt.Errorf("deposit: %w", err)
	}

	return balance, nil
}

func (r *LedgerRepository) Transfer(ctx context.Context, from, to domain.Holder, amount decimal.Decimal) (domain.Balance, domain.Balance, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.Balance{}, domain.Balance{}, domain.ErrInvalidAmount
	}
	if from == to {
		return domain.Balance{}, domain.Balance{}, fmt.Errorf("transfer holders must differ")
	}

	logger.Info("ledger repository transfer", logger.Fields{
		"from":   from,
		"to":     to,
		"amount": amount.StringFixed(2),
	})

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("ledger repository begin tx failed", err, nil)
		return domain.Balance{}, domain.Balance{}, fmt.Errorf("begin transfer transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	fromBalance, toBalance, err := moveFunds(ctx, tx, from, to, amount)
	if err != nil {
		return domain.Balance{}, domain.Balance{}, err
	}

	if err = tx.Commit(); err != nil {
		logger.Error("ledger repository commit tx failed", err, nil)
		return domain.Balance{}, domain.Balance{}, fmt.Errorf("commit transfer transaction: %w", err)
	}

	return fromBalance, toBalance, nil
}

func (r *LedgerRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// moveFunds debits from and credits to inside the caller's transaction. The
// debit is guarded so the row never goes negative; zero rows means the
// holder lacks the funds.
func moveFunds(ctx context.Context, tx *sql.Tx, from, to domain.Holder, amount decimal.Decimal) (domain.Balance, domain.Balance, error) {
	const debitQuery = `
UPDATE balances
SET amount = amount - $2::numeric,
    updated_at = NOW()
WHERE holder = $1
  AND amount >= $2::numeric
RETURNING holder, amount, updated_at`

	fromBalance, err := scanBalanceRow(tx.QueryRowContext(ctx, debitQuery, from, amount.StringFixed(2)))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Balance{}, domain.Balance{}, domain.ErrInsufficientBalance
		}
		return domain.Balance{}, domain.Balance{}, fmt.Errorf("debit %s: %w", from, err)
	}

	const creditQuery = `
UPDATE balances
SET amount = amount + $2::numeric,
    updated_at = NOW()
WHERE holder = $1
RETURNING holder, amount, updated_at`

	toBalance, err := scanBalanceRow(tx.QueryRowContext(ctx, creditQuery, to, amount.StringFixed(2)))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Balance{}, domain.Balance{}, domain.ErrUnknownHolder
		}
		return domain.Balance{}, domain.Balance{}, fmt.Errorf("credit %s: %w", to, err)
	}

	return fromBalance, toBalance, nil
}

func scanBalanceRow(row *sql.Row) (domain.Balance, error) {
	var (
		balance domain.Balance
		amount  string
	)
	if err := row.Scan(&balance.Holder, &amount, &balance.UpdatedAt); err != nil {
		return domain.Balance{}, err
	}

	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return domain.Balance{}, fmt.Errorf("parse balance amount: %w", err)
	}
	balance.Amount = parsed

	return balance, nil
}
