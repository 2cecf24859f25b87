package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/vendstack/vending-backend/internal/domain"
	"github.com/vendstack/vending-backend/internal/logger"
)

const transactionColumns = `id, amount, status, items, created_at, expires_at, paid_at`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, transaction domain.Transaction) (domain.Transaction, error) {
	logger.Info("transaction repository create", logger.Fields{
		"transactionId": transaction.ID,
		"amount":        transaction.Amount.StringFixed(2),
		"status":        transaction.Status,
	})

	items, err := json.Marshal(transaction.Items)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("marshal transaction items: %w", err)
	}

	const query = `
INSERT INTO transactions (
	id,
	amount,
	status,
	items,
	created_at,
	expires_at
) VALUES (
	$1, $2, $3, $4, $5, $6
)
RETURNING ` + transactionColumns

	created, err := scanTransactionRow(r.db.QueryRowContext(
		ctx,
		query,
		transaction.ID,
		transaction.Amount.StringFixed(2),
		transaction.Status,
		items,
		transaction.CreatedAt,
		transaction.ExpiresAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			logger.Info("transaction repository id collision", logger.Fields{
				"transactionId": transaction.ID,
			})
			return domain.Transaction{}, domain.ErrDuplicateID
		}
		logger.Error("transaction repository create failed", err, logger.Fields{
			"transactionId": transaction.ID,
		})
		return domain.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	logger.Info("transaction repository create success", logger.Fields{
		"transactionId": created.ID,
	})

	return created, nil
}

func (r *TransactionRepository) Get(ctx context.Context, id string) (domain.Transaction, error) {
	const query = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE id = $1`

	transaction, err := scanTransactionRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			logger.Info("transaction repository record not found", logger.Fields{
				"transactionId": id,
			})
			return domain.Transaction{}, domain.ErrRecordNotFound
		}
		logger.Error("transaction repository get failed", err, logger.Fields{
			"transactionId": id,
		})
		return domain.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}

	return transaction, nil
}

func (r *TransactionRepository) UpdateStatus(ctx context.Context, id string, from, to domain.TransactionStatus) (domain.Transaction, error) {
	logger.Info("transaction repository update status", logger.Fields{
		"transactionId": id,
		"from":          from,
		"to":            to,
	})

	const query = `
UPDATE transactions
SET status = $3,
    updated_at = NOW(),
    paid_at = CASE WHEN $3 = 'paid' THEN NOW() ELSE paid_at END
WHERE id = $1
  AND status = $2
RETURNING ` + transactionColumns

	updated, err := scanTransactionRow(r.db.QueryRowContext(ctx, query, id, from, to))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Transaction{}, r.classifyMissedUpdate(ctx, id)
		}
		logger.Error("transaction repository update status failed", err, logger.Fields{
			"transactionId": id,
		})
		return domain.Transaction{}, fmt.Errorf("update transaction status: %w", err)
	}

	return updated, nil
}

// Pay commits the status transition and the balance movement as one database
// transaction: a rollback on any step leaves the record pending and the
// balances untouched.
func (r *TransactionRepository) Pay(ctx context.Context, id string, amount decimal.Decimal) (domain.Transaction, decimal.Decimal, error) {
	logger.Info("transaction repository pay", logger.Fields{
		"transactionId": id,
		"amount":        amount.StringFixed(2),
	})

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("transaction repository begin pay tx failed", err, nil)
		return domain.Transaction{}, decimal.Zero, fmt.Errorf("begin pay transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const markPaidQuery = `
UPDATE transactions
SET status = 'paid',
    paid_at = NOW(),
    updated_at = NOW()
WHERE id = $1
  AND status = 'pending'
  AND expires_at >= NOW()
RETURNING ` + transactionColumns

	paid, err := scanTransactionRow(tx.QueryRowContext(ctx, markPaidQuery, id))
	if err != nil {
		if err == sql.ErrNoRows {
			_ = tx.Rollback()
			err = r.classifyMissedUpdate(ctx, id)
			return domain.Transaction{}, decimal.Zero, err
		}
		logger.Error("transaction repository mark paid failed", err, logger.Fields{
			"transactionId": id,
		})
		return domain.Transaction{}, decimal.Zero, fmt.Errorf("mark transaction paid: %w", err)
	}

	userBalance, _, err := moveFunds(ctx, tx, domain.HolderUser, domain.HolderMachine, amount)
	if err != nil {
		return domain.Transaction{}, decimal.Zero, err
	}

	if err = tx.Commit(); err != nil {
		logger.Error("transaction repository commit pay tx failed", err, logger.Fields{
			"transactionId": id,
		})
		return domain.Transaction{}, decimal.Zero, fmt.Errorf("commit pay transaction: %w", err)
	}

	logger.Info("transaction repository pay success", logger.Fields{
		"transactionId":  id,
		"newUserBalance": userBalance.Amount.StringFixed(2),
	})

	return paid, userBalance.Amount, nil
}

func (r *TransactionRepository) SweepExpired(ctx context.Context) (int64, error) {
	const query = `
UPDATE transactions
SET status = 'expired',
    updated_at = NOW()
WHERE status = 'pending'
  AND expires_at < NOW()`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		logger.Error("transaction repository sweep expired failed", err, nil)
		return 0, fmt.Errorf("sweep expired transactions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep expired rows affected: %w", err)
	}

	return rows, nil
}

func (r *TransactionRepository) Stats(ctx context.Context) (domain.TransactionStats, error) {
	const query = `
SELECT COUNT(*) AS total,
       COUNT(CASE WHEN status = 'paid' THEN 1 END) AS paid,
       COUNT(CASE WHEN status = 'pending' THEN 1 END) AS pending
FROM transactions`

	var stats domain.TransactionStats
	if err := r.db.QueryRowContext(ctx, query).Scan(&stats.Total, &stats.Paid, &stats.Pending); err != nil {
		logger.Error("transaction repository stats failed", err, nil)
		return domain.TransactionStats{}, fmt.Errorf("transaction stats: %w", err)
	}

	return stats, nil
}

// classifyMissedUpdate decides why a guarded status update touched no row.
func (r *TransactionRepository) classifyMissedUpdate(ctx context.Context, id string) error {
	var status domain.TransactionStatus
	if err := r.db.QueryRowContext(ctx, `SELECT status FROM transactions WHERE id = $1`, id).Scan(&status); err != nil {
		if err == sql.ErrNoRows {
			return domain.ErrRecordNotFound
		}
		return fmt.Errorf("classify transaction state: %w", err)
	}

	return domain.ErrStatusConflict
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransactionRow(row rowScanner) (domain.Transaction, error) {
	var (
		transaction domain.Transaction
		amount      string
		items       []byte
		paidAt      sql.NullTime
	)

	if err := row.Scan(
		&transaction.ID,
		&amount,
		&transaction.Status,
		&items,
		&transaction.CreatedAt,
		&transaction.ExpiresAt,
		&paidAt,
	); err != nil {
		return domain.Transaction{}, err
	}

	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("parse transaction amount: %w", err)
	}
	transaction.Amount = parsed

	if err := json.Unmarshal(items, &transaction.Items); err != nil {
		return domain.Transaction{}, fmt.Errorf("unmarshal transaction items: %w", err)
	}

	if paidAt.Valid {
		value := paidAt.Time
		transaction.PaidAt = &value
	}

	return transaction, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == "23505"
	}
	return false
}
