package domain

import (
	"errors"
	"fmt"
)

var ErrRecordNotFound = errors.New("Record not found")
var ErrInsufficientBalance = errors.New("Insufficient balance")
var ErrInvalidAmount = errors.New("Amount must be greater than zero")
var ErrUnknownHolder = errors.New("Unknown balance holder")
var ErrDuplicateID = errors.New("Transaction id already exists")
var ErrStatusConflict = errors.New("Transaction is not pending")

// InvalidStatusError reports a state-machine violation and carries the
// status the transaction currently holds.
type InvalidStatusError struct {
	Status TransactionStatus
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("transaction already %s", e.Status)
}
