package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Holder string

const (
	HolderMachine Holder = "machine"
	HolderUser    Holder = "user"
)

func ParseHolder(value string) (Holder, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(HolderMachine):
		return HolderMachine, nil
	case string(HolderUser):
		return HolderUser, nil
	default:
		return "", ErrUnknownHolder
	}
}

type Balance struct {
	Holder    Holder
	Amount    decimal.Decimal
	UpdatedAt time.Time
}
