// Package ledger holds per-account credit balances.
//
// Every backend offers the same three operations: Mint, Transfer and
// BalanceOf. Transfers are all-or-nothing and fail with
// sentinel.ErrInsufficientFunds when the source cannot cover the amount.
// Amounts are whole credit units; zero is a no-op and negatives are rejected.
package ledger

import (
	"fmt"

	"charitydrive/pkg/platform/sentinel"
)

func checkAmount(amount int64) error {
	if amount < 0 {
		return fmt.Errorf("negative amount %d: %w", amount, sentinel.ErrInvalidState)
	}
	return nil
}

func insufficient(balance, amount int64) error {
	return fmt.Errorf("balance %d below %d: %w", balance, amount, sentinel.ErrInsufficientFunds)
}
