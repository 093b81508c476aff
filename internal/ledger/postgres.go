package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"charitydrive/internal/platform/postgres"
	id "charitydrive/pkg/domain"
	txcontext "charitydrive/pkg/platform/tx"
)

// Postgres keeps balances in credit_balances and appends every movement to
// credit_journal. Calls join the transaction carried by ctx, so a marketplace
// state change and its credit movement commit together.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Mint(ctx context.Context, acct id.AccountID, amount int64) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	return txcontext.Run(ctx, p.db, func(txCtx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(txCtx, `
			INSERT INTO credit_balances (account, balance)
			VALUES ($1, $2)
			ON CONFLICT (account) DO UPDATE
			SET balance = credit_balances.balance + EXCLUDED.balance, updated_at = now()
		`, uuid.UUID(acct), amount); err != nil {
			return fmt.Errorf("mint credit: %w", err)
		}
		return journal(txCtx, tx, "mint", nil, acct, amount)
	})
}

func (p *Postgres) Transfer(ctx context.Context, from, to id.AccountID, amount int64) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	return txcontext.Run(ctx, p.db, func(txCtx context.Context, tx *sql.Tx) error {
		// Lock both rows in key order before touching either.
		accounts := pq.Array([]string{from.String(), to.String()})
		rows, err := tx.QueryContext(txCtx, `
			SELECT account FROM credit_balances
			WHERE account = ANY($1::uuid[])
			ORDER BY account
			FOR UPDATE
		`, accounts)
		if err != nil {
			return fmt.Errorf("lock balances: %w", err)
		}
		if err := rows.Close(); err != nil {
			return fmt.Errorf("lock balances: %w", err)
		}

		var balance int64
		err = tx.QueryRowContext(txCtx,
			`SELECT balance FROM credit_balances WHERE account = $1`, uuid.UUID(from),
		).Scan(&balance)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("read balance: %w", err)
		}
		if balance < amount {
			return insufficient(balance, amount)
		}
		if amount == 0 {
			return nil
		}

		if _, err := tx.ExecContext(txCtx,
			`UPDATE credit_balances SET balance = balance - $2, updated_at = now() WHERE account = $1`,
			uuid.UUID(from), amount,
		); err != nil {
			if postgres.IsCheckViolation(err) {
				return insufficient(balance, amount)
			}
			return fmt.Errorf("debit balance: %w", err)
		}
		if _, err := tx.ExecContext(txCtx, `
			INSERT INTO credit_balances (account, balance)
			VALUES ($1, $2)
			ON CONFLICT (account) DO UPDATE
			SET balance = credit_balances.balance + EXCLUDED.balance, updated_at = now()
		`, uuid.UUID(to), amount); err != nil {
			return fmt.Errorf("credit balance: %w", err)
		}
		return journal(txCtx, tx, "transfer", &from, to, amount)
	})
}

func (p *Postgres) BalanceOf(ctx context.Context, acct id.AccountID) (int64, error) {
	query := `SELECT balance FROM credit_balances WHERE account = $1`
	var row *sql.Row
	if tx, ok := txcontext.From(ctx); ok {
		row = tx.QueryRowContext(ctx, query, uuid.UUID(acct))
	} else {
		row = p.db.QueryRowContext(ctx, query, uuid.UUID(acct))
	}

	var balance int64
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return balance, nil
}

func journal(ctx context.Context, tx *sql.Tx, kind string, from *id.AccountID, to id.AccountID, amount int64) error {
	var source *uuid.UUID
	if from != nil {
		u := uuid.UUID(*from)
		source = &u
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO credit_journal (kind, from_account, to_account, amount)
		VALUES ($1, $2, $3, $4)
	`, kind, source, uuid.UUID(to), amount); err != nil {
		return fmt.Errorf("append journal: %w", err)
	}
	return nil
}

