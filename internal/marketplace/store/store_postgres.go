package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"charitydrive/internal/marketplace/models"
	id "charitydrive/pkg/domain"
	dErrors "charitydrive/pkg/domain-errors"
	"charitydrive/pkg/platform/sentinel"
	txcontext "charitydrive/pkg/platform/tx"
)

// PostgresStore keeps the marketplace in marketplace_state and
// registry_items. Execute locks the state row for the whole callback and
// exposes the transaction through ctx, so ledger calls made with txCtx
// commit or roll back with the state change.
type PostgresStore struct {
	db      *sql.DB
	timeout time.Duration
}

const defaultExecuteTimeout = 5 * time.Second

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, timeout: defaultExecuteTimeout}
}

// Init creates the marketplace row on first start. A later start must name
// the same operator and account.
func (s *PostgresStore) Init(ctx context.Context, operator, account id.AccountID) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO marketplace_state (id, operator, account, status)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`, uuid.UUID(operator), uuid.UUID(account), string(models.StatusClosed)); err != nil {
		return fmt.Errorf("init marketplace state: %w", err)
	}

	var storedOperator, storedAccount uuid.UUID
	if err := s.db.QueryRowContext(ctx, `SELECT operator, account FROM marketplace_state WHERE id = 1`).
		Scan(&storedOperator, &storedAccount); err != nil {
		return fmt.Errorf("read marketplace state: %w", err)
	}
	if id.AccountID(storedOperator) != operator || id.AccountID(storedAccount) != account {
		return fmt.Errorf("marketplace already initialized for operator %s: %w", storedOperator, sentinel.ErrConflict)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) (*models.State, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin read: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	return loadState(ctx, tx, false)
}

// Execute bounds the transaction by a default timeout when ctx carries no
// deadline, so a stuck caller cannot hold the state row lock indefinitely.
func (s *PostgresStore) Execute(ctx context.Context, fn func(txCtx context.Context, st *models.State) error) (*models.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var out *models.State
	err := txcontext.Run(ctx, s.db, func(txCtx context.Context, tx *sql.Tx) error {
		current, err := loadState(txCtx, tx, true)
		if err != nil {
			return err
		}
		draft := current.Clone()
		if err := fn(txCtx, draft); err != nil {
			return err
		}
		if err := saveState(txCtx, tx, current, draft); err != nil {
			return err
		}
		out = draft
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func loadState(ctx context.Context, tx *sql.Tx, forUpdate bool) (*models.State, error) {
	query := `SELECT operator, account, status, last_seq, updated_at FROM marketplace_state WHERE id = 1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var (
		operator, account uuid.UUID
		status            string
		st                models.State
	)
	err := tx.QueryRowContext(ctx, query).Scan(&operator, &account, &status, &st.LastSeq, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("marketplace not initialized: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load marketplace state: %w", err)
	}
	st.Operator = id.AccountID(operator)
	st.Account = id.AccountID(account)
	if st.Status, err = models.ParseBiddingStatus(status); err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT name, quota, per_unit_cost, fulfilled
		FROM registry_items
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	defer rows.Close()

	var items []models.RequiredItem
	for rows.Next() {
		var item models.RequiredItem
		if err := rows.Scan(&item.Name, &item.Quota, &item.PerUnitCost, &item.Fulfilled); err != nil {
			return nil, fmt.Errorf("scan registry item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	st.Registry = models.NewRegistry(items)
	return &st, nil
}

func saveState(ctx context.Context, tx *sql.Tx, before, after *models.State) error {
	updatedAt := after.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE marketplace_state
		SET status = $1, last_seq = $2, updated_at = $3
		WHERE id = 1
	`, string(after.Status), after.LastSeq, updatedAt); err != nil {
		return fmt.Errorf("save marketplace state: %w", err)
	}

	old, next := before.Registry.Items(), after.Registry.Items()
	if !sameNames(old, next) {
		return replaceRegistry(ctx, tx, next)
	}
	for i := range next {
		if next[i] == old[i] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE registry_items
			SET quota = $1, per_unit_cost = $2, fulfilled = $3
			WHERE position = $4
		`, next[i].Quota, next[i].PerUnitCost, next[i].Fulfilled, i); err != nil {
			return fmt.Errorf("update registry item %q: %w", next[i].Name, err)
		}
	}
	return nil
}

func sameNames(a, b []models.RequiredItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name {
			return false
		}
	}
	return true
}

// replaceRegistry rewrites the registry in one batch insert.
func replaceRegistry(ctx context.Context, tx *sql.Tx, items []models.RequiredItem) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM registry_items`); err != nil {
		return fmt.Errorf("clear registry: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	positions := make([]int64, len(items))
	names := make([]string, len(items))
	quotas := make([]int64, len(items))
	costs := make([]int64, len(items))
	fulfilled := make([]int64, len(items))
	for i, item := range items {
		positions[i] = int64(i)
		names[i] = item.Name
		quotas[i] = item.Quota
		costs[i] = item.PerUnitCost
		fulfilled[i] = item.Fulfilled
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO registry_items (position, name, quota, per_unit_cost, fulfilled)
		SELECT * FROM unnest($1::int[], $2::text[], $3::bigint[], $4::bigint[], $5::bigint[])
	`, pq.Array(positions), pq.Array(names), pq.Array(quotas), pq.Array(costs), pq.Array(fulfilled)); err != nil {
		return fmt.Errorf("insert registry: %w", err)
	}
	return nil
}
