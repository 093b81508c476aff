package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"charitydrive/internal/catalog/models"
	"charitydrive/internal/platform/postgres"
	id "charitydrive/pkg/domain"
	"charitydrive/pkg/platform/sentinel"
	txcontext "charitydrive/pkg/platform/tx"
)

// PostgresStore persists the catalog in catalog_categories, catalog_items and
// the single-row catalog_owner table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureOwner records owner as the initial catalog owner unless a row exists.
func (s *PostgresStore) EnsureOwner(ctx context.Context, owner id.AccountID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO catalog_owner (id, owner) VALUES (1, $1)
		ON CONFLICT (id) DO NOTHING
	`, uuid.UUID(owner))
	if err != nil {
		return fmt.Errorf("ensure catalog owner: %w", err)
	}
	return nil
}

func (s *PostgresStore) AddCategory(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO catalog_categories (name) VALUES ($1)`, name)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM catalog_categories ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AddItem(ctx context.Context, item models.Item) error {
	return txcontext.Run(ctx, s.db, func(txCtx context.Context, tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(txCtx,
			`SELECT EXISTS (SELECT 1 FROM catalog_categories WHERE name = $1)`, item.Category,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check category: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		_, err := tx.ExecContext(txCtx,
			`INSERT INTO catalog_items (name, price, category, valid) VALUES ($1, $2, $3, $4)`,
			item.Name, item.Price, item.Category, item.Valid,
		)
		if err != nil {
			if postgres.IsUniqueViolation(err) {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("insert item: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) UpdateItem(ctx context.Context, name string, update models.ItemUpdate) (*models.Item, error) {
	newName := name
	if update.NewName != "" {
		newName = update.NewName
	}
	var item models.Item
	err := s.db.QueryRowContext(ctx, `
		UPDATE catalog_items SET name = $2, price = $3, valid = $4
		WHERE name = $1
		RETURNING name, price, category, valid
	`, name, newName, update.Price, update.Valid).Scan(&item.Name, &item.Price, &item.Category, &item.Valid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		if postgres.IsUniqueViolation(err) {
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("update item: %w", err)
	}
	return &item, nil
}

func (s *PostgresStore) GetItem(ctx context.Context, name string) (*models.Item, error) {
	var item models.Item
	err := s.db.QueryRowContext(ctx,
		`SELECT name, price, category, valid FROM catalog_items WHERE name = $1`, name,
	).Scan(&item.Name, &item.Price, &item.Category, &item.Valid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &item, nil
}

func (s *PostgresStore) ListItems(ctx context.Context) ([]models.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, price, category, valid FROM catalog_items ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var out []models.Item
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(&item.Name, &item.Price, &item.Category, &item.Valid); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetOwnership(ctx context.Context) (models.Ownership, error) {
	var (
		owner    uuid.UUID
		previous uuid.NullUUID
		own      models.Ownership
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT owner, previous_owner, transferred FROM catalog_owner WHERE id = 1`,
	).Scan(&owner, &previous, &own.Transferred)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Ownership{}, sentinel.ErrNotFound
		}
		return models.Ownership{}, fmt.Errorf("get ownership: %w", err)
	}
	own.Owner = id.AccountID(owner)
	if previous.Valid {
		own.PreviousOwner = id.AccountID(previous.UUID)
	}
	return own, nil
}

func (s *PostgresStore) TransferOwnership(ctx context.Context, from, newOwner id.AccountID) (models.Ownership, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE catalog_owner SET owner = $2, previous_owner = $1, transferred = TRUE
		WHERE id = 1 AND owner = $1
	`, uuid.UUID(from), uuid.UUID(newOwner))
	if err != nil {
		return models.Ownership{}, fmt.Errorf("transfer ownership: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Ownership{}, fmt.Errorf("transfer ownership: %w", err)
	}
	if n == 0 {
		return models.Ownership{}, sentinel.ErrInvalidState
	}
	return models.Ownership{Owner: newOwner, PreviousOwner: from, Transferred: true}, nil
}
