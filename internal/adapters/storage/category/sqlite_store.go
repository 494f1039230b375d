package category

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"seacomms/internal/adapters/storage"
	"seacomms/internal/application/listutil"
	domain "seacomms/internal/domain/category"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new category SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// List retrieves categories matching filter, ordered by id unless Sort says otherwise.
// PRE: none
// POST: Returns matching categories (empty slice, never nil, when none match)
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Category, error) {
	var qb strings.Builder
	var args []any

	qb.WriteString("SELECT id, name, description FROM category")
	if filter.Name != "" {
		qb.WriteString(" WHERE name = ? COLLATE NOCASE")
		args = append(args, filter.Name)
	}
	qb.WriteString(listutil.OrderClause(filter.Sort, SortColumns, "id"))

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	results := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

// GetByID retrieves a Category by its ID.
// PRE: id > 0
// POST: Returns the entity or an error wrapping sql.ErrNoRows if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id int64) (domain.Category, error) {
	var c domain.Category
	err := s.db.QueryRowContext(ctx, "SELECT id, name, description FROM category WHERE id = ?", id).
		Scan(&c.ID, &c.Name, &c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Category{}, fmt.Errorf("category not found: %w", err)
	}
	return c, err
}

// Insert stores values in one transaction and returns them with assigned ids.
// PRE: every value has been validated
// POST: either all values are stored or none are; a name clash wraps storage.ErrDuplicate
func (s *SQLiteStore) Insert(ctx context.Context, values []domain.Category) ([]domain.Category, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert categories: %w", err)
	}
	defer tx.Rollback()

	out := make([]domain.Category, 0, len(values))
	for _, c := range values {
		res, err := tx.ExecContext(ctx, "INSERT INTO category (name, description) VALUES (?, ?)", c.Name, c.Description)
		if err != nil {
			return nil, fmt.Errorf("insert category %q: %w", c.Name, storage.CheckUnique(err))
		}
		if c.ID, err = res.LastInsertId(); err != nil {
			return nil, fmt.Errorf("category id: %w", err)
		}
		out = append(out, c)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit categories: %w", err)
	}
	return out, nil
}
