package commendation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"seacomms/internal/adapters/storage"
	"seacomms/internal/application/listutil"
	domain "seacomms/internal/domain/commendation"
)

const selectColumns = "SELECT id, category_id, title, subcategory, total_amount, description FROM commendation"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new commendation SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// List retrieves commendations matching filter, ordered by id unless Sort says otherwise.
// PRE: none
// POST: Returns matching commendations (empty slice, never nil, when none match)
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Commendation, error) {
	var qb strings.Builder
	var where []string
	var args []any

	qb.WriteString(selectColumns)
	if filter.CategoryID > 0 {
		where = append(where, "category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if filter.Title != "" {
		where = append(where, "title = ?")
		args = append(args, filter.Title)
	}
	if len(where) > 0 {
		qb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	qb.WriteString(listutil.OrderClause(filter.Sort, SortColumns, "id"))

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list commendations: %w", err)
	}
	defer rows.Close()

	results := []domain.Commendation{}
	for rows.Next() {
		c, err := scanCommendation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan commendation: %w", err)
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

// GetByID retrieves a Commendation by its ID.
// PRE: id > 0
// POST: Returns the entity or an error wrapping sql.ErrNoRows if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id int64) (domain.Commendation, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	c, err := scanCommendation(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Commendation{}, fmt.Errorf("commendation not found: %w", err)
	}
	return c, err
}

// Insert stores values in one transaction and returns them with assigned ids.
// PRE: every value has been validated and references an existing category
// POST: either all values are stored or none are; a title clash wraps storage.ErrDuplicate
func (s *SQLiteStore) Insert(ctx context.Context, values []domain.Commendation) ([]domain.Commendation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert commendations: %w", err)
	}
	defer tx.Rollback()

	out := make([]domain.Commendation, 0, len(values))
	for _, c := range values {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO commendation (category_id, title, subcategory, total_amount, description)
			 VALUES (?, ?, ?, ?, ?)`,
			c.CategoryID, c.Title, c.Subcategory, c.TotalAmount, c.Description)
		if err != nil {
			return nil, fmt.Errorf("insert commendation %q: %w", c.Title, storage.CheckUnique(err))
		}
		if c.ID, err = res.LastInsertId(); err != nil {
			return nil, fmt.Errorf("commendation id: %w", err)
		}
		out = append(out, c)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit commendations: %w", err)
	}
	return out, nil
}

func scanCommendation(scan func(dest ...any) error) (domain.Commendation, error) {
	var c domain.Commendation
	err := scan(&c.ID, &c.CategoryID, &c.Title, &c.Subcategory, &c.TotalAmount, &c.Description)
	return c, err
}
