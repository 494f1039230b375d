package progress

import (
	"context"
	"fmt"
	"strings"
	"time"

	"seacomms/internal/adapters/storage"
	domain "seacomms/internal/domain/progress"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  storage.SQLDB
	now func() time.Time
}

// NewSQLiteStore creates a new progress SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// List retrieves progress rows matching filter, ordered by commendation id.
// PRE: none
// POST: Returns matching rows (empty slice, never nil, when none match)
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.UserProgress, error) {
	var qb strings.Builder
	var where []string
	var args []any

	qb.WriteString("SELECT p.user_id, p.commendation_id, p.current_amount, p.updated_at FROM user_commendation p")
	if filter.CategoryID > 0 {
		qb.WriteString(" JOIN commendation c ON c.id = p.commendation_id")
		where = append(where, "c.category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if filter.UserID != "" {
		where = append(where, "p.user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.CommendationID > 0 {
		where = append(where, "p.commendation_id = ?")
		args = append(args, filter.CommendationID)
	}
	if len(where) > 0 {
		qb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	qb.WriteString(" ORDER BY p.commendation_id ASC, p.user_id ASC")

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	results := []domain.UserProgress{}
	for rows.Next() {
		var p domain.UserProgress
		var updatedAt string
		if err := rows.Scan(&p.UserID, &p.CommendationID, &p.CurrentAmount, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		p.UpdatedAt, _ = storage.ParseTime(updatedAt)
		results = append(results, p)
	}
	return results, rows.Err()
}

// Upsert writes values in one transaction, keyed on (user_id, commendation_id).
// An existing row is overwritten (last write wins). Zero UpdatedAt is set to now.
// PRE: every value has been validated
// POST: at most one row exists per (user_id, commendation_id); all or none are written
func (s *SQLiteStore) Upsert(ctx context.Context, values []domain.UserProgress) ([]domain.UserProgress, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin upsert progress: %w", err)
	}
	defer tx.Rollback()

	out := make([]domain.UserProgress, 0, len(values))
	for _, p := range values {
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = s.now().UTC()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO user_commendation (user_id, commendation_id, current_amount, updated_at)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(user_id, commendation_id) DO UPDATE SET
			   current_amount=excluded.current_amount,
			   updated_at=excluded.updated_at`,
			p.UserID, p.CommendationID, p.CurrentAmount, storage.FormatTime(p.UpdatedAt))
		if err != nil {
			return nil, fmt.Errorf("upsert progress %s/%d: %w", p.UserID, p.CommendationID, err)
		}
		out = append(out, p)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit progress: %w", err)
	}
	return out, nil
}
