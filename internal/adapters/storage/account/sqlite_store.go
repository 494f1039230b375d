package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"seacomms/internal/adapters/storage"
	domain "seacomms/internal/domain/account"
)

const selectColumns = "SELECT id, email, password_hash, status, created_at, failed_logins, locked_until FROM account"

const upsertAccount = `INSERT INTO account (id, email, password_hash, status, created_at, failed_logins, locked_until)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	  email=excluded.email,
	  password_hash=excluded.password_hash,
	  status=excluded.status,
	  failed_logins=excluded.failed_logins,
	  locked_until=excluded.locked_until`

// execer is satisfied by both storage.SQLDB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new account SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Account by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	entity, err := scanAccount(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, fmt.Errorf("account not found: %w", err)
	}
	return entity, err
}

// GetByEmail retrieves an Account by exact email.
// PRE: email is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows if not found
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE email = ?", email)
	entity, err := scanAccount(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, fmt.Errorf("account not found: %w", err)
	}
	return entity, err
}

// Save persists an Account (insert or update keyed on id).
// PRE: entity has been validated
// POST: Entity is persisted; a second account with the same email wraps storage.ErrDuplicate
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Account) error {
	if _, err := saveAccount(ctx, s.db, upsertAccount, entity); err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

// SavePending stores a pending account together with a fresh activation token.
// An existing pending row with the same id is overwritten (created_at included)
// and its older tokens are marked used; an active row is never touched.
// PRE: entity is pending activation; tok.AccountID == entity.ID
// POST: both rows are stored or neither is; an email or id clash with an
// active account wraps storage.ErrDuplicate
func (s *SQLiteStore) SavePending(ctx context.Context, entity domain.Account, tok domain.ActivationToken) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save pending account: %w", err)
	}
	defer tx.Rollback()

	res, err := saveAccount(ctx, tx, upsertAccount+`,
	  created_at=excluded.created_at
	WHERE account.status = '`+domain.StatusPendingActivation+`'`, entity)
	if err != nil {
		return fmt.Errorf("save pending account: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("save pending account: %w", err)
	} else if n == 0 {
		return fmt.Errorf("save pending account %s: %w", entity.ID, storage.ErrDuplicate)
	}

	if _, err := tx.ExecContext(ctx, "UPDATE activation_token SET used = 1 WHERE account_id = ?", entity.ID); err != nil {
		return fmt.Errorf("invalidate activation tokens: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO activation_token (id, account_id, token, expires_at, used, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		tok.ID, tok.AccountID, tok.Token, storage.FormatTime(tok.ExpiresAt), tok.Used, storage.FormatTime(tok.CreatedAt),
	); err != nil {
		return fmt.Errorf("save activation token: %w", storage.CheckUnique(err))
	}
	return tx.Commit()
}

// GetActivationTokenByToken retrieves an activation token by its secret value.
// PRE: token is non-empty
// POST: Returns the token or an error wrapping sql.ErrNoRows if not found
func (s *SQLiteStore) GetActivationTokenByToken(ctx context.Context, token string) (domain.ActivationToken, error) {
	var tok domain.ActivationToken
	var expiresAt, createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, account_id, token, expires_at, used, created_at FROM activation_token WHERE token = ?", token).
		Scan(&tok.ID, &tok.AccountID, &tok.Token, &expiresAt, &tok.Used, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ActivationToken{}, fmt.Errorf("activation token not found: %w", err)
	}
	if err != nil {
		return domain.ActivationToken{}, err
	}
	tok.ExpiresAt, _ = storage.ParseTime(expiresAt)
	tok.CreatedAt, _ = storage.ParseTime(createdAt)
	return tok, nil
}

// CompleteActivation consumes tok and saves the activated account in one transaction.
// PRE: entity has been activated; tok belongs to entity
// POST: tok and every other token for the account are used; returns
// domain.ErrTokenUsed and changes nothing if tok was consumed concurrently
func (s *SQLiteStore) CompleteActivation(ctx context.Context, entity domain.Account, tok domain.ActivationToken) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin activation: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "UPDATE activation_token SET used = 1 WHERE id = ? AND used = 0", tok.ID)
	if err != nil {
		return fmt.Errorf("consume activation token: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("consume activation token: %w", err)
	} else if n == 0 {
		return domain.ErrTokenUsed
	}
	if _, err := tx.ExecContext(ctx, "UPDATE activation_token SET used = 1 WHERE account_id = ?", entity.ID); err != nil {
		return fmt.Errorf("invalidate activation tokens: %w", err)
	}
	if _, err := saveAccount(ctx, tx, upsertAccount, entity); err != nil {
		return fmt.Errorf("save activated account: %w", err)
	}
	return tx.Commit()
}

// Count returns the total number of accounts.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM account").Scan(&count)
	return count, err
}

func saveAccount(ctx context.Context, db execer, query string, entity domain.Account) (sql.Result, error) {
	status := entity.Status
	if status == "" {
		status = domain.StatusActive
	}
	res, err := db.ExecContext(ctx, query,
		entity.ID,
		entity.Email,
		entity.PasswordHash,
		status,
		storage.FormatTime(entity.CreatedAt),
		entity.FailedLogins,
		storage.FormatTime(entity.LockedUntil),
	)
	return res, storage.CheckUnique(err)
}

func scanAccount(scan func(dest ...any) error) (domain.Account, error) {
	var entity domain.Account
	var createdAt string
	var lockedUntil sql.NullString
	err := scan(
		&entity.ID,
		&entity.Email,
		&entity.PasswordHash,
		&entity.Status,
		&createdAt,
		&entity.FailedLogins,
		&lockedUntil,
	)
	if err != nil {
		return domain.Account{}, err
	}
	entity.CreatedAt, _ = storage.ParseTime(createdAt)
	if lockedUntil.Valid {
		entity.LockedUntil, _ = storage.ParseTime(lockedUntil.String)
	}
	return entity, nil
}
