package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"seacomms/internal/adapters/storage"
	categoryStore "seacomms/internal/adapters/storage/category"
	commendationStore "seacomms/internal/adapters/storage/commendation"
	"seacomms/internal/domain/account"
	"seacomms/internal/domain/category"
	"seacomms/internal/domain/commendation"
	"seacomms/internal/domain/progress"
	"seacomms/internal/domain/session"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

func fixedID() string { return "test-id-001" }

var errDiskFull = errors.New("database or disk is full")

// mockAccountStore keys accounts by email and activation tokens by their secret.
type mockAccountStore struct {
	accounts map[string]account.Account
	tokens   map[string]account.ActivationToken
	saves    int
	getErr   error
	saveErr  error
}

func newMockAccountStore(accts ...account.Account) *mockAccountStore {
	m := &mockAccountStore{
		accounts: make(map[string]account.Account),
		tokens:   make(map[string]account.ActivationToken),
	}
	for _, a := range accts {
		m.accounts[a.Email] = a
	}
	return m
}

func (m *mockAccountStore) GetByEmail(_ context.Context, email string) (account.Account, error) {
	if m.getErr != nil {
		return account.Account{}, m.getErr
	}
	a, ok := m.accounts[email]
	if !ok {
		return account.Account{}, sql.ErrNoRows
	}
	return a, nil
}

func (m *mockAccountStore) GetByID(_ context.Context, id string) (account.Account, error) {
	if m.getErr != nil {
		return account.Account{}, m.getErr
	}
	for _, a := range m.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return account.Account{}, sql.ErrNoRows
}

func (m *mockAccountStore) Save(_ context.Context, a account.Account) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.accounts[a.Email] = a
	return nil
}

func (m *mockAccountStore) SavePending(_ context.Context, a account.Account, tok account.ActivationToken) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if existing, ok := m.accounts[a.Email]; ok && !existing.IsPendingActivation() {
		return fmt.Errorf("save pending account: %w", storage.ErrDuplicate)
	}
	m.saves++
	m.accounts[a.Email] = a
	for k, t := range m.tokens {
		if t.AccountID == a.ID {
			t.Used = true
			m.tokens[k] = t
		}
	}
	m.tokens[tok.Token] = tok
	return nil
}

func (m *mockAccountStore) GetActivationTokenByToken(_ context.Context, token string) (account.ActivationToken, error) {
	if m.getErr != nil {
		return account.ActivationToken{}, m.getErr
	}
	t, ok := m.tokens[token]
	if !ok {
		return account.ActivationToken{}, sql.ErrNoRows
	}
	return t, nil
}

func (m *mockAccountStore) CompleteActivation(_ context.Context, a account.Account, tok account.ActivationToken) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.tokens[tok.Token].Used {
		return account.ErrTokenUsed
	}
	for k, t := range m.tokens {
		if t.AccountID == a.ID {
			t.Used = true
			m.tokens[k] = t
		}
	}
	m.saves++
	m.accounts[a.Email] = a
	return nil
}

// mockSessions issues predictable tokens.
type mockSessions struct {
	started []string
	ended   []string
	err     error
}

func (m *mockSessions) Start(_ context.Context, accountID, email string) (string, session.Session, error) {
	if m.err != nil {
		return "", session.Session{}, m.err
	}
	m.started = append(m.started, accountID)
	s := session.Session{
		ID:        fmt.Sprintf("sess-%d", len(m.started)),
		AccountID: accountID,
		Email:     email,
		CreatedAt: fixedTime,
		ExpiresAt: fixedTime.Add(24 * time.Hour),
	}
	return "token-" + s.ID, s, nil
}

func (m *mockSessions) End(_ context.Context, token string) error {
	if m.err != nil {
		return m.err
	}
	m.ended = append(m.ended, token)
	return nil
}

// mockCategoryStore assigns sequential IDs.
type mockCategoryStore struct {
	items     []category.Category
	inserts   int
	listErr   error
	insertErr error
}

func (m *mockCategoryStore) List(_ context.Context, f categoryStore.ListFilter) ([]category.Category, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := []category.Category{}
	for _, c := range m.items {
		if f.Name != "" && !asciiFoldEqual(c.Name, f.Name) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCategoryStore) GetByID(_ context.Context, id int64) (category.Category, error) {
	if m.listErr != nil {
		return category.Category{}, m.listErr
	}
	for _, c := range m.items {
		if c.ID == id {
			return c, nil
		}
	}
	return category.Category{}, fmt.Errorf("category %d: %w", id, sql.ErrNoRows)
}

func (m *mockCategoryStore) Insert(_ context.Context, values []category.Category) ([]category.Category, error) {
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	m.inserts++
	out := make([]category.Category, len(values))
	for i, v := range values {
		v.ID = int64(len(m.items) + 1)
		m.items = append(m.items, v)
		out[i] = v
	}
	return out, nil
}

// asciiFoldEqual compares like SQLite's NOCASE collation, which folds ASCII letters only.
func asciiFoldEqual(a, b string) bool {
	lower := func(s string) string {
		return strings.Map(func(r rune) rune {
			if r >= 'A' && r <= 'Z' {
				return r + ('a' - 'A')
			}
			return r
		}, s)
	}
	return lower(a) == lower(b)
}

// mockCommendationStore assigns sequential IDs starting at 10.
type mockCommendationStore struct {
	items     []commendation.Commendation
	inserts   int
	listErr   error
	insertErr error
}

func (m *mockCommendationStore) List(_ context.Context, f commendationStore.ListFilter) ([]commendation.Commendation, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := []commendation.Commendation{}
	for _, c := range m.items {
		if f.CategoryID != 0 && c.CategoryID != f.CategoryID {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCommendationStore) GetByID(_ context.Context, id int64) (commendation.Commendation, error) {
	if m.listErr != nil {
		return commendation.Commendation{}, m.listErr
	}
	for _, c := range m.items {
		if c.ID == id {
			return c, nil
		}
	}
	return commendation.Commendation{}, fmt.Errorf("commendation %d: %w", id, sql.ErrNoRows)
}

func (m *mockCommendationStore) Insert(_ context.Context, values []commendation.Commendation) ([]commendation.Commendation, error) {
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	m.inserts++
	out := make([]commendation.Commendation, len(values))
	for i, v := range values {
		v.ID = int64(len(m.items) + 10)
		m.items = append(m.items, v)
		out[i] = v
	}
	return out, nil
}

// mockProgressStore upserts on (user, commendation).
type mockProgressStore struct {
	rows    []progress.UserProgress
	upserts int
	err     error
}

func (m *mockProgressStore) Upsert(_ context.Context, values []progress.UserProgress) ([]progress.UserProgress, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.upserts++
	for _, v := range values {
		replaced := false
		for i, r := range m.rows {
			if r.UserID == v.UserID && r.CommendationID == v.CommendationID {
				m.rows[i] = v
				replaced = true
			}
		}
		if !replaced {
			m.rows = append(m.rows, v)
		}
	}
	return values, nil
}
