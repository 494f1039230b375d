package projections

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"seacomms/internal/adapters/storage"
	accountStore "seacomms/internal/adapters/storage/account"
	categoryStore "seacomms/internal/adapters/storage/category"
	commendationStore "seacomms/internal/adapters/storage/commendation"
	progressStore "seacomms/internal/adapters/storage/progress"
	"seacomms/internal/application/listutil"
	"seacomms/internal/domain/account"
	"seacomms/internal/domain/apperr"
	domainCategory "seacomms/internal/domain/category"
	domainCommendation "seacomms/internal/domain/commendation"
	domainProgress "seacomms/internal/domain/progress"
)

type sqliteStores struct {
	accounts      *accountStore.SQLiteStore
	categories    *categoryStore.SQLiteStore
	commendations *commendationStore.SQLiteStore
	progress      *progressStore.SQLiteStore
}

func newSQLiteStores(t *testing.T) sqliteStores {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return sqliteStores{
		accounts:      accountStore.NewSQLiteStore(db),
		categories:    categoryStore.NewSQLiteStore(db),
		commendations: commendationStore.NewSQLiteStore(db),
		progress:      progressStore.NewSQLiteStore(db),
	}
}

// TestQueryGetCategoryProgress_CombatScenario tests the aggregate over real stores,
// with another user's rows present and ignored.
func TestQueryGetCategoryProgress_CombatScenario(t *testing.T) {
	s := newSQLiteStores(t)
	ctx := context.Background()

	for _, id := range []string{"acct-1", "acct-2"} {
		if err := s.accounts.Save(ctx, account.Account{ID: id, Email: id + "@example.com", PasswordHash: "x", CreatedAt: time.Now()}); err != nil {
			t.Fatalf("save account: %v", err)
		}
	}
	cats, err := s.categories.Insert(ctx, []domainCategory.Category{{Name: "Combat"}, {Name: "Trading"}})
	if err != nil {
		t.Fatalf("insert categories: %v", err)
	}
	comms, err := s.commendations.Insert(ctx, []domainCommendation.Commendation{
		{CategoryID: cats[0].ID, Title: "Cannon Master", TotalAmount: 100},
		{CategoryID: cats[0].ID, Title: "Boarder", TotalAmount: 50},
		{CategoryID: cats[1].ID, Title: "Merchant", TotalAmount: 10},
	})
	if err != nil {
		t.Fatalf("insert commendations: %v", err)
	}
	if _, err := s.progress.Upsert(ctx, []domainProgress.UserProgress{
		{UserID: "acct-1", CommendationID: comms[0].ID, CurrentAmount: 120},
		{UserID: "acct-1", CommendationID: comms[2].ID, CurrentAmount: 10},
		{UserID: "acct-2", CommendationID: comms[1].ID, CurrentAmount: 50},
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	res, err := QueryGetCategoryProgress(ctx, GetCategoryProgressQuery{CategoryID: cats[0].ID, UserID: "acct-1"},
		GetCategoryProgressDeps{CategoryStore: s.categories, CommendationStore: s.commendations, ProgressStore: s.progress})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Category.Name != "Combat" || len(res.Items) != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Items[0].Current != 120 || res.Items[0].Clamped != 100 || !res.Items[0].Completed {
		t.Errorf("unexpected first item: %+v", res.Items[0])
	}
	if res.Items[1].Current != 0 || res.Items[1].Completed {
		t.Errorf("expected other user's progress to be ignored, got %+v", res.Items[1])
	}
	want := domainProgress.Summary{TotalRequired: 150, TotalProgress: 100, CompletedCount: 1, TotalCount: 2, Percent: 66, PercentLabel: "66.0"}
	if res.Summary == nil || *res.Summary != want {
		t.Errorf("summary = %+v, want %+v", res.Summary, want)
	}
}

// TestQueryGetCategoryProgress_EmptyCategory tests an empty category has no summary.
func TestQueryGetCategoryProgress_EmptyCategory(t *testing.T) {
	s := newSQLiteStores(t)
	ctx := context.Background()
	cats, _ := s.categories.Insert(ctx, []domainCategory.Category{{Name: "Combat"}})

	res, err := QueryGetCategoryProgress(ctx, GetCategoryProgressQuery{CategoryID: cats[0].ID, UserID: "acct-1"},
		GetCategoryProgressDeps{CategoryStore: s.categories, CommendationStore: s.commendations, ProgressStore: s.progress})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Summary != nil || len(res.Items) != 0 {
		t.Errorf("expected no items and no summary, got %+v", res)
	}
}

// TestQueryGetCategoryProgress_NotFound tests an unknown category id.
func TestQueryGetCategoryProgress_NotFound(t *testing.T) {
	s := newSQLiteStores(t)
	_, err := QueryGetCategoryProgress(context.Background(), GetCategoryProgressQuery{CategoryID: 42, UserID: "acct-1"},
		GetCategoryProgressDeps{CategoryStore: s.categories, CommendationStore: s.commendations, ProgressStore: s.progress})
	if !errors.Is(err, ErrCategoryNotFound) {
		t.Errorf("expected ErrCategoryNotFound, got %v", err)
	}
}

type failingCategoryStore struct{}

// List always fails.
func (failingCategoryStore) List(context.Context, categoryStore.ListFilter) ([]domainCategory.Category, error) {
	return nil, errors.New("database is locked")
}

// GetByID always fails.
func (failingCategoryStore) GetByID(context.Context, int64) (domainCategory.Category, error) {
	return domainCategory.Category{}, fmt.Errorf("scan: %w", errors.New("database is locked"))
}

// TestQueries_StoreFailure tests read failures surface as store errors.
func TestQueries_StoreFailure(t *testing.T) {
	ctx := context.Background()
	if _, err := QueryGetCategories(ctx, GetCategoriesQuery{}, GetCategoriesDeps{CategoryStore: failingCategoryStore{}}); !apperr.Is(err, apperr.KindStore) {
		t.Errorf("QueryGetCategories: expected store error, got %v", err)
	}
	_, err := QueryGetCategoryProgress(ctx, GetCategoryProgressQuery{CategoryID: 1}, GetCategoryProgressDeps{CategoryStore: failingCategoryStore{}})
	if !apperr.Is(err, apperr.KindStore) || errors.Is(err, sql.ErrNoRows) {
		t.Errorf("QueryGetCategoryProgress: expected store error, got %v", err)
	}
}

// TestQueryGetCategories_Sorted tests sort parameters reach the store.
func TestQueryGetCategories_Sorted(t *testing.T) {
	s := newSQLiteStores(t)
	ctx := context.Background()
	s.categories.Insert(ctx, []domainCategory.Category{{Name: "Trading"}, {Name: "Combat"}})

	got, err := QueryGetCategories(ctx, GetCategoriesQuery{Sort: listutil.SortParams{Column: "name"}},
		GetCategoriesDeps{CategoryStore: s.categories})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Combat" {
		t.Errorf("expected name order, got %+v", got)
	}

	empty, err := QueryGetCategories(ctx, GetCategoriesQuery{}, GetCategoriesDeps{CategoryStore: newSQLiteStores(t).categories})
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %v, %v", empty, err)
	}
}

// TestQueryGetCommendations tests per-category listing and the unknown-category case.
func TestQueryGetCommendations(t *testing.T) {
	s := newSQLiteStores(t)
	ctx := context.Background()
	cats, _ := s.categories.Insert(ctx, []domainCategory.Category{{Name: "Combat"}, {Name: "Trading"}})
	s.commendations.Insert(ctx, []domainCommendation.Commendation{
		{CategoryID: cats[0].ID, Title: "Cannon Master", TotalAmount: 100},
		{CategoryID: cats[1].ID, Title: "Merchant", TotalAmount: 10},
	})
	deps := GetCommendationsDeps{CategoryStore: s.categories, CommendationStore: s.commendations}

	got, err := QueryGetCommendations(ctx, GetCommendationsQuery{CategoryID: cats[1].ID}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Merchant" {
		t.Errorf("unexpected commendations: %+v", got)
	}
	if _, err := QueryGetCommendations(ctx, GetCommendationsQuery{CategoryID: 99}, deps); !errors.Is(err, ErrCategoryNotFound) {
		t.Errorf("expected ErrCategoryNotFound, got %v", err)
	}
}
