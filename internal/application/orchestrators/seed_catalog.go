package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	categoryStore "seacomms/internal/adapters/storage/category"
	commendationStore "seacomms/internal/adapters/storage/commendation"
	"seacomms/internal/domain/commendation"
)

// Catalog is the YAML seed file layout.
//
//	categories:
//	  - name: Combat
//	    commendations:
//	      - title: Cannon Master
//	        total_amount: 100
type Catalog struct {
	Categories []CatalogCategory `yaml:"categories"`
}

// CatalogCategory is one category with its commendations.
type CatalogCategory struct {
	Name          string                `yaml:"name"`
	Description   string                `yaml:"description"`
	Commendations []CatalogCommendation `yaml:"commendations"`
}

// CatalogCommendation is one seeded commendation.
type CatalogCommendation struct {
	Title       string `yaml:"title"`
	Subcategory string `yaml:"subcategory"`
	TotalAmount int    `yaml:"total_amount"`
	Description string `yaml:"description"`
}

// LoadCatalog reads and decodes a catalog file. Unknown keys are rejected.
func LoadCatalog(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return Catalog{}, err
	}
	defer f.Close()

	var c Catalog
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return c, nil
}

// CategoryStoreForSeed defines the store interface needed by SeedCatalog.
type CategoryStoreForSeed interface {
	CategoryStoreForCreate
	CategoryStoreForCommendation
}

// SeedCatalogDeps holds dependencies for SeedCatalog.
type SeedCatalogDeps struct {
	CategoryStore     CategoryStoreForSeed
	CommendationStore CommendationStoreForCreate
}

// SeedCatalogResult counts what SeedCatalog inserted.
type SeedCatalogResult struct {
	Categories    int
	Commendations int
}

// ExecuteSeedCatalog inserts the catalog entries that are not stored yet.
// PRE: none
// POST: every catalog category and commendation exists; running again inserts nothing
// INVARIANT: entries go through the same validation as admin input; an invalid entry
// aborts seeding with its error
func ExecuteSeedCatalog(ctx context.Context, cat Catalog, deps SeedCatalogDeps) (SeedCatalogResult, error) {
	var res SeedCatalogResult
	for _, cc := range cat.Categories {
		catID, created, err := seedCategory(ctx, cc, deps)
		if err != nil {
			return res, fmt.Errorf("seed category %q: %w", cc.Name, err)
		}
		if created {
			res.Categories++
		}

		existing, err := deps.CommendationStore.List(ctx, commendationStore.ListFilter{CategoryID: catID})
		if err != nil {
			return res, fmt.Errorf("seed category %q: %w", cc.Name, err)
		}
		for _, cm := range cc.Commendations {
			if hasTitle(existing, cm.Title) {
				continue
			}
			saved, err := ExecuteCreateCommendation(ctx, CreateCommendationInput{
				NewInput: commendation.NewInput{
					CategoryID:  catID,
					Title:       cm.Title,
					Subcategory: cm.Subcategory,
					TotalAmount: strconv.Itoa(cm.TotalAmount),
					Description: cm.Description,
				},
				AdminEmail: "catalog",
			}, CreateCommendationDeps{CategoryStore: deps.CategoryStore, CommendationStore: deps.CommendationStore})
			if err != nil {
				return res, fmt.Errorf("seed commendation %q: %w", cm.Title, err)
			}
			existing = append(existing, saved)
			res.Commendations++
		}
	}

	if res.Categories > 0 || res.Commendations > 0 {
		slog.Info("seed_event", "event", "catalog_seeded", "categories", res.Categories, "commendations", res.Commendations)
	}
	return res, nil
}

func seedCategory(ctx context.Context, cc CatalogCategory, deps SeedCatalogDeps) (int64, bool, error) {
	name := strings.TrimSpace(cc.Name)
	if name != "" {
		// The store's name filter folds ASCII only; match the way ValidateNew does.
		all, err := deps.CategoryStore.List(ctx, categoryStore.ListFilter{})
		if err != nil {
			return 0, false, err
		}
		for _, c := range all {
			if strings.EqualFold(c.Name, name) {
				return c.ID, false, nil
			}
		}
	}
	saved, err := ExecuteCreateCategory(ctx, CreateCategoryInput{
		Name:        cc.Name,
		Description: cc.Description,
		AdminEmail:  "catalog",
	}, CreateCategoryDeps{CategoryStore: deps.CategoryStore})
	if err != nil {
		return 0, false, err
	}
	return saved.ID, true, nil
}

func hasTitle(existing []commendation.Commendation, title string) bool {
	title = strings.TrimSpace(title)
	for _, c := range existing {
		if c.Title == title {
			return true
		}
	}
	return false
}
