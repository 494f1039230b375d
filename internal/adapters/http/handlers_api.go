package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"seacomms/internal/adapters/http/middleware"
	categoryStore "seacomms/internal/adapters/storage/category"
	commendationStore "seacomms/internal/adapters/storage/commendation"
	"seacomms/internal/application/listutil"
	"seacomms/internal/application/orchestrators"
	"seacomms/internal/application/projections"
	"seacomms/internal/domain/commendation"
)

// handleAPIListCategories handles GET /api/categories?order=name
func handleAPIListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := projections.QueryGetCategories(r.Context(), projections.GetCategoriesQuery{
		Sort: listutil.ParseSortParams(r.URL.Query(), categoryStore.SortColumns),
	}, projections.GetCategoriesDeps{CategoryStore: stores.CategoryStore})
	if err != nil {
		apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

// handleAPICreateCategory handles POST /api/categories
func handleAPICreateCategory(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := strictDecode(r, &input); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	sess, _ := middleware.GetSessionFromContext(r.Context())
	c, err := orchestrators.ExecuteCreateCategory(r.Context(), orchestrators.CreateCategoryInput{
		Name:        input.Name,
		Description: input.Description,
		AdminEmail:  sess.Email,
	}, orchestrators.CreateCategoryDeps{CategoryStore: stores.CategoryStore})
	if err != nil {
		apiError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// handleAPIListCommendations handles GET /api/categories/{id}/commendations?order=title&title=X
func handleAPIListCommendations(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid category id", http.StatusBadRequest)
		return
	}
	comms, err := projections.QueryGetCommendations(r.Context(), projections.GetCommendationsQuery{
		CategoryID: id,
		Title:      r.URL.Query().Get("title"),
		Sort:       listutil.ParseSortParams(r.URL.Query(), commendationStore.SortColumns),
	}, commendationsDeps())
	if errors.Is(err, projections.ErrCategoryNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comms)
}

// handleAPICategoryProgress handles GET /api/categories/{id}/progress
func handleAPICategoryProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid category id", http.StatusBadRequest)
		return
	}
	sess, _ := middleware.GetSessionFromContext(r.Context())
	result, err := projections.QueryGetCategoryProgress(r.Context(), projections.GetCategoryProgressQuery{
		CategoryID: id,
		UserID:     sess.AccountID,
	}, categoryProgressDeps())
	if errors.Is(err, projections.ErrCategoryNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleAPICreateCommendation handles POST /api/commendations
func handleAPICreateCommendation(w http.ResponseWriter, r *http.Request) {
	var input struct {
		CategoryID  int64           `json:"category_id"`
		Title       string          `json:"title"`
		Subcategory string          `json:"subcategory"`
		TotalAmount json.RawMessage `json:"total_amount"`
		Description string          `json:"description"`
	}
	if err := strictDecode(r, &input); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	sess, _ := middleware.GetSessionFromContext(r.Context())
	c, err := orchestrators.ExecuteCreateCommendation(r.Context(), orchestrators.CreateCommendationInput{
		NewInput: commendation.NewInput{
			CategoryID:  input.CategoryID,
			Title:       input.Title,
			Subcategory: input.Subcategory,
			TotalAmount: rawNumber(input.TotalAmount),
			Description: input.Description,
		},
		AdminEmail: sess.Email,
	}, orchestrators.CreateCommendationDeps{
		CategoryStore:     stores.CategoryStore,
		CommendationStore: stores.CommendationStore,
	})
	if err != nil {
		apiError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// handleAPIListProgress handles GET /api/progress: the caller's own rows.
func handleAPIListProgress(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	rows, err := projections.QueryGetUserProgress(r.Context(), projections.GetUserProgressQuery{
		UserID: sess.AccountID,
	}, projections.GetUserProgressDeps{ProgressStore: stores.ProgressStore})
	if err != nil {
		apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// handleAPIUpdateProgress handles PUT /api/progress
func handleAPIUpdateProgress(w http.ResponseWriter, r *http.Request) {
	var input struct {
		CommendationID int64           `json:"commendation_id"`
		Amount         json.RawMessage `json:"amount"`
	}
	if err := strictDecode(r, &input); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	sess, _ := middleware.GetSessionFromContext(r.Context())
	row, err := orchestrators.ExecuteUpdateProgress(r.Context(), orchestrators.UpdateProgressInput{
		UserID:         sess.AccountID,
		CommendationID: input.CommendationID,
		Amount:         rawNumber(input.Amount),
	}, orchestrators.UpdateProgressDeps{
		CommendationStore: stores.CommendationStore,
		ProgressStore:     stores.ProgressStore,
	})
	if err != nil {
		apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}
