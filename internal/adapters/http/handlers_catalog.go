package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"seacomms/internal/adapters/http/middleware"
	categoryStore "seacomms/internal/adapters/storage/category"
	"seacomms/internal/application/listutil"
	"seacomms/internal/application/orchestrators"
	"seacomms/internal/application/projections"
)

// handleDashboard handles GET /: the category cards.
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	cats, err := projections.QueryGetCategories(r.Context(), projections.GetCategoriesQuery{
		Sort: listutil.ParseSortParams(r.URL.Query(), categoryStore.SortColumns),
	}, projections.GetCategoriesDeps{CategoryStore: stores.CategoryStore})
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, r, "dashboard.html", map[string]any{
		"Categories": cats,
	})
}

// handleCategoryPage handles GET /category/{id}: commendations with the user's progress.
func handleCategoryPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	data := map[string]any{}
	if r.URL.Query().Get("saved") != "" {
		data["Notice"] = "Progress saved."
	}
	renderCategoryPage(w, r, http.StatusOK, id, data)
}

// handleProgressForm handles POST /category/{id}/progress
func handleProgressForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	sess, _ := middleware.GetSessionFromContext(r.Context())
	commID, _ := strconv.ParseInt(r.FormValue("CommendationID"), 10, 64)
	amount := r.FormValue("Amount")

	_, err := orchestrators.ExecuteUpdateProgress(r.Context(), orchestrators.UpdateProgressInput{
		UserID:         sess.AccountID,
		CommendationID: commID,
		CategoryID:     id,
		Amount:         amount,
	}, orchestrators.UpdateProgressDeps{
		CommendationStore: stores.CommendationStore,
		ProgressStore:     stores.ProgressStore,
	})
	if err != nil {
		renderCategoryPage(w, r, errorStatus(err), id, map[string]any{
			"Error":         noticeFor(err),
			"EditingID":     commID,
			"EditingAmount": amount,
		})
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/category/%d?saved=%d", id, commID), http.StatusSeeOther)
}

// renderCategoryPage loads the category view and merges extra into the template data.
func renderCategoryPage(w http.ResponseWriter, r *http.Request, status int, id int64, extra map[string]any) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	result, err := projections.QueryGetCategoryProgress(r.Context(), projections.GetCategoryProgressQuery{
		CategoryID: id,
		UserID:     sess.AccountID,
	}, categoryProgressDeps())
	if errors.Is(err, projections.ErrCategoryNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}

	data := map[string]any{
		"Category":  result.Category,
		"Items":     result.Items,
		"Summary":   result.Summary,
		"EditingID": int64(0),
	}
	for k, v := range extra {
		data[k] = v
	}
	renderTemplateStatus(w, r, status, "category.html", data)
}

// handleProfile handles GET /profile
func handleProfile(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	profile, err := projections.QueryGetProfile(r.Context(), projections.GetProfileQuery{
		AccountID: sess.AccountID,
		Email:     sess.Email,
	}, projections.GetProfileDeps{AccountStore: stores.AccountStore, AllowList: allowList})
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, r, "profile.html", map[string]any{
		"Profile": profile,
	})
}

// handleHealth handles GET /healthz
func handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := stores.AccountStore.Count(r.Context()); err != nil {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("ok"))
}

func categoryProgressDeps() projections.GetCategoryProgressDeps {
	return projections.GetCategoryProgressDeps{
		CategoryStore:     stores.CategoryStore,
		CommendationStore: stores.CommendationStore,
		ProgressStore:     stores.ProgressStore,
	}
}

func commendationsDeps() projections.GetCommendationsDeps {
	return projections.GetCommendationsDeps{
		CategoryStore:     stores.CategoryStore,
		CommendationStore: stores.CommendationStore,
	}
}
