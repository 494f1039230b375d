package web

import (
	"net/http"
	"strconv"
	"time"

	"seacomms/internal/adapters/http/middleware"
	"seacomms/internal/application/orchestrators"
	"seacomms/internal/application/projections"
	"seacomms/internal/domain/commendation"
)

// adminNotices are the confirmations shown after a redirect from a successful create.
var adminNotices = map[string]string{
	"category":     "Category added.",
	"commendation": "Commendation added.",
}

// handleAdminPage handles GET /admin
func handleAdminPage(w http.ResponseWriter, r *http.Request) {
	renderAdminPage(w, r, http.StatusOK, map[string]any{
		"Notice": adminNotices[r.URL.Query().Get("created")],
	})
}

// handleAdminCreateCategory handles POST /admin/categories
func handleAdminCreateCategory(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	sess, _ := middleware.GetSessionFromContext(r.Context())
	input := orchestrators.CreateCategoryInput{
		Name:        r.FormValue("Name"),
		Description: r.FormValue("Description"),
		AdminEmail:  sess.Email,
	}
	_, err := orchestrators.ExecuteCreateCategory(r.Context(), input, orchestrators.CreateCategoryDeps{
		CategoryStore: stores.CategoryStore,
	})
	if err != nil {
		renderAdminPage(w, r, errorStatus(err), map[string]any{
			"CategoryError": noticeFor(err),
			"CategoryForm":  input,
		})
		return
	}
	http.Redirect(w, r, "/admin?created=category", http.StatusSeeOther)
}

// handleAdminCreateCommendation handles POST /admin/commendations
func handleAdminCreateCommendation(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	sess, _ := middleware.GetSessionFromContext(r.Context())
	catID, _ := strconv.ParseInt(r.FormValue("CategoryID"), 10, 64)
	input := orchestrators.CreateCommendationInput{
		NewInput: commendation.NewInput{
			CategoryID:  catID,
			Title:       r.FormValue("Title"),
			Subcategory: r.FormValue("Subcategory"),
			TotalAmount: r.FormValue("TotalAmount"),
			Description: r.FormValue("Description"),
		},
		AdminEmail: sess.Email,
	}
	_, err := orchestrators.ExecuteCreateCommendation(r.Context(), input, orchestrators.CreateCommendationDeps{
		CategoryStore:     stores.CategoryStore,
		CommendationStore: stores.CommendationStore,
	})
	if err != nil {
		renderAdminPage(w, r, errorStatus(err), map[string]any{
			"CommendationError": noticeFor(err),
			"CommendationForm":  input.NewInput,
		})
		return
	}
	http.Redirect(w, r, "/admin?created=commendation", http.StatusSeeOther)
}

func renderAdminPage(w http.ResponseWriter, r *http.Request, status int, extra map[string]any) {
	cats, err := projections.QueryGetCategories(r.Context(), projections.GetCategoriesQuery{},
		projections.GetCategoriesDeps{CategoryStore: stores.CategoryStore})
	if err != nil {
		internalError(w, err)
		return
	}
	data := map[string]any{
		"Categories": cats,
		"PerfOn":     perfCollector != nil,
	}
	for k, v := range extra {
		data[k] = v
	}
	renderTemplateStatus(w, r, status, "admin.html", data)
}

// handleAPIPerf handles GET /api/admin/perf?minutes=N&top=N
func handleAPIPerf(w http.ResponseWriter, r *http.Request) {
	if perfCollector == nil {
		http.Error(w, "performance collection is disabled", http.StatusNotFound)
		return
	}
	minutes := positiveInt(r.URL.Query().Get("minutes"), 60)
	top := positiveInt(r.URL.Query().Get("top"), 10)
	since := time.Now().Add(-time.Duration(minutes) * time.Minute)
	writeJSON(w, http.StatusOK, perfCollector.Snapshot(since, top))
}

func positiveInt(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
