package web

import (
	"net/http"

	"seacomms/internal/adapters/http/middleware"
)

// registerRoutes mounts every page and API route on mux.
func registerRoutes(mux *http.ServeMux) {
	auth := middleware.RequireAuth
	admin := middleware.RequireAdmin(allowList)

	// Auth pages
	mux.HandleFunc("GET /login", handleLoginPage)
	mux.HandleFunc("POST /login", handleLogin)
	mux.HandleFunc("GET /signup", handleSignUpPage)
	mux.HandleFunc("POST /signup", handleSignUp)
	mux.HandleFunc("GET /activate", handleActivatePage)
	mux.HandleFunc("POST /activate", handleActivate)
	mux.Handle("POST /logout", auth(http.HandlerFunc(handleLogout)))

	// Member pages
	mux.Handle("GET /{$}", auth(http.HandlerFunc(handleDashboard)))
	mux.Handle("GET /category/{id}", auth(http.HandlerFunc(handleCategoryPage)))
	mux.Handle("POST /category/{id}/progress", auth(http.HandlerFunc(handleProgressForm)))
	mux.Handle("GET /profile", auth(http.HandlerFunc(handleProfile)))

	// Admin pages
	mux.Handle("GET /admin", admin(http.HandlerFunc(handleAdminPage)))
	mux.Handle("POST /admin/categories", admin(http.HandlerFunc(handleAdminCreateCategory)))
	mux.Handle("POST /admin/commendations", admin(http.HandlerFunc(handleAdminCreateCommendation)))

	// JSON API
	mux.HandleFunc("POST /api/auth/signup", handleAPISignUp)
	mux.HandleFunc("POST /api/auth/activate", handleAPIActivate)
	mux.HandleFunc("POST /api/auth/signin", handleAPISignIn)
	mux.Handle("POST /api/auth/signout", auth(http.HandlerFunc(handleAPISignOut)))
	mux.HandleFunc("GET /api/session", handleAPISession)
	mux.Handle("GET /api/categories", auth(http.HandlerFunc(handleAPIListCategories)))
	mux.Handle("POST /api/categories", admin(http.HandlerFunc(handleAPICreateCategory)))
	mux.Handle("GET /api/categories/{id}/commendations", auth(http.HandlerFunc(handleAPIListCommendations)))
	mux.Handle("GET /api/categories/{id}/progress", auth(http.HandlerFunc(handleAPICategoryProgress)))
	mux.Handle("POST /api/commendations", admin(http.HandlerFunc(handleAPICreateCommendation)))
	mux.Handle("GET /api/progress", auth(http.HandlerFunc(handleAPIListProgress)))
	mux.Handle("PUT /api/progress", auth(http.HandlerFunc(handleAPIUpdateProgress)))
	mux.Handle("GET /api/admin/perf", admin(http.HandlerFunc(handleAPIPerf)))

	mux.HandleFunc("GET /healthz", handleHealth)
}
