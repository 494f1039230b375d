package web

import (
	"net/http"

	"seacomms/internal/adapters/http/middleware"
	"seacomms/internal/application/orchestrators"
	"seacomms/internal/domain/account"
	"seacomms/internal/domain/apperr"
)

// handleLoginPage handles GET /login
func handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	renderTemplate(w, r, "login.html", map[string]any{})
}

// handleLogin handles POST /login
func handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	input := orchestrators.SignInInput{
		Email:    r.FormValue("Email"),
		Password: r.FormValue("Password"),
	}
	result, err := orchestrators.ExecuteSignIn(r.Context(), input, orchestrators.SignInDeps{
		AccountStore: stores.AccountStore,
		Sessions:     sessions,
	})
	if err != nil {
		renderTemplateStatus(w, r, errorStatus(err), "login.html", map[string]any{
			"Error": noticeFor(err),
			"Email": input.Email,
		})
		return
	}
	middleware.SetSessionCookie(w, result.Token, sessions.TTL())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleSignUpPage handles GET /signup
func handleSignUpPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	renderTemplate(w, r, "signup.html", map[string]any{
		"MinPassword": account.MinPasswordLength,
	})
}

// handleSignUp handles POST /signup
func handleSignUp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	input := orchestrators.SignUpInput{
		Email:    r.FormValue("Email"),
		Password: r.FormValue("Password"),
	}
	if input.Password != r.FormValue("ConfirmPassword") {
		renderTemplateStatus(w, r, http.StatusBadRequest, "signup.html", map[string]any{
			"Error":       "Passwords do not match",
			"Email":       input.Email,
			"MinPassword": account.MinPasswordLength,
		})
		return
	}

	result, err := orchestrators.ExecuteSignUp(r.Context(), input, signUpDeps())
	if err != nil {
		renderTemplateStatus(w, r, errorStatus(err), "signup.html", map[string]any{
			"Error":       noticeFor(err),
			"Email":       input.Email,
			"MinPassword": account.MinPasswordLength,
		})
		return
	}
	renderTemplate(w, r, "login.html", map[string]any{
		"Notice": "Account created! Check " + result.Email + " for the activation link.",
		"Email":  result.Email,
	})
}

// handleActivatePage handles GET /activate?token=... and shows the confirmation form.
func handleActivatePage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if _, err := orchestrators.ExecuteCheckActivationToken(r.Context(), token, stores.AccountStore, timeNow()); err != nil {
		renderTemplateStatus(w, r, errorStatus(err), "activate.html", map[string]any{"Error": noticeFor(err)})
		return
	}
	renderTemplate(w, r, "activate.html", map[string]any{"Token": token})
}

// handleActivate handles POST /activate
func handleActivate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	input := orchestrators.ActivateAccountInput{
		Token:    r.FormValue("Token"),
		Password: r.FormValue("Password"),
	}
	result, err := orchestrators.ExecuteActivateAccount(r.Context(), input, activateDeps())
	if err != nil {
		data := map[string]any{"Error": noticeFor(err)}
		if !apperr.Is(err, apperr.KindValidation) {
			// the link is still good; let them retry the password
			data["Token"] = input.Token
		}
		renderTemplateStatus(w, r, errorStatus(err), "activate.html", data)
		return
	}
	middleware.SetSessionCookie(w, result.Token, sessions.TTL())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLogout handles POST /logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	err := orchestrators.ExecuteSignOut(r.Context(), orchestrators.SignOutInput{
		Token: middleware.TokenFromContext(r.Context()),
		Email: sess.Email,
	}, orchestrators.SignOutDeps{Sessions: sessions})
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.ClearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleAPISignUp handles POST /api/auth/signup
func handleAPISignUp(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := strictDecode(r, &input); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	result, err := orchestrators.ExecuteSignUp(r.Context(), orchestrators.SignUpInput{
		Email:    input.Email,
		Password: input.Password,
	}, signUpDeps())
	if err != nil {
		apiError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, result)
}

// handleAPIActivate handles POST /api/auth/activate
func handleAPIActivate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := strictDecode(r, &input); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	result, err := orchestrators.ExecuteActivateAccount(r.Context(), orchestrators.ActivateAccountInput{
		Token:    input.Token,
		Password: input.Password,
	}, activateDeps())
	if err != nil {
		apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleAPISignIn handles POST /api/auth/signin
func handleAPISignIn(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := strictDecode(r, &input); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	result, err := orchestrators.ExecuteSignIn(r.Context(), orchestrators.SignInInput{
		Email:    input.Email,
		Password: input.Password,
	}, orchestrators.SignInDeps{AccountStore: stores.AccountStore, Sessions: sessions})
	if err != nil {
		apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleAPISignOut handles POST /api/auth/signout
func handleAPISignOut(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	err := orchestrators.ExecuteSignOut(r.Context(), orchestrators.SignOutInput{
		Token: middleware.TokenFromContext(r.Context()),
		Email: sess.Email,
	}, orchestrators.SignOutDeps{Sessions: sessions})
	if err != nil {
		apiError(w, err)
		return
	}
	middleware.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleAPISession handles GET /api/session. Anonymous callers get null.
func handleAPISession(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session":  sess,
		"is_admin": account.IsAdmin(sess.Email, allowList),
	})
}

func signUpDeps() orchestrators.SignUpDeps {
	return orchestrators.SignUpDeps{
		AccountStore: stores.AccountStore,
		Mailer:       emailSender,
		BaseURL:      baseURL,
		Now:          timeNow,
	}
}

func activateDeps() orchestrators.ActivateAccountDeps {
	return orchestrators.ActivateAccountDeps{
		AccountStore: stores.AccountStore,
		Sessions:     sessions,
		Now:          timeNow,
	}
}
