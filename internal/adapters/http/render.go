package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"seacomms/internal/adapters/http/middleware"
	"seacomms/internal/application/orchestrators"
	"seacomms/internal/domain/account"
	"seacomms/internal/domain/apperr"
)

//go:embed templates/*.html
var templateFS embed.FS

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// transientNotice is shown when a store call fails. Nothing was applied.
const transientNotice = "Something went wrong. Nothing was saved, please try again."

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func isHTMLRequest(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "application/xhtml+xml")
}

// rawNumber accepts a JSON number or a JSON string and returns its text,
// so "12", 12 and "ten" all reach the same parse rule.
func rawNumber(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}

// errorStatus maps a classified error to the status the JSON API returns.
// Sign-up field problems are auth-kind but are the caller's input, so 400.
func errorStatus(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindAuth:
		switch {
		case errors.Is(err, orchestrators.ErrEmailTaken):
			return http.StatusConflict
		case errors.Is(err, orchestrators.ErrPendingActivation):
			return http.StatusForbidden
		case errors.Is(err, account.ErrEmptyEmail), errors.Is(err, account.ErrInvalidEmail),
			errors.Is(err, account.ErrEmailTooLong), errors.Is(err, account.ErrEmptyPassword),
			errors.Is(err, account.ErrPasswordTooShort):
			return http.StatusBadRequest
		}
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// apiError writes err for a JSON caller. Unclassified and store errors are logged
// and reported generically.
func apiError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		internalError(w, err)
		return
	}
	http.Error(w, err.Error(), status)
}

// noticeFor returns the message shown in a page notice for err.
func noticeFor(err error) string {
	if errorStatus(err) == http.StatusInternalServerError {
		slog.Error("internal_error", "error", err.Error())
		return transientNotice
	}
	return err.Error()
}

func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	renderTemplateStatus(w, r, http.StatusOK, templateName, data)
}

func renderTemplateStatus(w http.ResponseWriter, r *http.Request, status int, templateName string, data any) {
	sess, loggedIn := middleware.GetSessionFromContext(r.Context())
	isAdmin := loggedIn && account.IsAdmin(sess.Email, allowList)

	funcMap := template.FuncMap{
		"currentEmail": func() string { return sess.Email },
		"isLoggedIn":   func() bool { return loggedIn },
		"isAdmin":      func() bool { return isAdmin },
		"csrfField":    func() template.HTML { return csrf.TemplateField(r) },
		"renderMarkdown": func(md string) template.HTML {
			var buf bytes.Buffer
			if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(md))
			}
			return template.HTML(buf.String())
		},
		"width": func(pct float64) template.CSS {
			return template.CSS(fmt.Sprintf("width: %.1f%%", pct))
		},
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+templateName)
	if err != nil {
		internalError(w, fmt.Errorf("parse template %s: %w", templateName, err))
		return
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, fmt.Errorf("render template %s: %w", templateName, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
