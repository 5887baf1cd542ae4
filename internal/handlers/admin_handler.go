package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/interfaces"
	"github.com/ternarybob/serendib/internal/models"
	"github.com/ternarybob/serendib/internal/services/auth"
	"github.com/ternarybob/serendib/internal/services/content"
	"github.com/ternarybob/serendib/internal/services/validation"
)

type adminSessionKey struct{}

// AdminSessionFromContext returns the session attached by RequireAdmin
func AdminSessionFromContext(ctx context.Context) (*models.AdminSession, bool) {
	session, ok := ctx.Value(adminSessionKey{}).(*models.AdminSession)
	return session, ok
}

// AdminHandler serves the admin area: login, dashboard and the JSON admin API
type AdminHandler struct {
	auth          *auth.Service
	content       *content.Service
	inquiries     interfaces.InquiryStorage
	scheduler     interfaces.SchedulerService
	pages         *PageRenderer
	secureCookies bool
	logger        arbor.ILogger
}

// NewAdminHandler creates the admin handler
func NewAdminHandler(
	authService *auth.Service,
	contentService *content.Service,
	inquiries interfaces.InquiryStorage,
	scheduler interfaces.SchedulerService,
	pages *PageRenderer,
	secureCookies bool,
	logger arbor.ILogger,
) *AdminHandler {
	return &AdminHandler{
		auth:          authService,
		content:       contentService,
		inquiries:     inquiries,
		scheduler:     scheduler,
		pages:         pages,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// RequireAdmin rejects requests without a valid admin session. API paths
// get a JSON 401, pages are redirected to the login form.
func (h *AdminHandler) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var token string
		if cookie, err := r.Cookie(auth.CookieName); err == nil {
			token = cookie.Value
		}

		session, err := h.auth.Authenticate(r.Context(), token)
		if err != nil {
			if !errors.Is(err, auth.ErrSessionExpired) {
				h.logger.Error().Err(err).Msg("Admin session lookup failed")
			}
			if strings.HasPrefix(r.URL.Path, "/api/") {
				WriteError(w, http.StatusUnauthorized, "Login required")
				return
			}
			http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), adminSessionKey{}, session)))
	}
}

// LoginHandler handles GET and POST /admin/login
func (h *AdminHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.pages.Render(w, r, http.StatusOK, "admin-login.html", "Admin login", "/admin/login", map[string]interface{}{
			"Configured": h.auth.Configured(),
		})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid form")
			return
		}

		session, err := h.auth.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
		if err != nil {
			status := http.StatusUnauthorized
			if !errors.Is(err, auth.ErrInvalidCredentials) && !errors.Is(err, auth.ErrNotConfigured) {
				status = http.StatusInternalServerError
			}
			h.pages.Render(w, r, status, "admin-login.html", "Admin login", "/admin/login", map[string]interface{}{
				"Configured": h.auth.Configured(),
				"Error":      err.Error(),
				"Username":   r.PostFormValue("username"),
			})
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     auth.CookieName,
			Value:    session.Token,
			Path:     "/",
			Expires:  session.ExpiresAt,
			HttpOnly: true,
			Secure:   h.secureCookies,
			SameSite: http.SameSiteStrictMode,
		})
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// LogoutHandler handles POST /admin/logout
func (h *AdminHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if cookie, err := r.Cookie(auth.CookieName); err == nil {
		if err := h.auth.Logout(r.Context(), cookie.Value); err != nil {
			h.logger.Warn().Err(err).Msg("Failed to delete admin session")
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
	})
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

// DashboardHandler handles GET /admin
func (h *AdminHandler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	stats, err := h.content.Stats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load dashboard stats")
		h.pages.Error(w, r, http.StatusInternalServerError)
		return
	}

	recent, err := h.inquiries.ListInquiries(r.Context(), 10)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load recent inquiries")
		recent = nil
	}

	session, _ := AdminSessionFromContext(r.Context())
	h.pages.Render(w, r, http.StatusOK, "admin.html", "Dashboard", "/admin", map[string]interface{}{
		"Session":   session,
		"Stats":     stats,
		"Kinds":     models.ContentKinds,
		"Inquiries": recent,
		"Jobs":      h.scheduler.Jobs(),
	})
}

// StatsHandler handles GET /api/admin/stats
func (h *AdminHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	stats, err := h.content.Stats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load stats")
		WriteError(w, http.StatusInternalServerError, "Failed to load stats")
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// ContentRoutes handles /api/admin/{kind} and /api/admin/{kind}/{id}
func (h *AdminHandler) ContentRoutes(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/admin/"), "/"), "/")
	if len(parts) == 0 || len(parts) > 2 {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}

	kind, ok := models.ParseContentKind(parts[0])
	if !ok {
		WriteError(w, http.StatusNotFound, "Unknown content kind: "+parts[0])
		return
	}
	store, _ := h.content.Store(kind)

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.listContent(w, r, store)
		case http.MethodPost:
			h.createContent(w, r, store)
		default:
			WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	id := parts[1]
	switch r.Method {
	case http.MethodGet:
		doc, err := store.GetAny(r.Context(), id)
		if err != nil {
			h.writeContentError(w, err, store.Kind())
			return
		}
		WriteJSON(w, http.StatusOK, doc)
	case http.MethodPut:
		body, err := ReadBody(r)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		doc, err := store.UpdateJSON(r.Context(), id, body)
		if err != nil {
			h.writeContentError(w, err, store.Kind())
			return
		}
		WriteJSON(w, http.StatusOK, doc)
	case http.MethodDelete:
		if err := store.Delete(r.Context(), id); err != nil {
			h.writeContentError(w, err, store.Kind())
			return
		}
		WriteSuccess(w, "Deleted "+id)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *AdminHandler) listContent(w http.ResponseWriter, r *http.Request, store content.Store) {
	docs, err := store.ListAny(r.Context(), false)
	if err != nil {
		h.writeContentError(w, err, store.Kind())
		return
	}
	count, _ := store.Count(r.Context())
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"kind":  store.Kind(),
		"items": docs,
		"count": count,
	})
}

func (h *AdminHandler) createContent(w http.ResponseWriter, r *http.Request, store content.Store) {
	body, err := ReadBody(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	doc, err := store.CreateJSON(r.Context(), body)
	if err != nil {
		h.writeContentError(w, err, store.Kind())
		return
	}
	WriteJSON(w, http.StatusCreated, doc)
}

func (h *AdminHandler) writeContentError(w http.ResponseWriter, err error, kind models.ContentKind) {
	var fieldErrors validation.FieldErrors
	switch {
	case errors.As(err, &fieldErrors):
		WriteFieldErrors(w, fieldErrors)
	case errors.Is(err, content.ErrInvalidDocument):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, interfaces.ErrNotFound):
		WriteError(w, http.StatusNotFound, "Not found")
	default:
		h.logger.Error().Err(err).Str("kind", string(kind)).Msg("Content operation failed")
		WriteError(w, http.StatusInternalServerError, "Content operation failed")
	}
}

// InquiriesHandler handles GET /api/admin/inquiries and /api/admin/inquiries/{id}
func (h *AdminHandler) InquiriesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	if id := PathID(r.URL.Path, "/api/admin/inquiries/"); id != "" {
		inquiry, err := h.inquiries.GetInquiry(r.Context(), id)
		if errors.Is(err, interfaces.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Inquiry not found")
			return
		}
		if err != nil {
			h.logger.Error().Err(err).Str("inquiry_id", id).Msg("Failed to load inquiry")
			WriteError(w, http.StatusInternalServerError, "Failed to load inquiry")
			return
		}
		WriteJSON(w, http.StatusOK, inquiry)
		return
	}

	all, err := h.inquiries.ListInquiries(r.Context(), 0)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list inquiries")
		WriteError(w, http.StatusInternalServerError, "Failed to list inquiries")
		return
	}

	page, pageSize := GetPaginationParams(r)
	items, pagination := Paginate(all, page, pageSize)
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items":      items,
		"pagination": pagination,
	})
}

// JobsHandler handles GET /api/admin/jobs and POST /api/admin/jobs/{name}/run
func (h *AdminHandler) JobsHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/admin/jobs"), "/")

	if rest == "" {
		if !RequireMethod(w, r, http.MethodGet) {
			return
		}
		WriteJSON(w, http.StatusOK, h.scheduler.Jobs())
		return
	}

	name, ok := strings.CutSuffix(rest, "/run")
	if !ok || name == "" || strings.Contains(name, "/") {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	switch err := h.scheduler.RunJob(name); {
	case errors.Is(err, interfaces.ErrJobNotFound):
		WriteError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, interfaces.ErrJobRunning):
		WriteError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteSuccess(w, "Job "+name+" completed")
}
