package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/services/mailer"
	"github.com/ternarybob/serendib/internal/services/validation"
)

const passwordMask = "********"

// MailSettings is what the admin mail panel reads and writes
type MailSettings interface {
	GetConfig(ctx context.Context) (*mailer.Config, error)
	SetConfig(ctx context.Context, config *mailer.Config) error
	IsConfigured(ctx context.Context) bool
	SendTestEmail(ctx context.Context, to string) error
}

// mailConfigForm is the admin's SMTP form. Blank fields are allowed so a
// half-configured server can be saved and finished later.
type mailConfigForm struct {
	Host     string `json:"smtp_host" validate:"omitempty,hostname_rfc1123|ip"`
	Port     int    `json:"smtp_port" validate:"omitempty,min=1,max=65535"`
	Username string `json:"smtp_username" validate:"max=200"`
	Password string `json:"smtp_password" validate:"max=200"`
	From     string `json:"smtp_from" validate:"omitempty,email"`
	FromName string `json:"smtp_from_name" validate:"max=100"`
	UseTLS   bool   `json:"smtp_use_tls"`
}

// MailerHandler serves the SMTP panel of the admin area
type MailerHandler struct {
	mail      MailSettings
	validator *validation.Service
	logger    arbor.ILogger
}

// NewMailerHandler creates the SMTP settings handler
func NewMailerHandler(mail MailSettings, logger arbor.ILogger) *MailerHandler {
	v := validation.NewService()
	v.SetMessage("smtp_host", "hostname_rfc1123|ip", "SMTP host must be a host name or IP address")
	return &MailerHandler{mail: mail, validator: v, logger: logger}
}

// ConfigHandler handles GET and PUT /api/admin/mail/config
func (h *MailerHandler) ConfigHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cfg, err := h.mail.GetConfig(r.Context())
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to load mail settings")
			WriteError(w, http.StatusInternalServerError, "Failed to load mail settings")
			return
		}
		if cfg.Password != "" {
			cfg.Password = passwordMask
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"config":     cfg,
			"configured": h.mail.IsConfigured(r.Context()),
		})
	case http.MethodPost, http.MethodPut:
		h.saveConfig(w, r)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *MailerHandler) saveConfig(w http.ResponseWriter, r *http.Request) {
	var form mailConfigForm
	if err := DecodeJSON(r, &form); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	form.Host = strings.TrimSpace(form.Host)
	form.From = strings.TrimSpace(form.From)
	if fieldErrors := h.validator.Struct(form); fieldErrors != nil {
		WriteFieldErrors(w, fieldErrors)
		return
	}

	cfg := mailer.Config(form)
	if cfg.Password == passwordMask {
		cfg.Password = "" // keeps the stored password
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.FromName == "" {
		cfg.FromName = "Serendib"
	}

	if err := h.mail.SetConfig(r.Context(), &cfg); err != nil {
		h.logger.Error().Err(err).Msg("Failed to save mail settings")
		WriteError(w, http.StatusInternalServerError, "Failed to save mail settings")
		return
	}
	WriteSuccess(w, "Mail settings saved")
}

// SendTestHandler handles POST /api/admin/mail/test
func (h *MailerHandler) SendTestHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		To string `json:"to" validate:"required,email"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.To = strings.TrimSpace(req.To)
	if fieldErrors := h.validator.Struct(req); fieldErrors != nil {
		WriteFieldErrors(w, fieldErrors)
		return
	}

	if !h.mail.IsConfigured(r.Context()) {
		WriteError(w, http.StatusConflict, "SMTP is not configured yet")
		return
	}
	if err := h.mail.SendTestEmail(r.Context(), req.To); err != nil {
		h.logger.Warn().Err(err).Str("to", req.To).Msg("Test email failed")
		WriteError(w, http.StatusBadGateway, "Test email failed: "+err.Error())
		return
	}
	WriteSuccess(w, "Test email sent to "+req.To)
}
