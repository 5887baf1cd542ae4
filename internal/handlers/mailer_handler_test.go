package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/services/mailer"
)

type MockMailSettings struct {
	mock.Mock
}

func (m *MockMailSettings) GetConfig(ctx context.Context) (*mailer.Config, error) {
	args := m.Called(ctx)
	cfg, _ := args.Get(0).(*mailer.Config)
	return cfg, args.Error(1)
}

func (m *MockMailSettings) SetConfig(ctx context.Context, config *mailer.Config) error {
	return m.Called(ctx, config).Error(0)
}

func (m *MockMailSettings) IsConfigured(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

func (m *MockMailSettings) SendTestEmail(ctx context.Context, to string) error {
	return m.Called(ctx, to).Error(0)
}

func mailRequest(t *testing.T, h http.HandlerFunc, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	var out map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestMailerHandler_GetMasksPassword(t *testing.T) {
	mail := new(MockMailSettings)
	mail.On("GetConfig", mock.Anything).Return(&mailer.Config{Host: "smtp.example.com", Port: 587, Password: "hunter2"}, nil)
	mail.On("IsConfigured", mock.Anything).Return(true)
	h := NewMailerHandler(mail, arbor.NewLogger())

	rec, body := mailRequest(t, h.ConfigHandler, http.MethodGet, "/api/admin/mail/config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	cfg := body["config"].(map[string]interface{})
	assert.Equal(t, "smtp.example.com", cfg["smtp_host"])
	assert.Equal(t, passwordMask, cfg["smtp_password"])
	assert.Equal(t, true, body["configured"])
}

func TestMailerHandler_SaveKeepsMaskedPassword(t *testing.T) {
	mail := new(MockMailSettings)
	mail.On("SetConfig", mock.Anything, mock.MatchedBy(func(c *mailer.Config) bool {
		return c.Host == "smtp.example.com" && c.Password == "" && c.Port == 587 && c.FromName == "Serendib"
	})).Return(nil)
	h := NewMailerHandler(mail, arbor.NewLogger())

	rec, _ := mailRequest(t, h.ConfigHandler, http.MethodPut, "/api/admin/mail/config",
		`{"smtp_host":" smtp.example.com ","smtp_password":"********","smtp_from":"trips@example.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	mail.AssertExpectations(t)
}

func TestMailerHandler_SaveRejectsInvalidFields(t *testing.T) {
	mail := new(MockMailSettings)
	h := NewMailerHandler(mail, arbor.NewLogger())

	rec, body := mailRequest(t, h.ConfigHandler, http.MethodPut, "/api/admin/mail/config",
		`{"smtp_host":"not a host","smtp_port":70000,"smtp_from":"nobody"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	fields := body["fieldErrors"].(map[string]interface{})
	assert.Contains(t, fields, "smtp_host")
	assert.Contains(t, fields, "smtp_port")
	assert.Contains(t, fields, "smtp_from")
	mail.AssertNotCalled(t, "SetConfig", mock.Anything, mock.Anything)
}

func TestMailerHandler_SendTest(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		configured bool
		sendErr    error
		wantStatus int
	}{
		{"bad address", `{"to":"nope"}`, true, nil, http.StatusUnprocessableEntity},
		{"not configured", `{"to":"a@example.com"}`, false, nil, http.StatusConflict},
		{"smtp failure", `{"to":"a@example.com"}`, true, errors.New("dial tcp: refused"), http.StatusBadGateway},
		{"sent", `{"to":"a@example.com"}`, true, nil, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mail := new(MockMailSettings)
			mail.On("IsConfigured", mock.Anything).Return(tt.configured)
			mail.On("SendTestEmail", mock.Anything, "a@example.com").Return(tt.sendErr)
			h := NewMailerHandler(mail, arbor.NewLogger())

			rec, _ := mailRequest(t, h.SendTestHandler, http.MethodPost, "/api/admin/mail/test", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
