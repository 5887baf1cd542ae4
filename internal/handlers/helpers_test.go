package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/serendib/internal/services/validation"
)

func TestClientIPResolver(t *testing.T) {
	proxies := []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.0.2.10/32"),
	}

	tests := []struct {
		name       string
		trusted    []netip.Prefix
		remoteAddr string
		forwarded  []string
		realIP     string
		want       string
	}{
		{"peer address without proxies", nil, "192.0.2.10:51234", nil, "", "192.0.2.10"},
		{"headers ignored without proxies", nil, "192.0.2.10:51234", []string{"203.0.113.9"}, "198.51.100.4", "192.0.2.10"},
		{"headers ignored from untrusted peer", proxies, "198.51.100.20:443", []string{"203.0.113.9"}, "198.51.100.4", "198.51.100.20"},
		{"forwarded client from trusted proxy", proxies, "192.0.2.10:51234", []string{"203.0.113.9"}, "", "203.0.113.9"},
		{"spoofed leftmost hop is skipped", proxies, "192.0.2.10:51234", []string{"1.2.3.4, 203.0.113.9"}, "", "203.0.113.9"},
		{"trusted hops are walked past", proxies, "10.0.0.5:80", []string{"203.0.113.9, 10.1.1.1", "10.2.2.2"}, "", "203.0.113.9"},
		{"garbage hop stops the walk", proxies, "10.0.0.5:80", []string{"203.0.113.9, not-an-ip"}, "", "10.0.0.5"},
		{"real ip from trusted proxy", proxies, "192.0.2.10:51234", nil, "198.51.100.4", "198.51.100.4"},
		{"address without port", nil, "192.0.2.77", nil, "", "192.0.2.77"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for _, value := range tt.forwarded {
				req.Header.Add("X-Forwarded-For", value)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.want, NewClientIPResolver(tt.trusted).ClientIP(req))
		})
	}
}

func TestPathID(t *testing.T) {
	assert.Equal(t, "tour_1", PathID("/api/admin/tours/tour_1", "/api/admin/tours/"))
	assert.Equal(t, "tour_1", PathID("/api/admin/tours/tour_1/", "/api/admin/tours/"))
	assert.Empty(t, PathID("/api/admin/tours/", "/api/admin/tours/"))
	assert.Empty(t, PathID("/api/admin/tours/a/b", "/api/admin/tours/"))
}

func TestPaginate(t *testing.T) {
	data := []int{1, 2, 3, 4, 5}

	page, pagination := Paginate(data, 1, 2)
	assert.Equal(t, []int{3, 4}, page)
	assert.Equal(t, 3, pagination.TotalPages)

	page, _ = Paginate(data, 5, 2)
	assert.Empty(t, page)

	req := httptest.NewRequest(http.MethodGet, "/?page=2&pageSize=500", nil)
	p, size := GetPaginationParams(req)
	assert.Equal(t, 2, p)
	assert.Equal(t, 20, size)
}

func TestDecodeJSON_BodyLimit(t *testing.T) {
	var v map[string]string
	big := `{"notes":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	err := DecodeJSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big)), &v)
	assert.ErrorContains(t, err, "too large")

	require.NoError(t, DecodeJSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":"b"}`)), &v))
	assert.Equal(t, "b", v["a"])
}

func TestWriteFieldErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteFieldErrors(rec, validation.FieldErrors{"email": "Please enter a valid email address"})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please enter a valid email address")
}
