package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/models"
)

func TestHTTPClient_Dispatch(t *testing.T) {
	var received models.TripPlanRequest
	var forwarded string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		forwarded = r.Header.Get("X-Forwarded-For")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.DispatchResult{Success: true, EmailID: "<abc@serendib>"})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 0, arbor.NewLogger())
	ctx := WithClientIP(context.Background(), "203.0.113.5")
	result, err := client.Dispatch(ctx, tripPlan())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "<abc@serendib>", result.EmailID)
	assert.Equal(t, "Nimal Perera", received.Name)
	assert.Len(t, received.Places, 2)
	assert.Equal(t, "203.0.113.5", forwarded)
}

func TestHTTPClient_FailureBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(models.DispatchResult{Success: false, Error: "smtp down"})
	}))
	defer server.Close()

	result, err := NewHTTPClient(server.URL, 0, arbor.NewLogger()).Dispatch(context.Background(), tripPlan())
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "smtp down", result.Error)
}

func TestHTTPClient_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewHTTPClient(server.URL, 0, arbor.NewLogger()).Dispatch(context.Background(), tripPlan())
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestHTTPClient_NonJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	defer server.Close()

	_, err := NewHTTPClient(server.URL, 0, arbor.NewLogger()).Dispatch(context.Background(), tripPlan())
	assert.Error(t, err)
}
