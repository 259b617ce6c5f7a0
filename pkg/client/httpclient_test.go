package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHttpClient_PostIdempotent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/invoices", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "checkout-b1", r.Header.Get(IdempotencyKeyHeader))
		assert.Equal(t, "roomsync", r.Header.Get("User-Agent"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "RES-000001", body["reservation"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"inv-1"}`))
	}))
	defer srv.Close()

	c := NewHttpClient(srv.URL, time.Second, WithHeader("X-Api-Key", "secret"))

	resp, err := c.PostIdempotent(context.Background(), "/api/v1/invoices", map[string]string{"reservation": "RES-000001"}, "checkout-b1")
	require.NoError(t, err)
	assert.True(t, resp.OK())

	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, resp.DecodeJSON(&out))
	assert.Equal(t, "inv-1", out.ID)
}

func TestHttpClient_RetriesIdempotentRequests(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewHttpClient(srv.URL, time.Second, WithRetries(2, time.Millisecond))

	resp, err := c.PostIdempotent(context.Background(), "/x", map[string]int{"n": 1}, "k1")
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, int32(3), calls.Load())
}

func TestHttpClient_PlainPostIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewHttpClient(srv.URL, time.Second, WithRetries(3, time.Millisecond))

	resp, err := c.Post(context.Background(), "/api/v1/reconciliation/sweep", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHttpClient_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer srv.Close()

	c := NewHttpClient(srv.URL, time.Second, WithRetries(1, time.Millisecond), WithUserAgent("roomctl"))

	resp, err := c.Get(context.Background(), "/api/v1/rooms")
	require.NoError(t, err)
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
	assert.Equal(t, int32(2), calls.Load())
}

func TestResponse_ErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message wins", `{"message":"m","error":"e","code":"C"}`, "m"},
		{"error field", `{"error":"e","code":"C"}`, "e"},
		{"code only", `{"code":"C"}`, "C"},
		{"empty envelope", `{}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, (&Response{Body: []byte(tt.body)}).ErrorMessage())
		})
	}
}
