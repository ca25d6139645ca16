package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ontriq-site/internal/concierge"
)

func TestNewClientWithoutKeyIsNil(t *testing.T) {
	assert.Nil(t, NewClient("", "", ""))
}

func TestComplete_SendsSystemThenTurns(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Hello from Ontriq"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test", "")
	reply, err := c.Complete(context.Background(), "POLICY", []concierge.Message{
		{Role: concierge.RoleUser, Content: "hi"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello from Ontriq", reply)
	assert.Equal(t, DefaultModel, got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, chatMessage{Role: "system", Content: "POLICY"}, got.Messages[0])
	assert.Equal(t, chatMessage{Role: "user", Content: "hi"}, got.Messages[1])
}

func TestComplete_SurfacesAPIErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "sk-bad", "gpt-4o-mini").Complete(context.Background(), "P", nil)
	assert.ErrorContains(t, err, "401")
	assert.ErrorContains(t, err, "Incorrect API key provided")
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "sk-test", "").Complete(context.Background(), "P", nil)
	assert.ErrorContains(t, err, "empty response")
}

func TestComplete_DroppedConnectionIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			conn, _, err := w.(http.Hijacker).Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"second"}}]}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "sk-test", "").Complete(context.Background(), "P", []concierge.Message{
		{Role: concierge.RoleUser, Content: "hi"},
	})
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
