package analyzer

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

	"smelt/internal/errors"
	"smelt/internal/filters"
	"smelt/internal/logging"
	"smelt/internal/smells"
)

func TestDetectSuccess(t *testing.T) {
	var gotRequest detectRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/smells/detect", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NotEmpty(t, r.Header.Get("X-Request-ID"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

		json.NewEncoder(w).Encode(detectResponse{ //nolint:errcheck // test handler
			Smells: []smells.Smell{
				{Type: "performance", Symbol: "long-lambda-expression", Message: "lambda too long",
					Occurrences: []smells.Occurrence{{Line: 4, Column: 8, EndLine: 4, EndColumn: 120}}},
			},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 5*time.Second, logging.Discard())
	enabled := map[string]filters.Selection{
		"long-lambda-expression": {Enabled: true, Options: filters.Options{"threshold": 100}},
	}

	got, err := client.Detect(context.Background(), "/ws/app.py", enabled)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "long-lambda-expression", got[0].Symbol)

	assert.Equal(t, "/ws/app.py", gotRequest.FilePath)
	assert.Contains(t, gotRequest.EnabledSmells, "long-lambda-expression")
}

func TestDetectEmptyResponseIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"smells": null}`)) //nolint:errcheck // test handler
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 5*time.Second, logging.Discard())
	got, err := client.Detect(context.Background(), "/ws/clean.py", nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDetectClientErrorIsExplicit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unsupported file type", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 5*time.Second, logging.Discard())
	_, err := client.Detect(context.Background(), "/ws/app.py", nil)

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.AnalysisFailed))
	assert.EqualValues(t, 1, calls.Load(), "4xx responses must not be retried")
}

func TestDetectRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"smells": []}`)) //nolint:errcheck // test handler
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 5*time.Second, logging.Discard())
	got, err := client.Detect(context.Background(), "/ws/app.py", nil)

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.EqualValues(t, 2, calls.Load())
}

func TestIsReachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))

	client := NewHTTPClient(server.URL, 2*time.Second, logging.Discard())
	assert.True(t, client.IsReachable(context.Background()))

	server.Close()
	assert.False(t, client.IsReachable(context.Background()))
}

func TestIsReachableUnhealthyBackend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "degraded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 2*time.Second, logging.Discard())
	assert.False(t, client.IsReachable(context.Background()))
}
