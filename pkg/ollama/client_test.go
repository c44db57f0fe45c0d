package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2:latest", req.Model)
		assert.False(t, req.Stream)
		assert.Equal(t, 0.7, req.Options.Temperature)
		assert.Equal(t, 3000, req.Options.NumPredict)

		_ = json.NewEncoder(w).Encode(generateResponse{Response: "generated text"})
	}))
	defer srv.Close()

	c := New(srv.URL, "llama3.2:latest")
	out, err := c.Generate(context.Background(), "prompt", 0.7, 3000)
	require.NoError(t, err)
	assert.Equal(t, "generated text", out)
}

func TestGenerateNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, "missing")
	_, err := c.Generate(context.Background(), "prompt", 0.7, 100)
	assert.Error(t, err)
}

func TestHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, "llama3.2:latest")
	assert.True(t, c.Healthy(context.Background()))

	srv.Close()
	assert.False(t, c.Healthy(context.Background()))
}
