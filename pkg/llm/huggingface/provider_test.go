package huggingface

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-buildguide-be/pkg/apperr"
	"ai-buildguide-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 60, req.MaxTokens)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"IKEA KALLAX shelf"}}]}`))
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider("secret", srv.URL, "meta-llama", time.Second)
	out, err := p.Generate(context.Background(), "q", llm.WithMaxTokens(60))
	require.NoError(t, err)
	assert.Equal(t, "IKEA KALLAX shelf", out)
}

func TestChatEmptyChoicesIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewHuggingFaceProvider("k", srv.URL, "m", time.Second).Generate(context.Background(), "q")
	assert.True(t, errors.Is(err, apperr.ErrMalformedResponse))
}

func TestChatAPIErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"message":"model loading"}}`))
	}))
	defer srv.Close()

	_, err := NewHuggingFaceProvider("k", srv.URL, "m", time.Second).Generate(context.Background(), "q")
	assert.True(t, errors.Is(err, apperr.ErrProviderUnavailable))
}

func TestChatTruncatedBodyIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "4096")
		_, _ = w.Write([]byte(`{"choices":[`))
	}))
	defer srv.Close()

	_, err := NewHuggingFaceProvider("k", srv.URL, "m", time.Second).Generate(context.Background(), "q")
	assert.True(t, errors.Is(err, apperr.ErrProviderUnavailable))
	assert.False(t, errors.Is(err, apperr.ErrMalformedResponse))
}
