package client

import (
	"encoding/base64"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPaddleClientExtractText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req paddleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Images) != 1 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if _, err := base64.StdEncoding.DecodeString(req.Images[0]); err != nil {
			http.Error(w, "bad image", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"status":"000","msg":"","results":[[
			{"text":"Gross salary 8'000.00","confidence":0.9},
			{"text":"Net salary 7'118.00","confidence":0.8}
		]]}`))
	}))
	defer srv.Close()

	p := NewPaddleClient(srv.URL, zap.NewNop())
	text, confidence, err := p.ExtractTextFromImage(image.NewRGBA(image.Rect(0, 0, 4, 4)))
	require.NoError(t, err)
	assert.Equal(t, "Gross salary 8'000.00\nNet salary 7'118.00\n", text)
	assert.InDelta(t, 85.0, confidence, 0.001)
}

func TestPaddleClientErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"status", http.StatusInternalServerError, "model not loaded", "status 500"},
		{"empty", http.StatusOK, `{"results":[[]]}`, "no text"},
		{"malformed", http.StatusOK, `{"results":`, "decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, _, err := NewPaddleClient(srv.URL, zap.NewNop()).ExtractTextFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewPaddleClientDefaultURL(t *testing.T) {
	assert.Equal(t, DefaultPaddleURL, NewPaddleClient("", zap.NewNop()).endpoint)
}
