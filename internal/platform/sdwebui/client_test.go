package sdwebui

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memology/memology-api/internal/config"
	"github.com/memology/memology-api/internal/generation"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func testConfig(baseURL string) config.ImageGenConfig {
	return config.ImageGenConfig{
		BaseURL:  baseURL,
		Steps:    20,
		Width:    512,
		Height:   512,
		Sampler:  "DPM++ 2M Karras",
		CFGScale: 7.0,
		Timeout:  2 * time.Second,
	}
}

func TestGenerateImage(t *testing.T) {
	imageBytes := []byte("fake-image-bytes")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/sdapi/v1/txt2img", r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "a funny cat", payload["prompt"])
		assert.NotEmpty(t, payload["negative_prompt"])
		assert.Equal(t, float64(1), payload["batch_size"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"images": []string{base64.StdEncoding.EncodeToString(imageBytes)},
		})
	}))
	defer srv.Close()

	client, err := NewClient(testLogger(), testConfig(srv.URL))
	require.NoError(t, err)

	got, err := client.GenerateImage(context.Background(), "a funny cat")
	require.NoError(t, err)
	assert.Equal(t, imageBytes, got)
}

func TestGenerateImageBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewClient(testLogger(), testConfig(srv.URL))
	require.NoError(t, err)

	_, err = client.GenerateImage(context.Background(), "a funny cat")
	assert.ErrorIs(t, err, generation.ErrServiceUnavailable)
}

func TestGenerateImageTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	cfg := testConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond

	client, err := NewClient(testLogger(), cfg)
	require.NoError(t, err)

	start := time.Now()
	_, err = client.GenerateImage(context.Background(), "a funny cat")
	assert.ErrorIs(t, err, generation.ErrTimeout)
	assert.Less(t, time.Since(start), time.Second, "timeout must be enforced, not waited out")
}

func TestGenerateImageMalformedResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>nope</html>"},
		{"empty image list", `{"images": []}`},
		{"invalid base64", `{"images": ["%%%not-base64%%%"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client, err := NewClient(testLogger(), testConfig(srv.URL))
			require.NoError(t, err)

			_, err = client.GenerateImage(context.Background(), "a funny cat")
			assert.ErrorIs(t, err, generation.ErrInvalidResponse)
		})
	}
}

func TestGenerateImageEmptyPrompt(t *testing.T) {
	client, err := NewClient(testLogger(), testConfig("http://127.0.0.1:1"))
	require.NoError(t, err)

	_, err = client.GenerateImage(context.Background(), "")
	assert.ErrorIs(t, err, generation.ErrInvalidResponse)
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sdapi/v1/options", r.URL.Path)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client, err := NewClient(testLogger(), testConfig(srv.URL))
	require.NoError(t, err)
	assert.NoError(t, client.Ping(context.Background()))

	srv.Close()
	assert.ErrorIs(t, client.Ping(context.Background()), generation.ErrServiceUnavailable)
}
