package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Flaque/filet"
	"github.com/UnknownOlympus/demeter/internal/config"
	"github.com/UnknownOlympus/demeter/internal/geocoding"
	"github.com/UnknownOlympus/demeter/internal/metrics"
	"github.com/UnknownOlympus/demeter/internal/models"
	"github.com/UnknownOlympus/demeter/internal/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider replaces the real providers behind the upload endpoints.
type stubProvider struct {
	meters  float64
	lookups int
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Lookup(_ context.Context, _ models.Coordinate) (geocoding.Result, error) {
	p.lookups++
	return geocoding.Elevation{Meters: p.meters}, nil
}

func (p *stubProvider) Apply(row table.Row, result geocoding.Result) {
	elevation, ok := result.(geocoding.Elevation)
	if !ok {
		return
	}
	row.Set("elevation", strconv.FormatFloat(elevation.Meters, 'f', -1, 64))
}

func (p *stubProvider) ApplyMiss(_ table.Row, _ error) {}

func newTestServer(t *testing.T, provider geocoding.Provider) *Server {
	t.Helper()

	cfg := &config.Config{
		Env:           "local",
		Port:          8000,
		AllowedOrigin: "http://localhost:3000",
		UploadsDir:    filet.TmpDir(t, ""),
		MaxRows:       100,
		LookupTimeout: time.Second,
		RateLimit:     50,
	}

	srv := New(slog.Default(), cfg, metrics.NewMetrics(prometheus.NewRegistry()), prometheus.NewRegistry())
	srv.newProvider = func(_ geocoding.ProviderConfig) (geocoding.Provider, error) {
		return provider, nil
	}

	return srv
}

// uploadRequest builds a multipart request with an api_key field and a small
// coordinates spreadsheet.
func uploadRequest(t *testing.T, target, apiKey string) *http.Request {
	t.Helper()

	tbl := table.New([]string{"latitude", "longitude"}, [][]string{
		{"40.0", "-3.0"},
		{"40.0", "-3.0"},
	})
	path := filepath.Join(filet.TmpDir(t, ""), "coords.xlsx")
	require.NoError(t, tbl.Save(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if apiKey != "" {
		require.NoError(t, writer.WriteField("api_key", apiKey))
	}
	part, err := writer.CreateFormFile("file", "coords.xlsx")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body
}

func TestServer_Root(t *testing.T) {
	defer filet.CleanUp(t)

	handler := newTestServer(t, &stubProvider{}).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello World", decodeBody(t, rec)["message"])
}

func TestServer_Hello(t *testing.T) {
	defer filet.CleanUp(t)

	handler := newTestServer(t, &stubProvider{}).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hello/Ada", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hola Ada", decodeBody(t, rec)["saludo"])
}

func TestServer_Healthz(t *testing.T) {
	defer filet.CleanUp(t)

	handler := newTestServer(t, &stubProvider{}).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestServer_CORS(t *testing.T) {
	defer filet.CleanUp(t)

	handler := newTestServer(t, &stubProvider{}).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/posts", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_Enrich(t *testing.T) {
	t.Run("uploads, processes and names the result file", func(t *testing.T) {
		defer filet.CleanUp(t)

		provider := &stubProvider{meters: 120.5}
		srv := newTestServer(t, provider)
		handler := srv.Handler()

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, uploadRequest(t, "/elevationapi/", "test-api-key"))

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "File uploaded and processed successfully", body["message"])

		fileName, ok := body["file_path"].(string)
		require.True(t, ok)
		assert.True(t, strings.HasSuffix(fileName, "_processed_elevation.xlsx"), "got %q", fileName)

		assert.Equal(t, 1, provider.lookups, "duplicate rows are looked up once")

		processed, err := table.Load(filepath.Join(srv.cfg.UploadsDir, fileName))
		require.NoError(t, err)
		value, ok := processed.Row(1).Get("elevation")
		require.True(t, ok)
		assert.Equal(t, "120.5", value)
	})

	t.Run("provider-specific suffixes", func(t *testing.T) {
		defer filet.CleanUp(t)

		handler := newTestServer(t, &stubProvider{}).Handler()

		for target, suffix := range map[string]string{
			"/opencage/":        "_processed_OpenCage.xlsx",
			"/googlegeocoding/": "_processed_GoogleGeocoding.xlsx",
		} {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, uploadRequest(t, target, "test-api-key"))

			require.Equal(t, http.StatusOK, rec.Code)
			fileName, _ := decodeBody(t, rec)["file_path"].(string)
			assert.True(t, strings.HasSuffix(fileName, suffix), "%s produced %q", target, fileName)
		}
	})

	t.Run("missing api_key", func(t *testing.T) {
		defer filet.CleanUp(t)

		handler := newTestServer(t, &stubProvider{}).Handler()

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, uploadRequest(t, "/elevationapi/", ""))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "api_key is required", decodeBody(t, rec)["detail"])
	})

	t.Run("missing file", func(t *testing.T) {
		defer filet.CleanUp(t)

		handler := newTestServer(t, &stubProvider{}).Handler()

		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		require.NoError(t, writer.WriteField("api_key", "test-api-key"))
		require.NoError(t, writer.Close())

		req := httptest.NewRequest(http.MethodPost, "/elevationapi/", &body)
		req.Header.Set("Content-Type", writer.FormDataContentType())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "file is required", decodeBody(t, rec)["detail"])
	})
}

func TestServer_Download(t *testing.T) {
	t.Run("serves an existing file as an attachment", func(t *testing.T) {
		defer filet.CleanUp(t)

		srv := newTestServer(t, &stubProvider{})
		require.NoError(t, os.WriteFile(filepath.Join(srv.cfg.UploadsDir, "result.xlsx"), []byte("content"), 0o600))

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/result.xlsx", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `attachment; filename="result.xlsx"`, rec.Header().Get("Content-Disposition"))
		assert.Equal(t, "content", rec.Body.String())
	})

	t.Run("unknown file", func(t *testing.T) {
		defer filet.CleanUp(t)

		handler := newTestServer(t, &stubProvider{}).Handler()

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/missing.xlsx", nil))

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "File not found", decodeBody(t, rec)["detail"])
	})
}

func TestServer_Posts(t *testing.T) {
	defer filet.CleanUp(t)

	handler := newTestServer(t, &stubProvider{}).Handler()

	t.Run("list starts with the seeded post", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		data, ok := decodeBody(t, rec)["data"].([]any)
		require.True(t, ok)
		require.Len(t, data, 1)
	})

	var createdID string

	t.Run("create assigns an id", func(t *testing.T) {
		payload := `{"title":"New post","author":"ada","content":"Body"}`
		req := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		createdID, _ = body["id"].(string)
		assert.NotEmpty(t, createdID)
		assert.Equal(t, "New post", body["title"])
	})

	t.Run("get returns the created post", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts/"+createdID, nil))

		require.Equal(t, http.StatusOK, rec.Code)
		data, ok := decodeBody(t, rec)["data"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "New post", data["title"])
	})

	t.Run("update changes the editable fields", func(t *testing.T) {
		payload := `{"title":"Updated","author":"ada","content":"Edited"}`
		req := httptest.NewRequest(http.MethodPut, "/posts/"+createdID, strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Post updated", body["data"])
		post, ok := body["post"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Updated", post["title"])
	})

	t.Run("delete removes the post", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/posts/"+createdID, nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Post deleted", decodeBody(t, rec)["data"])

		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts/"+createdID, nil))

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Post not found", decodeBody(t, rec)["detail"])
	})

	t.Run("invalid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader("not json"))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid post body", decodeBody(t, rec)["detail"])
	})
}
