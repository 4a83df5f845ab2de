package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImageRouter(svc *Service) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/images/*", NewHandler(svc).ServeImage)
	return r
}

func TestServeImage(t *testing.T) {
	backend := newFakeBackend()
	svc := newTestService(backend)
	router := newImageRouter(svc)

	res, err := svc.UploadOne(context.Background(), []byte("png bytes"), "bike.png")
	require.NoError(t, err)

	// res.URL is the %2F-encoded proxy path the API hands to clients.
	req := httptest.NewRequest(http.MethodGet, res.URL, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "9", rec.Header().Get("Content-Length"))
	assert.Equal(t, "public, max-age=86400", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "png bytes", rec.Body.String())
}

func TestServeImageAcceptsPlainSlashes(t *testing.T) {
	backend := newFakeBackend()
	svc := newTestService(backend)
	router := newImageRouter(svc)

	res, err := svc.UploadOne(context.Background(), []byte("data"), "bike.png")
	require.NoError(t, err)

	// The same key addressed with literal slashes instead of %2F.
	req := httptest.NewRequest(http.MethodGet, "/images/"+res.Key, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "data", rec.Body.String())
}

func TestServeImageMissingKey(t *testing.T) {
	svc := newTestService(newFakeBackend())
	router := newImageRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/images/"+url.PathEscape("tucano-motorcycle/missing.png"), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}
