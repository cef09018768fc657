package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupabaseBackendUpload(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/storage/v1/object/proposals/u1/a.pdf", r.URL.Path)
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))
		assert.Equal(t, "true", r.Header.Get("x-upsert"))

		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	backend := NewSupabaseBackend(srv.URL+"/", "service-key", "proposals")
	require.NoError(t, backend.Upload(context.Background(), "u1/a.pdf", samplePDF, PDFContentType))
	assert.Equal(t, samplePDF, gotBody)
}

func TestSupabaseBackendUploadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Invalid key"}`))
	}))
	defer srv.Close()

	backend := NewSupabaseBackend(srv.URL, "service-key", "proposals")
	err := backend.Upload(context.Background(), "u1/a.pdf", samplePDF, PDFContentType)
	assert.ErrorContains(t, err, "upload failed with status 400")
	assert.ErrorContains(t, err, "Invalid key")
}

func TestSupabaseBackendRemove(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/storage/v1/object/proposals", r.URL.Path)

		var body struct {
			Prefixes []string `json:"prefixes"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"u1/a.pdf"}, body.Prefixes)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	backend := NewSupabaseBackend(srv.URL, "service-key", "proposals")
	require.NoError(t, backend.Remove(context.Background(), "u1/a.pdf"))
}

func TestSupabaseBackendRemoveFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	backend := NewSupabaseBackend(srv.URL, "service-key", "proposals")
	assert.ErrorContains(t, backend.Remove(context.Background(), "u1/a.pdf"), "delete failed with status 500")
}

func TestSupabaseBackendPublicURL(t *testing.T) {
	backend := NewSupabaseBackend("https://abc.supabase.co", "k", "proposals")
	gw := NewGateway(backend, "proposals", quietLogger())

	url := backend.PublicURL("u1/a.pdf")
	assert.Equal(t, "https://abc.supabase.co/storage/v1/object/public/proposals/u1/a.pdf", url)

	key, ok := gw.KeyFromURL(url)
	require.True(t, ok)
	assert.Equal(t, "u1/a.pdf", key)
}
