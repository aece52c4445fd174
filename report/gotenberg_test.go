package report

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHTMLPostsMultipartDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forms/chromium/convert/html", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("files")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "index.html", header.Filename)
		assert.Equal(t, "true", r.FormValue("printBackground"))
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	t.Cleanup(srv.Close)

	pdf, err := NewClient(srv.URL+"/").RenderHTML(context.Background(), "<html><body>Hola</body></html>")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(pdf))
}

func TestRenderHTMLReportsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "chromium crashed", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(srv.URL).RenderHTML(context.Background(), "<html></html>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chromium crashed")
}

func TestUnconfiguredClient(t *testing.T) {
	c := NewClient("")
	_, err := c.RenderHTML(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, c.Ping(context.Background()), ErrNotConfigured)
}
