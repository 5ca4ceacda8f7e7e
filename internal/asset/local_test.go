package asset

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-retail-service/internal/model"
	"github.com/fekuna/omnipos-retail-service/internal/pkg/logger"
)

func newStore(t *testing.T, maxBytes int64) (*LocalStore, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "uploads")
	s, err := NewLocalStore(dir, maxBytes, logger.NewNop())
	require.NoError(t, err)
	return s, dir
}

func TestSave(t *testing.T) {
	s, dir := newStore(t, 1024)

	ref, err := s.Save(context.Background(), "Apel Merah.PNG", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, ".png", filepath.Ext(ref))
	assert.NotContains(t, ref, "Apel")

	b, err := os.ReadFile(filepath.Join(dir, ref))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(b))
}

func TestSave_RejectsExtension(t *testing.T) {
	s, dir := newStore(t, 1024)

	for _, name := range []string{"shell.php", "noext", "image.svg"} {
		_, err := s.Save(context.Background(), name, strings.NewReader("x"))
		assert.ErrorIs(t, err, model.ErrInvalidInput, name)
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSave_RejectsOversized(t *testing.T) {
	s, dir := newStore(t, 8)

	_, err := s.Save(context.Background(), "big.jpg", bytes.NewReader(make([]byte, 9)))
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = s.Save(context.Background(), "exact.jpg", bytes.NewReader(make([]byte, 8)))
	assert.NoError(t, err)
}

func TestDelete(t *testing.T) {
	s, dir := newStore(t, 1024)
	ref, err := s.Save(context.Background(), "a.jpg", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), ref))
	_, err = os.Stat(filepath.Join(dir, ref))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Delete(context.Background(), ref))
	assert.ErrorIs(t, s.Delete(context.Background(), "../config.jpg"), model.ErrInvalidInput)
}

func TestHandler(t *testing.T) {
	s, _ := newStore(t, 1024)
	ref, err := s.Save(context.Background(), "a.gif", strings.NewReader("GIF89a"))
	require.NoError(t, err)

	srv := http.StripPrefix("/uploads", s.Handler())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/"+ref, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "GIF89a", rec.Body.String())

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/missing.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
