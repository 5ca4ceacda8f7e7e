// Package asset stores uploaded product images on the local filesystem.
package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-retail-service/internal/model"
	"github.com/fekuna/omnipos-retail-service/internal/pkg/logger"
)

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

type LocalStore struct {
	dir      string
	maxBytes int64
	logger   logger.ZapLogger
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir string, maxBytes int64, log logger.ZapLogger) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, maxBytes: maxBytes, logger: log}, nil
}

func (s *LocalStore) MaxBytes() int64 { return s.maxBytes }

// Save writes r under a fresh name keeping the extension of originalName and
// returns the reference to store on the product.
func (s *LocalStore) Save(ctx context.Context, originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExt[ext] {
		return "", fmt.Errorf("%w: unsupported image type %q", model.ErrInvalidInput, ext)
	}

	ref := uuid.New().String() + ext
	path := filepath.Join(s.dir, ref)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create asset: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > s.maxBytes {
		err = fmt.Errorf("%w: image larger than %d bytes", model.ErrInvalidInput, s.maxBytes)
	}
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}

	s.logger.Debug("asset saved", zap.String("ref", ref), zap.Int64("bytes", n))
	return ref, nil
}

// Delete removes ref. A missing file is not an error.
func (s *LocalStore) Delete(ctx context.Context, ref string) error {
	if !validRef(ref) {
		return fmt.Errorf("%w: bad asset reference %q", model.ErrInvalidInput, ref)
	}
	err := os.Remove(filepath.Join(s.dir, ref))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Handler serves stored assets by reference. Mount it with the prefix
// stripped. Directory listings are not served.
func (s *LocalStore) Handler() http.Handler {
	files := http.FileServer(http.Dir(s.dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ref := strings.TrimPrefix(r.URL.Path, "/")
		if !validRef(ref) {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		files.ServeHTTP(w, r)
	})
}

func validRef(ref string) bool {
	return ref != "" &&
		ref == filepath.Base(ref) &&
		!strings.ContainsAny(ref, `/\`) &&
		allowedExt[strings.ToLower(filepath.Ext(ref))]
}
