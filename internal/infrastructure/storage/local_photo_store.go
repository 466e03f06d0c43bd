package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/thepoolbud/poolbud-api/internal/application/usecase"
)

var _ usecase.PhotoStore = (*LocalPhotoStore)(nil)

// LocalPhotoStore guarda las fotos en disco (desarrollo). El router las sirve bajo /uploads.
type LocalPhotoStore struct {
	dir     string
	baseURL string
}

// NewLocalPhotoStore crea el directorio raíz si no existe.
func NewLocalPhotoStore(dir, publicBaseURL string) (*LocalPhotoStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: crear %s: %w", dir, err)
	}
	return &LocalPhotoStore{dir: dir, baseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

// Dir directorio raíz de las fotos.
func (s *LocalPhotoStore) Dir() string { return s.dir }

// Put escribe el archivo bajo dir/key. Rechaza claves que escapan del directorio.
func (s *LocalPhotoStore) Put(ctx context.Context, key, _ string, body io.Reader, size int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	if clean == string(filepath.Separator) {
		return "", fmt.Errorf("storage: clave vacía")
	}
	dst := filepath.Join(s.dir, clean)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("storage: %w", err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("storage: %w", err)
	}
	n, err := io.Copy(f, io.LimitReader(body, size+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n != size {
		err = fmt.Errorf("se esperaban %d bytes, llegaron %d", size, n)
	}
	if err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("storage: escribir %s: %w", key, err)
	}
	return s.baseURL + filepath.ToSlash(clean), nil
}
