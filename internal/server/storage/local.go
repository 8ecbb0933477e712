package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/recipehub/recipehub/internal/filex"
)

const uploadsRoute = "/uploads/"

// LocalStorage writes files under dir/<folder>/ and serves them through the
// API at <baseURL>/uploads/<folder>/<name>.
type LocalStorage struct {
	dir     string
	baseURL string
}

func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStorage{dir: abs, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir is the root directory the HTTP layer serves under /uploads/.
func (s *LocalStorage) Dir() string {
	return s.dir
}

func (s *LocalStorage) Upload(_ context.Context, f File, folder string) (string, error) {
	name, err := objectName(f.ContentType)
	if err != nil {
		return "", err
	}

	folderPath, err := filex.EnsureSubDir(s.dir, folder)
	if err != nil {
		return "", fmt.Errorf("create folder: %w", err)
	}

	dst, err := os.OpenFile(filepath.Join(folderPath, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	if _, err := io.Copy(dst, f.Body); err != nil {
		_ = dst.Close()
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return s.baseURL + uploadsRoute + folder + "/" + name, nil
}

// Delete removes the file behind fileURL. A file that is already gone is not
// an error.
func (s *LocalStorage) Delete(_ context.Context, fileURL string) error {
	u, err := url.Parse(fileURL)
	if err != nil {
		return ErrForeignURL
	}

	rel, ok := strings.CutPrefix(u.Path, uploadsRoute)
	if !ok || rel == "" {
		return ErrForeignURL
	}

	// Clean against a rooted path so ".." cannot climb out of dir.
	clean := strings.TrimPrefix(path.Clean("/"+rel), "/")
	if err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(clean))); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}

	return nil
}
