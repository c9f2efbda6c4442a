// Package storage stores uploaded article images on the local filesystem
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ImageStorage implements image file storage on the local filesystem.
// Stored files get uuid-based names; the public path is BaseURL + "/" + name.
type ImageStorage struct {
	basePath string
	baseURL  string
}

// NewImageStorage creates a new ImageStorage instance
func NewImageStorage(basePath, baseURL string) *ImageStorage {
	return &ImageStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// BasePath returns the directory stored files are written to
func (s *ImageStorage) BasePath() string {
	return s.basePath
}

// Save writes the reader's contents to a new uuid-named file with the given
// extension and returns the public path for the stored image.
func (s *ImageStorage) Save(r io.Reader, extension string) (string, error) {
	filename := GenerateFileName(extension)
	path := filepath.Join(s.basePath, filename)

	// Ensure the directory exists
	if err := os.MkdirAll(s.basePath, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		// Cleanup: delete the file if copy fails
		os.Remove(path)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return s.baseURL + "/" + filename, nil
}

// Open opens a stored image by its public path
func (s *ImageStorage) Open(publicPath string) (io.ReadCloser, error) {
	filename, err := s.filename(publicPath)
	if err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(s.basePath, filename))
}

// Delete removes a stored image by its public path
func (s *ImageStorage) Delete(publicPath string) error {
	filename, err := s.filename(publicPath)
	if err != nil {
		return err
	}
	return os.Remove(filepath.Join(s.basePath, filename))
}

// filename extracts and sanitizes the stored filename from a public path.
// Paths that escape the base directory are rejected.
func (s *ImageStorage) filename(publicPath string) (string, error) {
	name := strings.TrimPrefix(publicPath, s.baseURL+"/")
	name = filepath.Base(name)
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("invalid image path: %s", publicPath)
	}
	return name, nil
}
