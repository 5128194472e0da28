package filestorage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/uniadmit/admission/internal/pkg/logger"
)

// ErrInvalidPath is returned for paths that escape the storage root.
var ErrInvalidPath = errors.New("invalid file path")

// LocalStorage handles saving files to the local filesystem.
type LocalStorage struct {
	basePath string // The root directory where files will be stored
}

// NewLocalStorage creates a new LocalStorage instance rooted at basePath,
// creating the directory when missing.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{basePath: basePath}, nil
}

// Save writes data to a uniquely named file under subPath.
func (ls *LocalStorage) Save(data []byte, subPath, ext string) (string, error) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	relDir := filepath.Clean(subPath)
	if relDir == "." {
		relDir = ""
	}
	if strings.HasPrefix(relDir, "..") || filepath.IsAbs(relDir) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, subPath)
	}

	fullDirPath := filepath.Join(ls.basePath, relDir)
	if err := os.MkdirAll(fullDirPath, 0o755); err != nil {
		logger.Error().Err(err).Str("path", fullDirPath).Msg("Failed to create subdirectory")
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}

	// Generate a unique filename to prevent collisions
	relPath := filepath.Join(relDir, uuid.New().String()+ext)
	dstPath := filepath.Join(ls.basePath, relPath)

	if err := os.WriteFile(dstPath, data, 0o644); err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to write file")
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to save file content: %w", err)
	}

	logger.Debug().Str("path", relPath).Int("bytes", len(data)).Msg("File saved successfully")
	return filepath.ToSlash(relPath), nil
}

// FullPath resolves relPath inside the storage root.
func (ls *LocalStorage) FullPath(relPath string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(relPath))
	if relPath == "" || clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, relPath)
	}
	return filepath.Join(ls.basePath, clean), nil
}

// Read returns the stored content at relPath.
func (ls *LocalStorage) Read(relPath string) ([]byte, error) {
	full, err := ls.FullPath(relPath)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

// Delete removes the file at relPath. Deleting a missing file succeeds.
func (ls *LocalStorage) Delete(relPath string) error {
	full, err := ls.FullPath(relPath)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn().Str("path", full).Msg("File to delete does not exist")
			return nil
		}
		logger.Error().Err(err).Str("path", full).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}

	logger.Info().Str("path", full).Msg("File deleted successfully")
	return nil
}

var _ FileStorage = (*LocalStorage)(nil)
