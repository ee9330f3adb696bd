package filestorage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/yigit/alumnisphere/internal/pkg/logger"
)

// LocalStorage handles saving files to the local filesystem.
type LocalStorage struct {
	basePath string // The root directory where files will be stored
	baseURL  string // Public URL prefix the root directory is served under
}

// NewLocalStorage creates a new LocalStorage instance.
// basePath is the required directory path on the server.
// baseURL is optional; without it, returned paths are relative ("uploads/...").
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

// Save writes the upload under basePath/folder with a collision-free name
func (ls *LocalStorage) Save(ctx context.Context, upload Upload, folder string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src, err := upload.Open()
	if err != nil {
		logger.Error().Err(err).Str("filename", upload.Filename).Msg("Failed to open uploaded file")
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	objectName := UniqueObjectName(folder, upload.Filename)
	dstPath := filepath.Join(ls.basePath, filepath.FromSlash(objectName))

	if err := os.MkdirAll(filepath.Dir(dstPath), os.ModePerm); err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create subdirectory")
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}

	dst, err := os.Create(dstPath)
	if err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create destination file")
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}

	if _, err = io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(dstPath)
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to copy uploaded file content")
		return "", fmt.Errorf("failed to save file content: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to finalize file: %w", err)
	}

	accessiblePath := "uploads/" + objectName
	if ls.baseURL != "" {
		accessiblePath = ls.baseURL + "/" + objectName
	}

	logger.Debug().Str("filename", upload.Filename).Str("saved_as", objectName).Str("accessible_path", accessiblePath).Msg("File saved successfully")
	return accessiblePath, nil
}

// Delete removes a file previously returned by Save.
// Returns nil if the file doesn't exist.
func (ls *LocalStorage) Delete(ctx context.Context, fileURL string) error {
	if fileURL == "" {
		return nil
	}

	physicalPath, err := ls.FullPath(fileURL)
	if err != nil {
		return err
	}

	if err := os.Remove(physicalPath); err != nil {
		if os.IsNotExist(err) {
			logger.Warn().Str("path", physicalPath).Msg("File to delete does not exist")
			return nil
		}
		logger.Error().Err(err).Str("path", physicalPath).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}

	logger.Debug().Str("path", physicalPath).Msg("File deleted successfully")
	return nil
}

// FullPath maps a URL returned by Save back to its location on disk.
// Paths escaping basePath are rejected.
func (ls *LocalStorage) FullPath(fileURL string) (string, error) {
	rel := fileURL
	switch {
	case ls.baseURL != "" && strings.HasPrefix(fileURL, ls.baseURL+"/"):
		rel = strings.TrimPrefix(fileURL, ls.baseURL+"/")
	case strings.HasPrefix(fileURL, "uploads/"):
		rel = strings.TrimPrefix(fileURL, "uploads/")
	default:
		return "", fmt.Errorf("file url %q is not managed by this storage", fileURL)
	}

	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid file path: %s", fileURL)
	}
	return filepath.Join(ls.basePath, cleaned), nil
}
