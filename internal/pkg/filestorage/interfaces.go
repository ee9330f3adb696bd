package filestorage

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrFileTooLarge is returned when an upload exceeds the configured size limit
var ErrFileTooLarge = errors.New("file exceeds the maximum upload size")

// Upload describes a file received from a client, not yet persisted
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// FromFileHeader adapts a multipart file header into an Upload
func FromFileHeader(fh *multipart.FileHeader) Upload {
	return Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// FileStorage defines the interface for file storage operations
type FileStorage interface {
	// Save persists the upload under folder and returns a durable URL for it
	Save(ctx context.Context, upload Upload, folder string) (string, error)

	// Delete removes a previously saved file by the URL Save returned.
	// Deleting a file that does not exist is not an error.
	Delete(ctx context.Context, fileURL string) error
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]+`)

// UniqueObjectName builds "<folder>/<yyyymmdd>-<uuid><ext>" for a new upload
func UniqueObjectName(folder, originalFilename string) string {
	ext := strings.ToLower(unsafeFilenameChars.ReplaceAllString(filepath.Ext(originalFilename), ""))
	name := time.Now().Format("20060102") + "-" + uuid.New().String() + ext
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}
