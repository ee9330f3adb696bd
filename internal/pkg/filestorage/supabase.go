package filestorage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yigit/alumnisphere/internal/pkg/logger"
)

// SupabaseConfig holds the storage project settings
type SupabaseConfig struct {
	URL    string // project URL, e.g. https://xyz.supabase.co
	Key    string // service role key
	Bucket string
}

// SupabaseStorage stores files in a Supabase storage bucket over its REST API
type SupabaseStorage struct {
	config SupabaseConfig
	client *http.Client
}

// NewSupabaseStorage creates a SupabaseStorage. A nil client uses a 30s-timeout default.
func NewSupabaseStorage(config SupabaseConfig, client *http.Client) *SupabaseStorage {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	config.URL = strings.TrimRight(config.URL, "/")
	return &SupabaseStorage{config: config, client: client}
}

// Save uploads the file and returns its public object URL
func (s *SupabaseStorage) Save(ctx context.Context, upload Upload, folder string) (string, error) {
	src, err := upload.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	objectName := UniqueObjectName(folder, upload.Filename)
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.config.URL, s.config.Bucket, objectName)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, src)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	if upload.Size > 0 {
		req.ContentLength = upload.Size
	}
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Authorization", "Bearer "+s.config.Key)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "false")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.Error().Int("status", resp.StatusCode).Str("object", objectName).Str("body", string(body)).Msg("Supabase upload rejected")
		return "", fmt.Errorf("upload failed with status %d", resp.StatusCode)
	}

	return s.PublicURL(objectName), nil
}

// Delete removes an object by its public URL; a 404 counts as already deleted
func (s *SupabaseStorage) Delete(ctx context.Context, fileURL string) error {
	if fileURL == "" {
		return nil
	}

	objectName, err := s.ObjectName(fileURL)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.config.URL, s.config.Bucket, objectName)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build delete request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.Key)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send delete request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("delete failed with status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// PublicURL returns the public URL of an object in the configured bucket
func (s *SupabaseStorage) PublicURL(objectName string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.config.URL, s.config.Bucket, objectName)
}

// ObjectName extracts the in-bucket object path from a public URL
func (s *SupabaseStorage) ObjectName(fileURL string) (string, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("invalid file url: %w", err)
	}

	prefix := "/storage/v1/object/public/" + s.config.Bucket + "/"
	if !strings.HasPrefix(u.Path, prefix) {
		return "", fmt.Errorf("file url %q does not belong to bucket %q", fileURL, s.config.Bucket)
	}
	name := strings.TrimPrefix(u.Path, prefix)
	if name == "" {
		return "", fmt.Errorf("file url %q has no object path", fileURL)
	}
	return name, nil
}
