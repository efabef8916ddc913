package photos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"
)

// UploadOptions name the destination of an upload.
type UploadOptions struct {
	Folder   string
	PublicID string
}

// UploadResult is the outcome of a successful upload.
type UploadResult struct {
	URL string `json:"url"`
}

// ObjectStorage is the opaque media-storage capability the photo
// manager consumes: upload a file, get a URL back; delete by URL.
type ObjectStorage interface {
	Upload(ctx context.Context, file io.Reader, filename string, opts UploadOptions) (UploadResult, error)
	Delete(ctx context.Context, fileURL string) error
}

// HTTPStorage talks to a generic media-upload endpoint over HTTP.
type HTTPStorage struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPStorage creates an HTTP-backed object storage client.
func NewHTTPStorage(baseURL, apiKey string, timeout time.Duration) *HTTPStorage {
	return &HTTPStorage{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPStorage) Upload(ctx context.Context, file io.Reader, filename string, opts UploadOptions) (UploadResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return UploadResult{}, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return UploadResult{}, fmt.Errorf("read upload file: %w", err)
	}
	if opts.Folder != "" {
		_ = mw.WriteField("folder", opts.Folder)
	}
	if opts.PublicID != "" {
		_ = mw.WriteField("public_id", opts.PublicID)
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("finish upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/upload", &body)
	if err != nil {
		return UploadResult{}, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return UploadResult{}, fmt.Errorf("upload: unexpected status %d", resp.StatusCode)
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return UploadResult{}, fmt.Errorf("decode upload response: %w", err)
	}
	if result.URL == "" {
		return UploadResult{}, fmt.Errorf("upload: response carried no url")
	}
	return result, nil
}

func (s *HTTPStorage) Delete(ctx context.Context, fileURL string) error {
	endpoint := s.baseURL + "/delete?url=" + url.QueryEscape(fileURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("delete %s: %w", fileURL, err)
	}
	defer resp.Body.Close()

	// Gone already is fine for a best-effort cleanup.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("delete %s: unexpected status %d", fileURL, resp.StatusCode)
	}
	return nil
}
