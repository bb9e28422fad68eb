package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/maltedev/product-page-scraper/internal/models"
)

var (
	ErrEmptyReference = errors.New("empty image reference")
	ErrImageStatus    = errors.New("unexpected image response status")
)

const (
	DefaultImageDir = "product_images"
	DefaultImageExt = ".jpg"

	maxFileNameLength = 50
)

var illegalFileChars = regexp.MustCompile(`[\\/*?:"<>|]`)

// ImageStore downloads product images into a single directory, naming each
// file after its product. Two products that sanitize to the same name share
// one file; the later download overwrites the earlier one.
type ImageStore struct {
	dir       string
	ext       string
	client    *http.Client
	userAgent string
}

// DefaultHTTPClient is used when no client is passed to NewImageStore.
func DefaultHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
	}
}

func NewImageStore(dir, ext string, client *http.Client, userAgent string) *ImageStore {
	if dir == "" {
		dir = DefaultImageDir
	}
	if ext == "" {
		ext = DefaultImageExt
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &ImageStore{
		dir:       dir,
		ext:       ext,
		client:    client,
		userAgent: userAgent,
	}
}

func (s *ImageStore) Dir() string {
	return s.dir
}

// Save resolves ref against the page URL, downloads it and stores it under a
// name derived from title. It returns the written path.
func (s *ImageStore) Save(ctx context.Context, ref, baseURL, title string) (string, error) {
	imageURL, err := ResolveReference(ref, baseURL)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build image request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %d for %s", ErrImageStatus, resp.StatusCode, imageURL)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create image directory %q: %w", s.dir, err)
	}

	path := filepath.Join(s.dir, SanitizeFileName(title)+s.ext)

	// Write to temp file first so a failed download never leaves a partial image
	tmp, err := os.CreateTemp(s.dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("create temp image file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close image file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("move image into place: %w", err)
	}

	return path, nil
}

// ResolveReference turns a possibly relative image reference into an
// absolute URL using the product page URL as base.
func ResolveReference(ref, baseURL string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrEmptyReference
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", baseURL, err)
	}
	rel, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse image reference %q: %w", ref, err)
	}

	return base.ResolveReference(rel).String(), nil
}

// SanitizeFileName drops characters that are illegal in file names, replaces
// spaces with underscores and caps the result at 50 characters.
func SanitizeFileName(title string) string {
	name := illegalFileChars.ReplaceAllString(title, "")
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, " ", "_")

	if runes := []rune(name); len(runes) > maxFileNameLength {
		name = string(runes[:maxFileNameLength])
	}
	if name == "" {
		return models.Missing
	}
	return name
}
