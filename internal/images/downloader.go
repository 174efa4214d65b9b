package images

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Dir is the directory under the output root holding downloaded images.
const Dir = "images"

// maxImageSize caps a single image download.
const maxImageSize = 50 << 20 // 50 MiB

// ErrNotImage is returned when the response is not an image.
var ErrNotImage = errors.New("response is not an image")

// Downloader fetches images over HTTP into the output tree. Safe for
// concurrent use.
type Downloader struct {
	httpClient *http.Client
	userAgent  string
	outputRoot string
}

// NewDownloader creates a Downloader writing under outputRoot/images.
func NewDownloader(outputRoot, userAgent string, timeout time.Duration) *Downloader {
	return &Downloader{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		outputRoot: outputRoot,
	}
}

// WithHTTPClient replaces the underlying HTTP client. Tests use this.
func (d *Downloader) WithHTTPClient(hc *http.Client) *Downloader {
	d.httpClient = hc
	return d
}

// Download fetches one image and returns its path relative to the output
// root, forward slashes.
func (d *Downloader) Download(ctx context.Context, imageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", imageURL, err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", imageURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s returned status %d", imageURL, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return "", fmt.Errorf("%s has content type %q: %w", imageURL, ct, ErrNotImage)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return "", fmt.Errorf("failed to read image body: %w", err)
	}

	relPath := localName(imageURL)
	absPath := filepath.Join(d.outputRoot, filepath.FromSlash(relPath))

	if err := os.MkdirAll(filepath.Dir(absPath), 0750); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(absPath), ".img-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), absPath); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to move image into place: %w", err)
	}

	return relPath, nil
}

// localName derives the on-disk path for an image URL. The URL's filename
// is kept for readability; a hash of the full URL disambiguates identical
// names from different locations.
func localName(imageURL string) string {
	name := "image"
	ext := ""

	if u, err := url.Parse(imageURL); err == nil {
		base := path.Base(u.Path)
		if base != "." && base != "/" {
			ext = path.Ext(base)
			name = strings.TrimSuffix(base, ext)
		}
	}

	if len(name) > 80 {
		name = name[:80]
	}

	sum := md5.Sum([]byte(imageURL))
	return fmt.Sprintf("%s/%s-%s%s", Dir, name, hex.EncodeToString(sum[:])[:8], ext)
}
