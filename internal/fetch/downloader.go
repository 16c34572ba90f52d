package fetch

import (
	"fmt"
	"io"
	neturl "net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// ImageDownloader fetches supplier-hosted product images. Supplier CDNs often
// reject non-browser clients, so requests carry browser-like headers and the
// image origin as referer. Redirects are not followed; a redirect usually
// means the asset is gone and the caller should treat it as a failure.
type ImageDownloader struct {
	client *resty.Client
	logger *logrus.Logger
}

func NewImageDownloader(timeout time.Duration, logger *logrus.Logger) *ImageDownloader {
	client := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.NoRedirectPolicy()).
		SetDoNotParseResponse(true).
		SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36").
		SetHeader("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.9")

	return &ImageDownloader{
		client: client,
		logger: logger,
	}
}

// Download streams the image at url into destPath, creating parent
// directories as needed. A non-200 response or a short body is an error and
// leaves no partial file behind.
func (d *ImageDownloader) Download(url, destPath string) error {
	resp, err := d.client.R().
		SetHeader("Referer", originOf(url)).
		Get(url)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	body := resp.RawBody()
	if body == nil {
		return fmt.Errorf("empty response body")
	}
	defer body.Close()

	if resp.StatusCode() != 200 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode())
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed to create image directory: %w", err)
	}

	tmpPath := destPath + ".part"
	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}

	written, err := io.Copy(out, body)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && written == 0 {
		err = fmt.Errorf("empty image body")
	}
	if err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize image file: %w", err)
	}

	d.logger.WithFields(logrus.Fields{
		"url":   url,
		"path":  destPath,
		"bytes": written,
	}).Debug("Image downloaded")
	return nil
}

// originOf extracts scheme://host from a URL for use as referer.
func originOf(rawURL string) string {
	u, err := neturl.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Scheme + "://" + u.Host
}
