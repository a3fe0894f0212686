package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Upload writes the object and returns its public address.
func (c *Client) Upload(ctx context.Context, objectPath, contentType string, body io.Reader) (string, error) {
	if c == nil || c.tokenSource == nil {
		return "", errors.New("gcs client not initialized")
	}
	objectPath = strings.TrimPrefix(strings.TrimSpace(objectPath), "/")
	if objectPath == "" {
		return "", errors.New("object path is required")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	u := fmt.Sprintf(
		"https://storage.googleapis.com/upload/storage/v1/b/%s/o?uploadType=media&name=%s",
		url.PathEscape(c.bucket),
		url.QueryEscape(objectPath),
	)

	resp, err := c.do(ctx, http.MethodPost, u, contentType, body)
	if err != nil {
		return "", fmt.Errorf("uploading object %q: %w", objectPath, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if len(b) > 0 {
			return "", fmt.Errorf("gcs upload failed: %s: %s", resp.Status, strings.TrimSpace(string(b)))
		}
		return "", fmt.Errorf("gcs upload failed: %s", resp.Status)
	}

	return c.PublicURL(objectPath), nil
}

// Delete removes the object. Deleting a missing object returns an error the
// caller may choose to ignore.
func (c *Client) Delete(ctx context.Context, objectPath string) error {
	if c == nil || c.tokenSource == nil {
		return errors.New("gcs client not initialized")
	}
	objectPath = strings.TrimPrefix(strings.TrimSpace(objectPath), "/")
	if objectPath == "" {
		return errors.New("object path is required")
	}

	u := fmt.Sprintf(
		"https://storage.googleapis.com/storage/v1/b/%s/o/%s",
		url.PathEscape(c.bucket),
		url.PathEscape(objectPath),
	)

	resp, err := c.do(ctx, http.MethodDelete, u, "", nil)
	if err != nil {
		return fmt.Errorf("deleting object %q: %w", objectPath, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gcs delete failed: %s", resp.Status)
	}
	return nil
}

// PublicURL returns the public address for an object in the configured bucket.
func (c *Client) PublicURL(objectPath string) string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", c.bucket, strings.TrimPrefix(objectPath, "/"))
}

// ObjectPathFromPublicURL resolves a deletable object path from a public
// address. It understands the plain bucket-prefixed form this client emits and
// the legacy "/public/<bucket>/<path>" marker form. Malformed or foreign-hosted
// addresses resolve to "" so callers skip deletion instead of failing.
func (c *Client) ObjectPathFromPublicURL(raw string) string {
	if c == nil {
		return ""
	}
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Path == "" {
		return ""
	}

	path := strings.TrimPrefix(parsed.Path, "/")

	// Legacy form: .../public/<bucket>/<object path>
	if idx := strings.Index(path, "public/"); idx != -1 {
		rest := path[idx+len("public/"):]
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) == 2 && parts[1] != "" {
			return parts[1]
		}
		return ""
	}

	// Plain form: storage.googleapis.com/<bucket>/<object path>
	if parsed.Host == "storage.googleapis.com" {
		parts := strings.SplitN(path, "/", 2)
		if len(parts) == 2 && parts[0] == c.bucket && parts[1] != "" {
			return parts[1]
		}
	}

	return ""
}
