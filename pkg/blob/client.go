package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/northbay-wholesale/storefront/pkg/config"
	"github.com/northbay-wholesale/storefront/pkg/logger"
)

const (
	blobTypeHeader    = "x-ms-blob-type"
	blobVersionHeader = "x-ms-version"
	blobType          = "BlockBlob"
	blobVersion       = "2021-08-06"

	pingTimeout = 5 * time.Second

	maxErrorBody = 2048
)

// ErrNotFound marks a missing resource; callers treat it as an empty result,
// not a failure.
var ErrNotFound = errors.New("blob: resource not found")

// TransportError carries the remote store's response for non-2xx statuses
// other than the tolerated 404s.
type TransportError struct {
	method string
	url    string
	status int
	body   string
}

func (e *TransportError) Error() string {
	if e.body != "" {
		return fmt.Sprintf("blob: %s %s returned %d: %s", e.method, e.url, e.status, e.body)
	}
	return fmt.Sprintf("blob: %s %s returned %d", e.method, e.url, e.status)
}

func (e *TransportError) StatusCode() int { return e.status }
func (e *TransportError) Method() string  { return e.method }
func (e *TransportError) URL() string     { return e.url }

// Client talks to the remote object store over its REST surface. Reads use
// the account's read SAS token; writes carry a bearer token from the
// identity provider. One attempt per call, no retries.
type Client struct {
	httpClient *http.Client
	accountURL string
	readSAS    string
	logg       *logger.Logger
}

func NewClient(cfg config.BlobConfig, logg *logger.Logger) (*Client, error) {
	account := strings.TrimRight(cfg.AccountURL, "/")
	if account == "" {
		return nil, errors.New("blob account URL is required")
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		accountURL: account,
		readSAS:    strings.TrimPrefix(cfg.ReadSASToken, "?"),
		logg:       logg,
	}, nil
}

// ResourceURL builds the full URL for a resource, optionally suffixed with
// the read SAS token.
func (c *Client) ResourceURL(container, resource string, withSAS bool) string {
	u := c.accountURL + "/" + url.PathEscape(container) + "/" + url.PathEscape(resource)
	if withSAS && c.readSAS != "" {
		u += "?" + c.readSAS
	}
	return u
}

// ReadURL resolves an image reference to a fetchable URL. External http(s)
// URLs pass through untouched; store-relative paths and URLs under this
// account get the read SAS suffix appended.
func (c *Client) ReadURL(ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		if !strings.HasPrefix(ref, c.accountURL) {
			return ref
		}
	} else {
		ref = c.accountURL + "/" + strings.TrimLeft(ref, "/")
	}
	if c.readSAS == "" {
		return ref
	}
	sep := "?"
	if strings.Contains(ref, "?") {
		sep = "&"
	}
	return ref + sep + c.readSAS
}

// GetJSON fetches a resource and decodes it into dest. A 404 is returned as
// ErrNotFound so callers can substitute an empty collection.
func (c *Client) GetJSON(ctx context.Context, container, resource string, dest any) error {
	u := c.ResourceURL(container, resource, true)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer c.closeBody(ctx, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return c.transportError(http.MethodGet, u, resp)
	}

	return json.NewDecoder(resp.Body).Decode(dest)
}

// PutJSON uploads body as a JSON blob. Writes require a bearer token; the
// store answers 401/403 when the token is missing or lacks the contributor
// role.
func (c *Client) PutJSON(ctx context.Context, container, resource string, body any, token string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", resource, err)
	}
	return c.put(ctx, container, resource, "application/json", bytes.NewReader(payload), token)
}

// PutBinary uploads an opaque blob (product and brand images).
func (c *Client) PutBinary(ctx context.Context, container, name, contentType string, r io.Reader, token string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return c.put(ctx, container, name, contentType, r, token)
}

func (c *Client) put(ctx context.Context, container, resource, contentType string, r io.Reader, token string) error {
	u := c.ResourceURL(container, resource, true)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(blobTypeHeader, blobType)
	req.Header.Set(blobVersionHeader, blobVersion)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer c.closeBody(ctx, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.transportError(http.MethodPut, u, resp)
	}
	return nil
}

// Delete removes a resource. A 404 is treated as success so deletes are
// idempotent.
func (c *Client) Delete(ctx context.Context, container, resource, token string) error {
	u := c.ResourceURL(container, resource, true)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set(blobVersionHeader, blobVersion)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer c.closeBody(ctx, resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.transportError(http.MethodDelete, u, resp)
	}
	return nil
}

// Ping probes the data container. Bootstrap logs a warning on failure
// instead of aborting; the catalog degrades to cached data.
func (c *Client) Ping(ctx context.Context, container string) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	u := c.accountURL + "/" + url.PathEscape(container)
	if c.readSAS != "" {
		u += "?" + c.readSAS
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer c.closeBody(ctx, resp.Body)

	if resp.StatusCode >= 500 {
		return fmt.Errorf("blob store unhealthy: %s", resp.Status)
	}
	return nil
}

func (c *Client) transportError(method, u string, resp *http.Response) *TransportError {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &TransportError{
		method: method,
		url:    u,
		status: resp.StatusCode,
		body:   strings.TrimSpace(string(b)),
	}
}

func (c *Client) closeBody(ctx context.Context, body io.Closer) {
	if body == nil {
		return
	}
	if err := body.Close(); err != nil && c.logg != nil {
		c.logg.Warn(ctx, "blob: closing response body failed")
	}
}
