// Package apod implements the remote-fetch collaborator for the daily
// picture service: a thin HTTPS client that classifies failures into the
// error taxonomy the retry and fallback logic branch on.
package apod

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/duskrise/stargaze/internal/config"
	"github.com/duskrise/stargaze/internal/types"
)

// maxImageBytes caps asset downloads; hi-res archive images run tens of MB.
const maxImageBytes = 64 * 1024 * 1024

// Client fetches daily records and their binary assets over HTTPS.
type Client struct {
	baseURL    string
	apiKey     types.SecretString
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a remote client from configuration. The API key is
// carried as a SecretString and never logged.
func NewClient(cfg config.APIConfig, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := url.Parse(cfg.BaseURL); err != nil || !strings.Contains(cfg.BaseURL, "://") {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidURL, cfg.BaseURL)
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.Key,
		httpClient: httpClient,
		logger:     logger.With("component", "apod-client"),
	}, nil
}

// Fetch retrieves the record for a date. An empty date requests the current
// record. Failures are classified: non-2xx status -> *types.APIError, empty
// body -> types.ErrEmptyResponse, unparseable body -> *types.DecodeError,
// transport failures pass through as connectivity errors.
func (c *Client) Fetch(ctx context.Context, date string) (*types.Picture, error) {
	reqURL, err := c.buildURL(date)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var picture types.Picture
	if err := json.Unmarshal(body, &picture); err != nil {
		return nil, &types.DecodeError{Err: err}
	}

	if err := picture.Validate(); err != nil {
		return nil, err
	}

	c.logger.Debug("Fetched record", "date", picture.Date, "media_type", picture.MediaType)
	return &picture, nil
}

// FetchImage downloads the binary asset at rawURL.
func (c *Client) FetchImage(ctx context.Context, rawURL string) ([]byte, error) {
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidURL, rawURL)
	}

	return c.get(ctx, rawURL)
}

func (c *Client) buildURL(date string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: %q", types.ErrInvalidURL, c.baseURL)
	}

	q := u.Query()
	q.Set("api_key", c.apiKey.Value())
	if date != "" {
		if _, err := types.ParseDate(date); err != nil {
			return "", err
		}
		q.Set("date", date)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidURL, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error wraps timeouts and connection failures; connectivity class
		return nil, err
	}
	defer resp.Body.Close()

	// Read one byte past the cap so an oversized body is detected rather
	// than silently clipped and cached as a valid asset.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &types.APIError{
			StatusCode: resp.StatusCode,
			Body:       truncateBody(body),
		}
	}

	if len(body) > maxImageBytes {
		return nil, fmt.Errorf("%w: body over %d bytes", types.ErrResponseTooLarge, maxImageBytes)
	}

	if len(body) == 0 {
		return nil, types.ErrEmptyResponse
	}

	return body, nil
}

func truncateBody(body []byte) string {
	const maxLen = 200
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen]
	}
	return s
}

var _ types.RemoteFetcher = (*Client)(nil)
