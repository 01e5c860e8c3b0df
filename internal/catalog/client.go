package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrUpstreamUnavailable covers any non-success answer (or timeout) from the
// external catalog. The caller sees the search fail, never a persistence 5xx.
var ErrUpstreamUnavailable = errors.New("catalog upstream unavailable")

const (
	defaultAPIURL = "https://www.googleapis.com/books/v1"

	// Google Books caps maxResults at 40; this service pages at 10 for
	// first-page UX.
	MaxPageSize = 10

	// Rate limiting against the public volumes endpoint
	rateLimit = 5 // requests per second
	rateBurst = 10
)

// Volume is a single result from the Google Books volumes API.
type Volume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title       string   `json:"title"`
		Authors     []string `json:"authors"`
		Description string   `json:"description"`
		ImageLinks  struct {
			Thumbnail string `json:"thumbnail"`
		} `json:"imageLinks"`
		PublishedDate string   `json:"publishedDate"`
		PageCount     int      `json:"pageCount"`
		Categories    []string `json:"categories"`
		Language      string   `json:"language"`
	} `json:"volumeInfo"`
}

// SearchResult is one page of volumes.
type SearchResult struct {
	Items      []Volume `json:"items"`
	TotalItems int      `json:"totalItems"`
}

// BookFields is a volume flattened to the columns a canonical book stores.
type BookFields struct {
	GoogleID    string `json:"google_id"`
	Title       string `json:"title"`
	Authors     string `json:"authors"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// Client queries the Google Books volumes API with rate limiting.
type Client struct {
	apiURL      string
	apiKey      string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

func NewClient(apiURL, apiKey string, timeout time.Duration) *Client {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	if timeout <= 0 {
		timeout = 6 * time.Second
	}
	return &Client{
		apiURL:      strings.TrimRight(apiURL, "/"),
		apiKey:      apiKey,
		rateLimiter: rate.NewLimiter(rate.Limit(rateLimit), rateBurst),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Search runs a live free-text query against the upstream catalog. Results
// are never cached. startIndex must be >= 0; maxResults is clamped to
// 1..MaxPageSize. An empty query is passed through and yields whatever the
// provider returns for it.
func (c *Client) Search(ctx context.Context, query string, startIndex, maxResults int) (*SearchResult, error) {
	if startIndex < 0 {
		return nil, fmt.Errorf("startIndex must not be negative")
	}
	if maxResults <= 0 || maxResults > MaxPageSize {
		maxResults = MaxPageSize
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("startIndex", strconv.Itoa(startIndex))
	params.Set("maxResults", strconv.Itoa(maxResults))
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	var result SearchResult
	if err := c.getJSON(ctx, c.apiURL+"/volumes?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	if result.Items == nil {
		result.Items = []Volume{}
	}
	return &result, nil
}

// GetVolume fetches a single volume by its catalog id. A provider 404 is an
// empty result (nil, nil), not an error.
func (c *Client) GetVolume(ctx context.Context, id string) (*Volume, error) {
	if id == "" {
		return nil, fmt.Errorf("volume id is required")
	}

	params := url.Values{}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	endpoint := c.apiURL + "/volumes/" + url.PathEscape(id)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var volume Volume
	err := c.getJSON(ctx, endpoint, &volume)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &volume, nil
}

var errNotFound = errors.New("not found")

// getJSON performs a rate-limited GET and decodes the body. Transient network
// failures are retried once; these calls are read-only so the retry cannot
// double any side effect.
func (c *Client) getJSON(ctx context.Context, endpoint string, target any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, ctx.Err())
			case <-time.After(200 * time.Millisecond):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return errNotFound
		case resp.StatusCode != http.StatusOK:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
		}

		err = json.NewDecoder(resp.Body).Decode(target)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("%w: decode response: %v", ErrUpstreamUnavailable, err)
		}
		return nil
	}

	return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, lastErr)
}

// MapVolume flattens a volume into the fields stored on a canonical book.
func MapVolume(v Volume) BookFields {
	title := v.VolumeInfo.Title
	if title == "" {
		title = "Untitled"
	}
	authors := "Unknown author"
	if len(v.VolumeInfo.Authors) > 0 {
		authors = strings.Join(v.VolumeInfo.Authors, ", ")
	}
	return BookFields{
		GoogleID:    v.ID,
		Title:       title,
		Authors:     authors,
		Description: v.VolumeInfo.Description,
		Image:       v.VolumeInfo.ImageLinks.Thumbnail,
	}
}
