package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrUnavailable wraps every transport or upstream failure. Callers degrade
// to an empty result with an error state; they never see partial data.
var ErrUnavailable = errors.New("property catalog unavailable")

// Client is the read-only view onto the external property catalog.
type Client interface {
	FetchPage(ctx context.Context, f Filters) (*Page, error)
	// FetchByID returns (nil, nil) when the catalog has no such property.
	FetchByID(ctx context.Context, id string) (*Property, error)
}

type HTTPClient struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	log     *logrus.Logger
}

func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, log *logrus.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: timeout},
		log:     log,
	}
}

func (c *HTTPClient) FetchPage(ctx context.Context, f Filters) (*Page, error) {
	u := fmt.Sprintf("%s/properties?%s", c.baseURL, f.encode().Encode())

	var page Page
	if err := c.getJSON(ctx, u, &page); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("%w: list endpoint missing upstream", ErrUnavailable)
		}
		return nil, err
	}
	if page.Items == nil {
		page.Items = []Property{}
	}
	return &page, nil
}

func (c *HTTPClient) FetchByID(ctx context.Context, id string) (*Property, error) {
	u := fmt.Sprintf("%s/properties/%s", c.baseURL, id)

	var prop Property
	err := c.getJSON(ctx, u, &prop)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &prop, nil
}

var errNotFound = errors.New("catalog: not found")

// getJSON performs the upstream GET with at most one retry. A stale-but-fast
// failure is preferable to hanging the caller's request, so there is no
// backoff loop beyond the single second attempt.
func (c *HTTPClient) getJSON(ctx context.Context, url string, out interface{}) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		err := c.doOnce(ctx, url, out)
		if err == nil || errors.Is(err, errNotFound) || ctx.Err() != nil {
			return err
		}
		lastErr = err
		if attempt == 0 {
			c.log.WithError(err).WithField("url", url).Warn("catalog request failed, retrying")
		}
	}
	return lastErr
}

func (c *HTTPClient) doOnce(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: upstream status %d", ErrUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return nil
}
