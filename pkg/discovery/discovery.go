// Package discovery resolves a user-supplied server endpoint into the details a patch run needs,
// using the server's autodiscover document.
package discovery

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/micromdm/nanolib/log"
	"github.com/pkg/errors"

	"github.com/askiada/go-refresher/internal/logkeys"
)

// Path is appended to the endpoint to fetch the autodiscover document.
const Path = "/autodiscover"

// Response is the autodiscover document served by a patch target server.
type Response struct {
	Version             int    `json:"version"`
	ServerBrand         string `json:"serverBrand"`
	URL                 string `json:"url"`
	UsesCustomDigestKey bool   `json:"usesCustomDigestKey"`
	BannerImage         string `json:"bannerImage,omitempty"`
}

// Client fetches autodiscover documents over HTTP.
type Client struct {
	client *http.Client
	logger log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new discovery client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		client: http.DefaultClient,
		logger: log.NopLogger,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// URL builds the autodiscover URL for endpoint, defaulting the scheme to http.
func URL(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}

	return strings.TrimRight(endpoint, "/") + Path
}

// Discover fetches the autodiscover document for endpoint.
// A server without an autodiscover document yields a nil response and no error.
func (c *Client) Discover(ctx context.Context, endpoint string) (*Response, error) {
	u := URL(endpoint)
	logger := c.logger.With(logkeys.Endpoint, u)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create autodiscover request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "unable to reach autodiscover endpoint")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		logger.Info(logkeys.Message, "server does not support autodiscover")
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("autodiscover returned status %d", resp.StatusCode)
	}

	res := &Response{}
	err = json.NewDecoder(resp.Body).Decode(res)
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode autodiscover response")
	}

	logger.Debug(logkeys.Message, "autodiscover resolved", "server_brand", res.ServerBrand, "url", res.URL)

	return res, nil
}
