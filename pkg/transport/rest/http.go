package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/saturnines/repsly-export/pkg/auth"
	"github.com/saturnines/repsly-export/pkg/errors"
	"github.com/saturnines/repsly-export/pkg/logging"
	"github.com/saturnines/repsly-export/pkg/pagination"
	"github.com/saturnines/repsly-export/pkg/record"
)

const (
	// DefaultBaseURL is the Repsly export API root.
	DefaultBaseURL = "https://api.repsly.com/v3/export"
	defaultTimeout = 30 * time.Second
	bodyLogLimit   = 1000
)

// Client fetches export pages as decoded JSON.
type Client struct {
	http    *resty.Client
	builder *Builder
}

// ClientOption defines config for Client
type ClientOption func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

// WithHeader adds a header to all requests
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.http.SetHeader(key, value)
	}
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.http.SetTransport(rt)
	}
}

// NewClient creates a Client for baseURL. h, when set, is applied to every
// request before it is sent.
func NewClient(baseURL string, h auth.Handler, options ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	hc := resty.New().
		SetTimeout(defaultTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if h != nil {
		hc.SetPreRequestHook(func(_ *resty.Client, req *http.Request) error {
			return h.ApplyAuth(req)
		})
	}

	c := &Client{http: hc, builder: NewBuilder(baseURL)}
	for _, option := range options {
		option(c)
	}
	return c
}

// Fetch performs GET for req and decodes the body. Transport failures wrap
// ErrHTTPRequest, statuses other than 200 wrap ErrHTTPResponse and invalid
// JSON wraps ErrDecode.
func (c *Client) Fetch(ctx context.Context, req *pagination.Request) (interface{}, error) {
	url := c.builder.URL(req.Segments...)
	log := logging.FromContext(ctx).WithField("url", url)

	r := c.http.R().SetContext(ctx)
	if len(req.Query) > 0 {
		r.SetQueryParams(req.Query)
	}

	start := time.Now()
	resp, err := r.Get(url)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrHTTPRequest, "GET "+url)
	}
	if resp.StatusCode() != http.StatusOK {
		log.WithFields(logrus.Fields{
			"status": resp.StatusCode(),
			"body":   truncate(resp.Body(), bodyLogLimit),
		}).Debug("unexpected status")
		return nil, errors.WrapError(
			fmt.Errorf("API returned status %d", resp.StatusCode()),
			errors.ErrHTTPResponse,
			"GET "+url,
		)
	}

	body, err := record.Decode(resp.Body())
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrDecode, "GET "+url)
	}

	if log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		log.WithFields(logrus.Fields{
			"elapsed": time.Since(start).Round(time.Millisecond),
			"shape":   record.Shape(body),
		}).Debug("response received")
	}
	if log.Logger.IsLevelEnabled(logrus.TraceLevel) {
		log.WithField("body", truncate(resp.Body(), bodyLogLimit)).Trace("response body")
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
