// This file is part of livecheck.
//
// livecheck is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// livecheck is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with livecheck.  If not, see <https://www.gnu.org/licenses/>.

package provider

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/juju/errors"
	"golang.org/x/net/publicsuffix"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = `Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36`
	// responses larger than this are cut off
	maxBodySize = 8 << 20
)

// ErrMalformed marks a response we could not parse
const ErrMalformed = errors.ConstError("malformed payload")

// StatusError is a response outside 2xx
type StatusError struct {
	Code int
}

func (e StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

// IsStatus is true if err is a StatusError with the given code
func IsStatus(err error, code int) bool {
	var se StatusError
	return errors.As(err, &se) && se.Code == code
}

// Malformed wraps a parse error so it can be told apart from transport failures
func Malformed(err error, format string, args ...interface{}) error {
	if err == nil {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrMalformed)
	}
	return fmt.Errorf("%s: %w: %w", fmt.Sprintf(format, args...), ErrMalformed, err)
}

// Client makes provider requests
// every request gets its own timeout
type Client struct {
	http      *http.Client
	userAgent func() string
	timeout   func() time.Duration
}

// ClientOption changes a Client
type ClientOption func(*Client)

// WithUserAgent reads the user agent for each request
func WithUserAgent(fn func() string) ClientOption {
	return func(c *Client) {
		c.userAgent = fn
	}
}

// WithTimeout reads the per request timeout for each request
func WithTimeout(fn func() time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = fn
	}
}

// WithHTTPClient replaces the transport, mostly for tests
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient with a cookie jar
func NewClient(opts ...ClientOption) *Client {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		panic(err)
	}

	c := &Client{
		http:      &http.Client{Jar: jar},
		userAgent: func() string { return defaultUserAgent },
		timeout:   func() time.Duration { return defaultTimeout },
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// HTTP gives the underlying client for libraries that want one
func (c *Client) HTTP() *http.Client {
	return c.http
}

// Timeout for a single request
func (c *Client) Timeout() time.Duration {
	if d := c.timeout(); d > 0 {
		return d
	}
	return defaultTimeout
}

// Response from a provider
type Response struct {
	Code int
	Body []byte
}

// Get a page or document
func (c *Client) Get(ctx context.Context, link string, header http.Header) (Response, error) {
	return c.Do(ctx, http.MethodGet, link, nil, header)
}

// Post a body
func (c *Client) Post(ctx context.Context, link string, body []byte, header http.Header) (Response, error) {
	return c.Do(ctx, http.MethodPost, link, body, header)
}

// Do a request
// a response outside 2xx is returned along with a StatusError
func (c *Client) Do(ctx context.Context, method, link string, body []byte, header http.Header) (res Response, err error) {
	timeout := c.Timeout()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, link, r)
	if err != nil {
		return res, errors.Annotatef(err, "provider.Do: %s", link)
	}

	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")
	req.Header.Set("User-Agent", c.userAgent())
	for k, vs := range header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	// the Host header is only honored through req.Host
	if host := req.Header.Get("Host"); host != "" {
		req.Host = host
		req.Header.Del("Host")
	}

	httpRes, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return res, errors.Timeoutf("%s after %s", link, timeout)
		}
		return res, errors.Annotatef(err, "provider.Do")
	}
	defer httpRes.Body.Close()

	res.Code = httpRes.StatusCode
	res.Body, err = readResponse(httpRes)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return res, errors.Timeoutf("%s after %s", link, timeout)
		}
		return res, errors.Annotatef(err, "provider.Do: %s", link)
	}

	if res.Code < 200 || res.Code > 299 {
		return res, StatusError{Code: res.Code}
	}

	return res, nil
}

func readResponse(res *http.Response) ([]byte, error) {
	var r io.Reader = res.Body
	if res.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(res.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}

	return io.ReadAll(io.LimitReader(r, maxBodySize))
}
