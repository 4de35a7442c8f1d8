// Copyright (C) 2021-2025 Chronicle Labs, Inc.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package location

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	netURL "net/url"
	"time"

	"github.com/chronicleprotocol/comma/errutil"
)

// HTTPClient is the capability used to probe and download remote resources.
//
// Implementations must follow redirects and must report a URL with an
// unsupported scheme with an error wrapping ErrUnsupportedScheme, and a
// failure to reach the server with an error wrapping ErrConnectionFailed.
type HTTPClient interface {
	// Head performs a HEAD request and returns the final status code.
	Head(ctx context.Context, url string) (status int, err error)

	// Get performs a GET request and returns the final response.
	Get(ctx context.Context, url string) (*Response, error)
}

// Response is a response to a GET request.
type Response struct {
	Status  int
	Body    []byte
	Charset string // The charset parameter of the Content-Type header.
}

// StatusError is returned when a remote resource responds with a status code
// that does not indicate success.
type StatusError struct {
	URL  string
	Code int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status code: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Unwrap maps the status code to fs package errors when possible to increase
// compatibility.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusNotFound, http.StatusGone:
		return fs.ErrNotExist
	case http.StatusUnauthorized, http.StatusPaymentRequired, http.StatusForbidden:
		return fs.ErrPermission
	}
	return nil
}

// Temporary reports whether the request may succeed when repeated.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

type HTTPOption func(*httpClient)

// WithClient sets the HTTP client used to perform HTTP requests.
func WithClient(client *http.Client) HTTPOption {
	return func(c *httpClient) {
		c.client = client
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) HTTPOption {
	return func(c *httpClient) {
		c.userAgent = ua
	}
}

// WithTimeout limits the duration of a single GET request, including reading
// the response body. Zero means no limit.
func WithTimeout(d time.Duration) HTTPOption {
	return func(c *httpClient) {
		c.timeout = d
	}
}

// WithReadLimit sets the maximum size of a response body. Larger responses
// fail with ErrReadLimit. The default limit is DefaultReadLimit.
func WithReadLimit(n int64) HTTPOption {
	return func(c *httpClient) {
		c.readLimit = n
	}
}

// NewHTTPClient creates an HTTPClient backed by the net/http package.
//
// Redirects are followed as implemented by http.Client. If no client is
// provided, http.DefaultClient is used.
func NewHTTPClient(opts ...HTTPOption) HTTPClient {
	c := &httpClient{readLimit: DefaultReadLimit}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = http.DefaultClient
	}
	return c
}

type httpClient struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	readLimit int64
}

// Head implements the HTTPClient interface.
func (c *httpClient) Head(ctx context.Context, url string) (int, error) {
	res, err := c.do(ctx, http.MethodHead, url)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
	_ = res.Body.Close()
	return res.StatusCode, nil
}

// Get implements the HTTPClient interface.
func (c *httpClient) Get(ctx context.Context, url string) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	res, err := c.do(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(io.LimitReader(res.Body, c.readLimit+1))
	if err != nil {
		return nil, errHTTPClientFn(url, err)
	}
	if int64(len(body)) > c.readLimit {
		return nil, errHTTPClientFn(url, ErrReadLimit)
	}
	return &Response{
		Status:  res.StatusCode,
		Body:    body,
		Charset: contentCharset(res.Header),
	}, nil
}

func (c *httpClient) do(ctx context.Context, method, url string) (*http.Response, error) {
	u, err := netURL.Parse(url)
	if err != nil {
		return nil, errHTTPClientFn(url, err)
	}
	if !isRemoteScheme(u.Scheme) {
		return nil, errHTTPClientFn(url, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme))
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, errHTTPClientFn(url, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	res, err := c.client.Do(req)
	if err != nil {
		return nil, errHTTPClientFn(url, fmt.Errorf("%w: %w", ErrConnectionFailed, err))
	}
	return res, nil
}

// contentCharset returns the charset parameter of the Content-Type header.
func contentCharset(h http.Header) string {
	ct := h.Get("Content-Type")
	if ct == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	return params["charset"]
}

// statusOK reports whether the status code denotes a successful response.
// Redirects are followed by the client, so a final 3xx status is accepted
// as well.
func statusOK(code int) bool {
	return code >= 200 && code < 400
}

// NewHTTPFetcher creates a fetcher that downloads Remote locations with the
// given client.
//
// A response with a status code that does not indicate success is reported
// as a *StatusError.
func NewHTTPFetcher(client HTTPClient) Fetcher {
	return &httpFetcher{client: client}
}

type httpFetcher struct {
	client HTTPClient
}

// Fetch implements the Fetcher interface.
func (f *httpFetcher) Fetch(ctx context.Context, loc Location) (*Content, error) {
	if loc.Kind != Remote || loc.URL == nil {
		return nil, errUnexpectedKindFn("httpFetcher", loc.Kind)
	}
	url := loc.URL.String()
	res, err := f.client.Get(ctx, url)
	if err != nil {
		return nil, errHTTPFetcherFn(err)
	}
	if !statusOK(res.Status) {
		return nil, errHTTPFetcherFn(&StatusError{URL: url, Code: res.Status})
	}
	return &Content{
		Name:    loc.Raw,
		Data:    res.Body,
		Charset: res.Charset,
	}, nil
}

// IsUnavailable reports whether err means that the location has no content
// to offer, because the server did not respond with success or could not be
// reached at all.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := errutil.As[*StatusError](err); ok {
		return true
	}
	return errors.Is(err, ErrConnectionFailed) || errors.Is(err, ErrUnsupportedScheme)
}

func errHTTPClientFn(url string, err error) error {
	return fmt.Errorf("location.httpClient: %s: %w", url, err)
}

func errHTTPFetcherFn(err error) error {
	return fmt.Errorf("location.httpFetcher: %w", err)
}
