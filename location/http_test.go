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
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data.csv":
			w.Header().Set("Content-Type", "text/csv; charset=ISO-8859-1")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("a,b\n1,2\n"))
		case "/plain.csv":
			w.Header().Set("Content-Type", "text/csv")
			_, _ = w.Write([]byte("a,b\n"))
		case "/agent":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte(r.UserAgent()))
		case "/redirect":
			http.Redirect(w, r, "/data.csv", http.StatusMovedPermanently)
		case "/large":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte(strings.Repeat("x", 100)))
		case "/sniffed":
			_, _ = w.Write([]byte("a,b\n"))
		case "/slow":
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte("late"))
		case "/unauthorized":
			w.WriteHeader(http.StatusUnauthorized)
		case "/error":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func TestHTTPClientGet(t *testing.T) {
	server := httptest.NewServer(testHandler())
	defer server.Close()

	ctx := context.Background()
	tc := []struct {
		name        string
		opts        []HTTPOption
		path        string
		wantStatus  int
		wantBody    string
		wantCharset string
		wantErr     error
	}{
		{
			name:        "declared charset",
			path:        "/data.csv",
			wantStatus:  http.StatusOK,
			wantBody:    "a,b\n1,2\n",
			wantCharset: "ISO-8859-1",
		},
		{
			name:       "no charset",
			path:       "/plain.csv",
			wantStatus: http.StatusOK,
			wantBody:   "a,b\n",
		},
		{
			name:        "redirect",
			path:        "/redirect",
			wantStatus:  http.StatusOK,
			wantBody:    "a,b\n1,2\n",
			wantCharset: "ISO-8859-1",
		},
		{
			name:       "user agent",
			opts:       []HTTPOption{WithUserAgent("comma-test")},
			path:       "/agent",
			wantStatus: http.StatusOK,
			wantBody:   "comma-test",
		},
		{
			name:        "sniffed content type",
			path:        "/sniffed",
			wantStatus:  http.StatusOK,
			wantBody:    "a,b\n",
			wantCharset: "utf-8",
		},
		{
			name:       "not found",
			path:       "/missing",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "read limit not exceeded",
			opts:       []HTTPOption{WithReadLimit(100)},
			path:       "/large",
			wantStatus: http.StatusOK,
			wantBody:   strings.Repeat("x", 100),
		},
		{
			name:    "read limit exceeded",
			opts:    []HTTPOption{WithReadLimit(99)},
			path:    "/large",
			wantErr: ErrReadLimit,
		},
		{
			name:    "timeout",
			opts:    []HTTPOption{WithTimeout(20 * time.Millisecond)},
			path:    "/slow",
			wantErr: ErrConnectionFailed,
		},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			client := NewHTTPClient(append(tt.opts, WithClient(server.Client()))...)
			res, err := client.Get(ctx, server.URL+tt.path)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, res.Status)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, string(res.Body))
			}
			assert.Equal(t, tt.wantCharset, res.Charset)
		})
	}
}

func TestHTTPClientHead(t *testing.T) {
	server := httptest.NewServer(testHandler())
	defer server.Close()

	ctx := context.Background()
	client := NewHTTPClient()

	status, err := client.Head(ctx, server.URL+"/data.csv")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)

	status, err = client.Head(ctx, server.URL+"/missing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHTTPClientErrors(t *testing.T) {
	ctx := context.Background()
	client := NewHTTPClient()

	_, err := client.Head(ctx, "ftp://example.com/data.csv")
	require.ErrorIs(t, err, ErrUnsupportedScheme)

	_, err = client.Get(ctx, "gopher://example.com/data.csv")
	require.ErrorIs(t, err, ErrUnsupportedScheme)

	server := httptest.NewServer(testHandler())
	addr := server.URL
	server.Close()

	_, err = client.Head(ctx, addr+"/data.csv")
	require.ErrorIs(t, err, ErrConnectionFailed)

	_, err = client.Get(ctx, addr+"/data.csv")
	require.ErrorIs(t, err, ErrConnectionFailed)
	assert.True(t, IsUnavailable(err))
}

func TestHTTPFetcher(t *testing.T) {
	server := httptest.NewServer(testHandler())
	defer server.Close()

	ctx := context.Background()
	fetcher := NewHTTPFetcher(NewHTTPClient())

	tc := []struct {
		name            string
		path            string
		wantData        string
		wantCharset     string
		wantErr         bool
		wantUnavailable bool
		wantNotExist    bool
		wantPermission  bool
	}{
		{
			name:        "ok",
			path:        "/data.csv",
			wantData:    "a,b\n1,2\n",
			wantCharset: "ISO-8859-1",
		},
		{
			name:            "not found",
			path:            "/missing",
			wantErr:         true,
			wantUnavailable: true,
			wantNotExist:    true,
		},
		{
			name:            "unauthorized",
			path:            "/unauthorized",
			wantErr:         true,
			wantUnavailable: true,
			wantPermission:  true,
		},
		{
			name:            "server error",
			path:            "/error",
			wantErr:         true,
			wantUnavailable: true,
		},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			raw := server.URL + tt.path
			u, err := url.Parse(raw)
			require.NoError(t, err)
			content, err := fetcher.Fetch(ctx, Location{Kind: Remote, Raw: raw, URL: u})
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantUnavailable, IsUnavailable(err))
				assert.Equal(t, tt.wantNotExist, errors.Is(err, fs.ErrNotExist))
				assert.Equal(t, tt.wantPermission, errors.Is(err, fs.ErrPermission))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, raw, content.Name)
			assert.Equal(t, tt.wantData, string(content.Data))
			assert.Equal(t, tt.wantCharset, content.Charset)
		})
	}
}

func TestHTTPFetcherUnexpectedKind(t *testing.T) {
	_, err := NewHTTPFetcher(NewHTTPClient()).Fetch(context.Background(), Location{Kind: Local, Path: "/tmp/a.csv"})
	require.Error(t, err)
}

func TestStatusError(t *testing.T) {
	err := &StatusError{URL: "http://example.com", Code: http.StatusNotFound}
	assert.Equal(t, "http://example.com: unexpected status code: 404 Not Found", err.Error())
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.False(t, err.Temporary())

	err = &StatusError{URL: "http://example.com", Code: http.StatusForbidden}
	assert.ErrorIs(t, err, fs.ErrPermission)

	assert.True(t, (&StatusError{Code: http.StatusServiceUnavailable}).Temporary())
	assert.True(t, (&StatusError{Code: http.StatusTooManyRequests}).Temporary())
}

func TestContentCharset(t *testing.T) {
	tc := []struct {
		contentType string
		want        string
	}{
		{contentType: "", want: ""},
		{contentType: "text/csv", want: ""},
		{contentType: "text/csv; charset=utf-8", want: "utf-8"},
		{contentType: `text/csv; charset="windows-1252"`, want: "windows-1252"},
		{contentType: "text/csv; charset", want: ""},
	}
	for _, tt := range tc {
		t.Run(tt.contentType, func(t *testing.T) {
			h := http.Header{}
			if tt.contentType != "" {
				h.Set("Content-Type", tt.contentType)
			}
			assert.Equal(t, tt.want, contentCharset(h))
		})
	}
}
