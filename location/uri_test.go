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
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		name       string
		uri        string
		wantOK     bool
		wantScheme string
	}{
		{name: "empty", uri: "", wantOK: false},
		{name: "relative path", uri: "data/file.csv", wantOK: true},
		{name: "http", uri: "HTTP://example.com/a.csv", wantOK: true, wantScheme: "http"},
		{name: "invalid escape", uri: "http://example.com/%zz", wantOK: false},
		{name: "control character", uri: "a\x7fb", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, ok := parseURI(tt.uri)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantScheme, u.Scheme)
			}
		})
	}
}

func TestURIFilePath(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{name: "plain path", uri: "/tmp/data.csv", want: "/tmp/data.csv"},
		{name: "relative path", uri: "data.csv", want: "data.csv"},
		{name: "file uri", uri: "file:///tmp/data.csv", want: "/tmp/data.csv"},
		{name: "file uri with localhost", uri: "file://localhost/tmp/data.csv", want: "/tmp/data.csv"},
		{name: "file uri with host", uri: "file://tmp/data.csv", want: "tmp/data.csv"},
		{name: "escaped path", uri: "file:///tmp/my%20data.csv", want: "/tmp/my data.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.uri)
			require.NoError(t, err)
			assert.Equal(t, tt.want, uriFilePath(u))
		})
	}
}

func TestURICopy(t *testing.T) {
	assert.Nil(t, uriCopy(nil))

	u := &url.URL{
		Scheme:   "https",
		User:     url.UserPassword("user", "pass"),
		Host:     "example.com",
		Path:     "/path/to/resource",
		RawQuery: "param=value",
	}
	c := uriCopy(u)
	assert.Equal(t, u.String(), c.String())

	u.Scheme = "changed"
	assert.Equal(t, "https", c.Scheme)
	assert.NotSame(t, u.User, c.User)
}

func TestURICutParam(t *testing.T) {
	tests := []struct {
		name      string
		uri       string
		param     string
		wantURI   string
		wantValue string
	}{
		{
			name:    "no query",
			uri:     "https://example.com/a.csv",
			param:   "checksum",
			wantURI: "https://example.com/a.csv",
		},
		{
			name:    "param missing",
			uri:     "https://example.com/a.csv?x=1",
			param:   "checksum",
			wantURI: "https://example.com/a.csv?x=1",
		},
		{
			name:      "only param",
			uri:       "https://example.com/a.csv?checksum=0x01",
			param:     "checksum",
			wantURI:   "https://example.com/a.csv",
			wantValue: "0x01",
		},
		{
			name:      "param among others",
			uri:       "https://example.com/a.csv?b=2&checksum=0x01&a=1",
			param:     "checksum",
			wantURI:   "https://example.com/a.csv?a=1&b=2",
			wantValue: "0x01",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.uri)
			require.NoError(t, err)
			got, v := uriCutParam(u, tt.param)
			assert.Equal(t, tt.wantURI, got.String())
			assert.Equal(t, tt.wantValue, v)
			assert.Equal(t, tt.uri, u.String())
		})
	}
}

func TestIsRemoteScheme(t *testing.T) {
	assert.True(t, isRemoteScheme("http"))
	assert.True(t, isRemoteScheme("HTTPS"))
	assert.False(t, isRemoteScheme("ftp"))
	assert.False(t, isRemoteScheme("file"))
	assert.False(t, isRemoteScheme(""))
}
