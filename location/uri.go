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
	netURL "net/url"
	"strings"

	"github.com/chronicleprotocol/comma/sliceutil"
)

// parseURI parses s as a URI. Strings that cannot be parsed are reported
// as not being a URI rather than as an error, since most of them are plain
// paths or inline data.
func parseURI(s string) (*netURL.URL, bool) {
	if s == "" {
		return nil, false
	}
	u, err := netURL.Parse(s)
	if err != nil {
		return nil, false
	}
	return u, true
}

// uriFilePath reconstructs a filesystem path from the host and path parts of
// a file URI. The "localhost" host denotes the local machine and is dropped.
func uriFilePath(uri *netURL.URL) string {
	host := uri.Host
	if strings.EqualFold(host, "localhost") {
		host = ""
	}
	return host + uri.Path
}

// uriCopy creates a deep copy of the given URL.
// Returns nil if the input URL is nil.
func uriCopy(uri *netURL.URL) *netURL.URL {
	if uri == nil {
		return nil
	}
	c := *uri
	if uri.User != nil {
		u := *uri.User
		c.User = &u
	}
	return &c
}

// uriCutParam returns a copy of the URL without the named query parameter
// and the parameter value. If the parameter is not present, the original
// URL and an empty string are returned.
func uriCutParam(uri *netURL.URL, name string) (*netURL.URL, string) {
	if uri == nil || uri.RawQuery == "" {
		return uri, ""
	}
	q, err := netURL.ParseQuery(uri.RawQuery)
	if err != nil || !q.Has(name) {
		return uri, ""
	}
	v := q.Get(name)
	q.Del(name)
	c := uriCopy(uri)
	c.RawQuery = q.Encode()
	c.ForceQuery = false
	return c, v
}

// isRemoteScheme reports whether scheme is one of the accepted remote
// schemes.
func isRemoteScheme(scheme string) bool {
	return sliceutil.Contains(Schemes, strings.ToLower(scheme))
}
