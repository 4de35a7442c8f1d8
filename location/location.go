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

// Package location decides whether a string denotes a local file or a remote
// resource and fetches the bytes it points to.
//
// The Classifier implements the detection rules. Once a string has been
// classified, a Fetcher reads the content of the resulting Location. Fetchers
// can be combined: the Mux routes a location to the fetcher registered for its
// kind, while the retry and checksum fetchers wrap another fetcher to add
// retries and integrity verification.
//
// Example:
//
//	client := location.NewHTTPClient()
//	classifier := location.NewClassifier(location.WithHTTPClient(client))
//	fetcher := location.NewMux(map[location.Kind]location.Fetcher{
//		location.Local:  location.NewFileFetcher(),
//		location.Remote: location.NewChecksumFetcher(location.NewHTTPFetcher(client)),
//	})
//
//	loc, err := classifier.Classify(ctx, "https://example.com/data.csv", false)
//	if err != nil {
//		log.Fatal(err)
//	}
//	content, err := fetcher.Fetch(ctx, loc)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Println(len(content.Data))
package location

import (
	"context"
	"errors"
	"fmt"
	netURL "net/url"
)

const (
	// SchemeFile is the URI scheme of local files.
	SchemeFile = "file"

	// DefaultReadLimit is the default maximum number of bytes read from a
	// single location.
	DefaultReadLimit = 1024 * 1024 * 512 // 512MiB
)

// Schemes lists the URI schemes accepted for remote locations.
var Schemes = []string{"http", "https"}

// Kind is the kind of location a string denotes.
type Kind int

const (
	// Unknown means that the string is neither an existing local file nor a
	// remote resource.
	Unknown Kind = iota

	// Local is an existing path on the local filesystem.
	Local

	// Remote is a URL of a remote resource.
	Remote
)

// String implements the fmt.Stringer interface.
func (k Kind) String() string {
	switch k {
	case Local:
		return "local"
	case Remote:
		return "remote"
	default:
		return "unknown"
	}
}

// Location is a classified location string.
type Location struct {
	Kind Kind
	Raw  string      // The string as given by the caller.
	Path string      // Absolute path, set for Local locations.
	URL  *netURL.URL // Parsed URL, set for Remote locations.
}

// String implements the fmt.Stringer interface.
func (l Location) String() string {
	return l.Raw
}

// Content is the content fetched from a location.
type Content struct {
	// Name is a display name of the content, usually the location string.
	Name string

	// Data is the raw content.
	Data []byte

	// Charset is the character encoding declared by the origin, if any.
	Charset string
}

// Fetcher reads the content of a classified location.
type Fetcher interface {
	Fetch(ctx context.Context, loc Location) (*Content, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, loc Location) (*Content, error)

// Fetch implements the Fetcher interface.
func (f FetcherFunc) Fetch(ctx context.Context, loc Location) (*Content, error) {
	return f(ctx, loc)
}

var (
	// ErrUnsupportedScheme is returned when a URL uses a scheme outside of
	// Schemes.
	ErrUnsupportedScheme = errors.New("location: unsupported scheme")

	// ErrConnectionFailed is returned when a remote resource could not be
	// reached.
	ErrConnectionFailed = errors.New("location: connection failed")

	// ErrReadLimit is returned when the content of a location exceeds the
	// read limit.
	ErrReadLimit = errors.New("location: read limit exceeded")

	// ErrChecksumMismatch is returned when fetched content does not match
	// the checksum pinned in its URL.
	ErrChecksumMismatch = errors.New("location: checksum mismatch")
)

func errUnexpectedKindFn(fetcher string, kind Kind) error {
	return fmt.Errorf("location.%s: unexpected location kind: %s", fetcher, kind)
}
