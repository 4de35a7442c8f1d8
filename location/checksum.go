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
	"fmt"
	"hash"

	"github.com/defiweb/go-eth/types"
	"golang.org/x/crypto/sha3"
)

// DefaultChecksumParam is the default name of the URL query parameter that
// carries the expected checksum.
const DefaultChecksumParam = "checksum"

type ChecksumOption func(*checksumFetcher)

// WithChecksumParam sets the name of the URL query parameter that contains
// the checksum value. The default parameter name is "checksum".
func WithChecksumParam(name string) ChecksumOption {
	return func(c *checksumFetcher) {
		c.param = name
	}
}

// WithChecksumHash sets the hash function used to compute the checksum. The
// hash must produce 32 bytes. The default hash function is LegacyKeccak256.
func WithChecksumHash(hash func() hash.Hash) ChecksumOption {
	return func(c *checksumFetcher) {
		c.hash = hash
	}
}

// NewChecksumFetcher wraps the given fetcher to verify the integrity of
// remote content.
//
// The expected checksum is given as a hex-encoded query parameter of the
// URL, e.g. "https://example.com/data.csv?checksum=0x1234...". The parameter
// is removed from the URL before the content is fetched. If the checksum of
// the fetched content does not match, ErrChecksumMismatch is returned.
//
// Locations without a valid checksum parameter are fetched unchanged.
func NewChecksumFetcher(f Fetcher, opts ...ChecksumOption) Fetcher {
	c := &checksumFetcher{f: f}
	for _, opt := range opts {
		opt(c)
	}
	if c.param == "" {
		c.param = DefaultChecksumParam
	}
	if c.hash == nil {
		c.hash = sha3.NewLegacyKeccak256
	}
	return c
}

type checksumFetcher struct {
	f     Fetcher
	hash  func() hash.Hash
	param string
}

// Fetch implements the Fetcher interface.
func (c *checksumFetcher) Fetch(ctx context.Context, loc Location) (*Content, error) {
	url, v := uriCutParam(loc.URL, c.param)
	if v == "" {
		return c.f.Fetch(ctx, loc)
	}
	want, err := types.HashFromHex(v, types.PadNone)
	if err != nil {
		return c.f.Fetch(ctx, loc)
	}
	loc.URL = url
	content, err := c.f.Fetch(ctx, loc)
	if err != nil {
		return nil, err
	}
	got, err := c.checksum(content.Data)
	if err != nil {
		return nil, errChecksumFetcherFn(err)
	}
	if got != want {
		return nil, errChecksumMismatchFn(loc.Raw, want, got)
	}
	return content, nil
}

func (c *checksumFetcher) checksum(data []byte) (types.Hash, error) {
	h := c.hash()
	h.Write(data)
	sum := h.Sum(nil)
	if len(sum) != len(types.Hash{}) {
		return types.ZeroHash, fmt.Errorf("unsupported hash size: %d", len(sum))
	}
	return types.Hash(sum), nil
}

func errChecksumFetcherFn(err error) error {
	return fmt.Errorf("location.checksumFetcher: %w", err)
}

func errChecksumMismatchFn(name string, want, got types.Hash) error {
	return fmt.Errorf("location.checksumFetcher: %s: %w: want %s, got %s", name, ErrChecksumMismatch, want.String(), got.String())
}
