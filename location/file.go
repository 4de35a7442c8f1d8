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
	"os"

	"github.com/chronicleprotocol/comma/errutil"
)

type FileOption func(*fileFetcher)

// WithFileReadLimit sets the maximum size of a file. Larger files fail with
// ErrReadLimit. The default limit is DefaultReadLimit.
func WithFileReadLimit(n int64) FileOption {
	return func(f *fileFetcher) {
		f.readLimit = n
	}
}

// NewFileFetcher creates a fetcher that reads Local locations from the local
// filesystem.
func NewFileFetcher(opts ...FileOption) Fetcher {
	f := &fileFetcher{readLimit: DefaultReadLimit, open: openFile}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type fileFetcher struct {
	readLimit int64
	open      func(name string) (fs.File, error)
}

func openFile(name string) (fs.File, error) {
	return os.Open(name)
}

// Fetch implements the Fetcher interface.
func (f *fileFetcher) Fetch(ctx context.Context, loc Location) (c *Content, err error) {
	if loc.Kind != Local || loc.Path == "" {
		return nil, errUnexpectedKindFn("fileFetcher", loc.Kind)
	}
	if err := ctx.Err(); err != nil {
		return nil, errFileFetcherFn(err)
	}
	file, err := f.open(loc.Path)
	if err != nil {
		return nil, errFileFetcherFn(err)
	}
	defer func() {
		errutil.Close(&err, file)
		if err != nil {
			c = nil
		}
	}()
	info, err := file.Stat()
	if err != nil {
		return nil, errFileFetcherFn(err)
	}
	if info.IsDir() {
		return nil, errFileFetcherFn(&fs.PathError{Op: "read", Path: loc.Path, Err: errIsDirectory})
	}
	if info.Size() > f.readLimit {
		return nil, errFileFetcherFn(&fs.PathError{Op: "read", Path: loc.Path, Err: ErrReadLimit})
	}
	data, err := io.ReadAll(io.LimitReader(file, f.readLimit+1))
	if err != nil {
		return nil, errFileFetcherFn(err)
	}
	if int64(len(data)) > f.readLimit {
		return nil, errFileFetcherFn(&fs.PathError{Op: "read", Path: loc.Path, Err: ErrReadLimit})
	}
	return &Content{Name: loc.Raw, Data: data}, nil
}

var errIsDirectory = errors.New("is a directory")

func errFileFetcherFn(err error) error {
	return fmt.Errorf("location.fileFetcher: %w", err)
}
