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

package archive

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// gzipMemberName is used when the gzip header does not store the original
// file name.
const gzipMemberName = "data"

type gzipFormat struct{}

// Gzip returns the gzip format. A gzip stream is treated as an archive
// with a single member named after the original file name stored in the
// header. Concatenated gzip members are read as one stream.
func Gzip() Format { return gzipFormat{} }

// Name implements the Format interface.
func (gzipFormat) Name() string { return "gzip" }

// Match implements the Format interface.
func (gzipFormat) Match(sample []byte) bool {
	return bytes.HasPrefix(sample, []byte{0x1f, 0x8b}) || isMIME(sample, "application/gzip")
}

// Open implements the Format interface.
func (gzipFormat) Open(r io.ReaderAt, size int64) (Archive, error) {
	zr, err := gzip.NewReader(io.NewSectionReader(r, 0, size))
	if err != nil {
		return nil, fmt.Errorf("archive.gzip: %w", err)
	}
	name := path.Base(strings.ReplaceAll(zr.Name, `\`, "/"))
	if zr.Name == "" || name == "." || name == "/" {
		name = gzipMemberName
	}
	return &gzipArchive{r: r, size: size, name: name, zr: zr}, nil
}

type gzipArchive struct {
	r    io.ReaderAt
	size int64
	name string
	zr   *gzip.Reader
}

// Members implements the Archive interface.
func (a *gzipArchive) Members() []string {
	return []string{a.name}
}

// Open implements the Archive interface.
func (a *gzipArchive) Open(name string) (io.ReadCloser, error) {
	if name != a.name {
		return nil, fmt.Errorf("archive.gzip: %w: %s", ErrMemberNotFound, name)
	}
	zr, err := gzip.NewReader(io.NewSectionReader(a.r, 0, a.size))
	if err != nil {
		return nil, fmt.Errorf("archive.gzip: %w", err)
	}
	return zr, nil
}

// Close implements the Archive interface.
func (a *gzipArchive) Close() error {
	return a.zr.Close()
}
