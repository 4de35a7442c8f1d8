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
	"strings"

	"github.com/klauspost/compress/zip"
)

type zipFormat struct{}

// Zip returns the ZIP archive format.
func Zip() Format { return zipFormat{} }

// Name implements the Format interface.
func (zipFormat) Name() string { return "zip" }

// Match implements the Format interface.
func (zipFormat) Match(sample []byte) bool {
	for _, sig := range zipSignatures {
		if bytes.HasPrefix(sample, sig) {
			return true
		}
	}
	return isMIME(sample, "application/zip")
}

// zipSignatures are the local file header, the end of central directory
// record of an empty archive and the spanned archive marker.
var zipSignatures = [][]byte{
	[]byte("PK\x03\x04"),
	[]byte("PK\x05\x06"),
	[]byte("PK\x07\x08"),
}

// Open implements the Format interface.
func (zipFormat) Open(r io.ReaderAt, size int64) (Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("archive.zip: %w", err)
	}
	return &zipArchive{r: zr}, nil
}

type zipArchive struct {
	r *zip.Reader
}

// Members implements the Archive interface.
func (a *zipArchive) Members() []string {
	var names []string
	for _, f := range a.r.File {
		if isZipDir(f) {
			continue
		}
		names = append(names, f.Name)
	}
	return names
}

// Directories implements the DirectoryLister interface.
func (a *zipArchive) Directories() []string {
	var names []string
	for _, f := range a.r.File {
		if isZipDir(f) {
			names = append(names, f.Name)
		}
	}
	return names
}

// Open implements the Archive interface.
func (a *zipArchive) Open(name string) (io.ReadCloser, error) {
	for _, f := range a.r.File {
		if f.Name == name && !isZipDir(f) {
			return f.Open()
		}
	}
	return nil, fmt.Errorf("archive.zip: %w: %s", ErrMemberNotFound, name)
}

// Close implements the Archive interface.
func (a *zipArchive) Close() error { return nil }

func isZipDir(f *zip.File) bool {
	return strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir()
}
