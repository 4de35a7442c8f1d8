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

// Package archive transparently unwraps data that was compressed into an
// archive with a single unambiguous member.
//
// Archive formats are provided through the Format interface. The package
// provides the ZIP and gzip formats. The Unwrapper detects whether a stream
// is an archive of one of the configured formats and, if so, extracts the
// member that holds the data:
//
//   - if the archive has exactly one member, that member is extracted,
//     regardless of its name,
//   - if the archive has more members, but exactly one of them has a CSV-like
//     extension, that member is extracted,
//   - an archive without members is an error (ErrEmpty),
//   - any other archive is ambiguous (*AmbiguousError).
package archive

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/chronicleprotocol/comma/sliceutil"
)

// DefaultExtensions lists the default CSV-like member extensions.
var DefaultExtensions = []string{".csv"}

// Format is an archive format.
type Format interface {
	// Name returns the name of the format.
	Name() string

	// Match reports whether the sample, a prefix of the data, looks like an
	// archive of this format.
	Match(sample []byte) bool

	// Open opens the archive stored in r.
	Open(r io.ReaderAt, size int64) (Archive, error)
}

// Archive is an opened archive.
type Archive interface {
	// Members returns the names of the files stored in the archive, in the
	// order in which they are stored. Directories are not members.
	Members() []string

	// Open opens the named member for reading.
	Open(name string) (io.ReadCloser, error)

	// Close releases the resources held by the archive.
	Close() error
}

// DirectoryLister is implemented by archives that store directory entries
// alongside their members.
type DirectoryLister interface {
	// Directories returns the names of the directory entries, in the order
	// in which they are stored.
	Directories() []string
}

var (
	// ErrEmpty is returned when an archive has no members.
	ErrEmpty = errors.New("archive: empty or corrupt archive")

	// ErrReadLimit is returned when an extracted member exceeds the read
	// limit.
	ErrReadLimit = errors.New("archive: read limit exceeded")

	// ErrMemberNotFound is returned when a member does not exist.
	ErrMemberNotFound = errors.New("archive: member not found")
)

// AmbiguousError is returned when an archive has multiple members and the
// member holding the data cannot be determined.
type AmbiguousError struct {
	Members     []string // All members of the archive.
	Candidates  []string // Members with a CSV-like extension.
	Directories []string // Directory entries, which are never selected.
}

// Error implements the error interface.
func (e *AmbiguousError) Error() string {
	msg := fmt.Sprintf(
		"archive: ambiguous archive contents, %d candidates among %d files: [%s]",
		len(e.Candidates),
		len(e.Members),
		strings.Join(e.Members, ", "),
	)
	if len(e.Directories) > 0 {
		msg += fmt.Sprintf(", skipped directories: [%s]", strings.Join(e.Directories, ", "))
	}
	return msg
}

// Select picks the member that holds the data.
//
// The exts slice lists the CSV-like extensions, including the leading dot.
// Extensions are compared case-insensitively.
func Select(members []string, exts []string) (string, error) {
	switch len(members) {
	case 0:
		return "", ErrEmpty
	case 1:
		return members[0], nil
	}
	candidates := sliceutil.Filter(members, func(name string) bool {
		return HasExtension(name, exts)
	})
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	return "", &AmbiguousError{
		Members:    sliceutil.Copy(members),
		Candidates: candidates,
	}
}

// HasExtension reports whether the name of the member ends with one of the
// given extensions. The comparison is case-insensitive. Leading dots of the
// base name are not an extension, so ".csv" has no extension.
func HasExtension(name string, exts []string) bool {
	base := strings.TrimLeft(path.Base(strings.ReplaceAll(name, `\`, "/")), ".")
	ext := strings.ToLower(path.Ext(base))
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// normalizeExtensions lowercases extensions and adds the leading dot.
func normalizeExtensions(exts []string) []string {
	var out []string
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = sliceutil.AppendUnique(out, e)
	}
	return out
}

// isMIME reports whether the sample is detected as the given MIME type or as
// one of its descendants, e.g. an XLSX file is also a ZIP archive.
func isMIME(sample []byte, mime string) bool {
	for m := mimetype.Detect(sample); m != nil; m = m.Parent() {
		if m.Is(mime) {
			return true
		}
	}
	return false
}
