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
	"log/slog"
	"strings"

	"github.com/chronicleprotocol/comma/errutil"
)

const (
	// DefaultReadLimit is the default maximum size of an extracted member.
	DefaultReadLimit = 1024 * 1024 * 512 // 512MiB

	// sniffLen is the number of bytes used to detect the archive format.
	sniffLen = 3072
)

type UnwrapperOption func(*Unwrapper)

// WithFormats sets the recognized archive formats. The formats are tried in
// the given order. By default, ZIP and gzip are recognized.
func WithFormats(formats ...Format) UnwrapperOption {
	return func(u *Unwrapper) {
		u.formats = formats
	}
}

// WithExtensions sets the CSV-like extensions used to pick a member from an
// archive with multiple members. A missing leading dot is added.
func WithExtensions(exts ...string) UnwrapperOption {
	return func(u *Unwrapper) {
		u.exts = normalizeExtensions(exts)
	}
}

// WithReadLimit sets the maximum size of an extracted member.
func WithReadLimit(n int64) UnwrapperOption {
	return func(u *Unwrapper) {
		u.readLimit = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) UnwrapperOption {
	return func(u *Unwrapper) {
		u.logger = logger
	}
}

// Unwrapper detects archives and extracts the member holding the data.
type Unwrapper struct {
	formats   []Format
	exts      []string
	readLimit int64
	logger    *slog.Logger
}

// NewUnwrapper creates a new Unwrapper.
func NewUnwrapper(opts ...UnwrapperOption) *Unwrapper {
	u := &Unwrapper{
		formats:   []Format{Zip(), Gzip()},
		exts:      DefaultExtensions,
		readLimit: DefaultReadLimit,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Unwrap returns a stream with the content of the archive member that holds
// the data. If rs is not an archive, or its container cannot be opened, rs is
// returned rewound to the beginning.
func (u *Unwrapper) Unwrap(rs io.ReadSeeker) (io.ReadSeeker, error) {
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, errUnwrapperFn(err)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, errUnwrapperFn(err)
	}
	sample := make([]byte, min(size, sniffLen))
	if _, err := io.ReadFull(rs, sample); err != nil {
		return nil, errUnwrapperFn(err)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, errUnwrapperFn(err)
	}
	format := u.match(sample)
	if format == nil {
		return rs, nil
	}
	ra, err := readerAt(rs)
	if err != nil {
		return nil, errUnwrapperFn(err)
	}
	a, err := format.Open(ra, size)
	if err != nil {
		u.logger.Debug(
			"Content looks like an archive but cannot be opened",
			"format", format.Name(),
			"error", err,
		)
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return nil, errUnwrapperFn(err)
		}
		return rs, nil
	}
	data, err := u.extract(format, a)
	if err != nil {
		return nil, errUnwrapperFn(err)
	}
	return bytes.NewReader(data), nil
}

func (u *Unwrapper) match(sample []byte) Format {
	for _, f := range u.formats {
		if f.Match(sample) {
			return f
		}
	}
	return nil
}

func (u *Unwrapper) extract(format Format, a Archive) (data []byte, err error) {
	defer errutil.Close(&err, a)
	members := a.Members()
	name, err := Select(members, u.exts)
	if err != nil {
		return nil, withDirectories(err, a)
	}
	u.logger.Debug(
		"Extracting archive member",
		"format", format.Name(),
		"member", name,
		"members", len(members),
	)
	rc, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	defer errutil.Close(&err, rc)
	data, err = io.ReadAll(io.LimitReader(rc, u.readLimit+1))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if int64(len(data)) > u.readLimit {
		return nil, fmt.Errorf("%w: %s", ErrReadLimit, name)
	}
	return data, nil
}

// withDirectories adds the directory entries of the archive to a member
// selection error.
func withDirectories(err error, a Archive) error {
	dl, ok := a.(DirectoryLister)
	if !ok {
		return err
	}
	dirs := dl.Directories()
	if len(dirs) == 0 {
		return err
	}
	if aErr, ok := errutil.As[*AmbiguousError](err); ok {
		aErr.Directories = dirs
		return aErr
	}
	return fmt.Errorf("%w: skipped directories: [%s]", err, strings.Join(dirs, ", "))
}

// readerAt returns rs as an io.ReaderAt, reading it into memory if it does
// not implement the interface.
func readerAt(rs io.ReadSeeker) (io.ReaderAt, error) {
	if ra, ok := rs.(io.ReaderAt); ok {
		return ra, nil
	}
	data, err := io.ReadAll(rs)
	if err != nil {
		return nil, err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

func errUnwrapperFn(err error) error {
	return fmt.Errorf("archive.Unwrapper: %w", err)
}
