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

package stream

import (
	"io"
	"strings"
)

// Source describes where the data of a stream comes from. It is one of
// Text, Bytes, Location or Reader.
type Source interface {
	isSource()
}

// Text is inline text. It is used as is; it is never interpreted as a path
// or a URL.
type Text string

// Bytes is inline binary data. It may be an archive and is decoded using
// the pinned or detected encoding.
type Bytes []byte

// Location is a local path, a "file" URI or a remote URL.
type Location string

// Reader is an already open stream.
//
// If Text is true, the content is assumed to be UTF-8 text and is neither
// unwrapped nor decoded. If R implements io.Seeker, it is read from the
// beginning; otherwise it is read from its current position.
type Reader struct {
	R    io.Reader
	Text bool
}

func (Text) isSource()     {}
func (Bytes) isSource()    {}
func (Location) isSource() {}
func (Reader) isSource()   {}

// Of converts a loosely typed value to a Source:
//
//   - a string containing a newline is Text, any other string is a Location,
//   - a byte slice is Bytes,
//   - an io.Reader is a binary Reader,
//   - a Source is returned as is.
//
// Nil and values of other types yield nil, which never resolves.
func Of(v any) Source {
	switch v := v.(type) {
	case nil:
		return nil
	case Source:
		return v
	case string:
		if strings.Contains(v, "\n") {
			return Text(v)
		}
		return Location(v)
	case []byte:
		return Bytes(v)
	case io.Reader:
		return Reader{R: v}
	default:
		return nil
	}
}
