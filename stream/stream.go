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
	"unicode/utf8"
)

// DefaultSampleSize is the default size of the sample used to detect the
// encoding and the line terminator. It is counted in bytes for binary
// content and in runes for text.
const DefaultSampleSize = 10000

// Stream is a seekable, in-memory stream of decoded UTF-8 text.
//
// A Stream is not safe for concurrent use.
type Stream struct {
	r        *strings.Reader
	text     string
	name     string
	encoding string
	newline  string
	sample   string
}

var (
	_ io.Reader         = (*Stream)(nil)
	_ io.ReaderAt       = (*Stream)(nil)
	_ io.Seeker         = (*Stream)(nil)
	_ io.RuneScanner    = (*Stream)(nil)
	_ io.ByteScanner    = (*Stream)(nil)
	_ io.WriterTo       = (*Stream)(nil)
	_ io.ReadSeekCloser = (*Stream)(nil)
)

func newStream(text, name, encoding, newline string, sampleSize int) *Stream {
	return &Stream{
		r:        strings.NewReader(text),
		text:     text,
		name:     name,
		encoding: encoding,
		newline:  newline,
		sample:   sampleRunes(text, sampleSize),
	}
}

// Read implements the io.Reader interface.
func (s *Stream) Read(p []byte) (int, error) { return s.r.Read(p) }

// ReadAt implements the io.ReaderAt interface.
func (s *Stream) ReadAt(p []byte, off int64) (int, error) { return s.r.ReadAt(p, off) }

// Seek implements the io.Seeker interface.
func (s *Stream) Seek(offset int64, whence int) (int64, error) { return s.r.Seek(offset, whence) }

// ReadRune implements the io.RuneReader interface.
func (s *Stream) ReadRune() (rune, int, error) { return s.r.ReadRune() }

// UnreadRune implements the io.RuneScanner interface.
func (s *Stream) UnreadRune() error { return s.r.UnreadRune() }

// ReadByte implements the io.ByteReader interface.
func (s *Stream) ReadByte() (byte, error) { return s.r.ReadByte() }

// UnreadByte implements the io.ByteScanner interface.
func (s *Stream) UnreadByte() error { return s.r.UnreadByte() }

// WriteTo implements the io.WriterTo interface.
func (s *Stream) WriteTo(w io.Writer) (int64, error) { return s.r.WriteTo(w) }

// Close implements the io.Closer interface. The stream holds no external
// resources, so Close only exists to let the stream replace a file.
func (s *Stream) Close() error { return nil }

// Name returns the path or URL the stream was read from, or the name of the
// file it was read from. It is empty for inline data.
func (s *Stream) Name() string { return s.name }

// Encoding returns the canonical name of the encoding the content was
// decoded from. It is "utf-8" for text sources.
func (s *Stream) Encoding() string { return s.encoding }

// Newline returns the newline convention of inline text: "\r\n" if the text
// contains it, "\n" otherwise. For other sources it is empty, meaning the
// convention was not fixed and LineTerminator should be used.
func (s *Stream) Newline() string { return s.newline }

// LineTerminator detects the dominant line terminator of the sample.
func (s *Stream) LineTerminator() string {
	if s.newline != "" {
		return s.newline
	}
	return DetectLineTerminator(s.sample, "")
}

// Sample returns the prefix of the text used for detection.
func (s *Stream) Sample() string { return s.sample }

// Len returns the number of unread bytes.
func (s *Stream) Len() int { return s.r.Len() }

// Size returns the size of the decoded text in bytes.
func (s *Stream) Size() int64 { return s.r.Size() }

// String returns the whole decoded text, regardless of the read position.
func (s *Stream) String() string { return s.text }

// sampleRunes returns at most n runes from the beginning of s.
func sampleRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	i := 0
	for c := 0; c < n && i < len(s); c++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i]
}
