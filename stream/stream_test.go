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
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOf(t *testing.T) {
	r := strings.NewReader("a,b\n")
	tc := []struct {
		name string
		v    any
		want Source
	}{
		{name: "nil", v: nil, want: nil},
		{name: "multi-line string", v: "a,b\n1,2", want: Text("a,b\n1,2")},
		{name: "single-line string", v: "data.csv", want: Location("data.csv")},
		{name: "url", v: "https://example.com/data.csv", want: Location("https://example.com/data.csv")},
		{name: "bytes", v: []byte("a,b"), want: Bytes("a,b")},
		{name: "reader", v: r, want: Reader{R: r}},
		{name: "source", v: Text("x"), want: Text("x")},
		{name: "unsupported", v: 42, want: nil},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Of(tt.v))
		})
	}
}

func TestStream(t *testing.T) {
	s := newStream("héllo\r\nwörld\r\n", "data.csv", "utf-8", "", 3)

	assert.Equal(t, "data.csv", s.Name())
	assert.Equal(t, "utf-8", s.Encoding())
	assert.Equal(t, "", s.Newline())
	assert.Equal(t, "hél", s.Sample())
	assert.Equal(t, int64(len("héllo\r\nwörld\r\n")), s.Size())
	assert.Equal(t, "héllo\r\nwörld\r\n", s.String())

	r, _, err := s.ReadRune()
	require.NoError(t, err)
	assert.Equal(t, 'h', r)
	r, _, err = s.ReadRune()
	require.NoError(t, err)
	assert.Equal(t, 'é', r)
	require.NoError(t, s.UnreadRune())
	assert.Equal(t, int(s.Size())-1, s.Len())

	pos, err := s.Seek(0, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)

	var buf bytes.Buffer
	_, err = s.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, s.String(), buf.String())
	assert.Equal(t, 0, s.Len())

	p := make([]byte, 5)
	n, err := s.ReadAt(p, 0)
	require.NoError(t, err)
	assert.Equal(t, "h\xc3\xa9ll", string(p[:n]))

	assert.NoError(t, s.Close())
}

func TestStreamLineTerminator(t *testing.T) {
	tc := []struct {
		name   string
		stream *Stream
		want   string
	}{
		{
			name:   "inline text keeps its newline",
			stream: newStream("a\r\nb\nc\n", "", "utf-8", "\r\n", DefaultSampleSize),
			want:   "\r\n",
		},
		{
			name:   "detected from sample",
			stream: newStream("a\r\nb\r\nc", "", "utf-8", "", DefaultSampleSize),
			want:   "\r\n",
		},
		{
			name:   "only the sample is inspected",
			stream: newStream("a\rb\nc\nd\n", "", "utf-8", "", 3),
			want:   "\r",
		},
		{
			name:   "default",
			stream: newStream("abc", "", "utf-8", "", DefaultSampleSize),
			want:   "\n",
		},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.stream.LineTerminator())
		})
	}
}

func TestSampleRunes(t *testing.T) {
	assert.Equal(t, "", sampleRunes("abc", 0))
	assert.Equal(t, "abc", sampleRunes("abc", 10))
	assert.Equal(t, "ab", sampleRunes("abc", 2))
	assert.Equal(t, "日本", sampleRunes("日本語", 2))
}
