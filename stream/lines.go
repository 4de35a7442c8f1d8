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
	"bufio"
	"errors"
	"io"
	"iter"
	"strings"
	"unicode/utf8"
)

// DefaultCommentChars are the characters that start a comment line.
const DefaultCommentChars = "#;"

// Lines returns an iterator over the lines of r that are neither blank nor
// comments. A comment line starts with one of the chars, ignoring leading
// whitespace. Lines are yielded with their line terminator.
//
// The iterator stops after yielding the first read error.
func Lines(r io.Reader, chars string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		br := bufio.NewReader(r)
		for {
			line, err := readLine(br)
			if line != "" && !skipLine(line, chars) {
				if !yield(line, nil) {
					return
				}
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", err)
				return
			}
		}
	}
}

// readLine reads a line terminated by "\n", "\r\n" or a lone "\r".
func readLine(br *bufio.Reader) (string, error) {
	var b strings.Builder
	for {
		c, err := br.ReadByte()
		if err != nil {
			return b.String(), err
		}
		b.WriteByte(c)
		switch c {
		case '\n':
			return b.String(), nil
		case '\r':
			next, err := br.Peek(1)
			if err == nil && next[0] == '\n' {
				_, _ = br.ReadByte()
				b.WriteByte('\n')
			}
			return b.String(), nil
		}
	}
}

// skipLine reports whether the line is blank or a comment.
func skipLine(line, chars string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(trimmed)
	return strings.ContainsRune(chars, r)
}
