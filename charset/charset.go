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

// Package charset detects the text encoding of raw bytes and decodes them
// to UTF-8.
package charset

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	htmlcharset "golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Default is the encoding assumed when nothing better is known.
const Default = "utf-8"

// ErrUnknownEncoding is returned when an encoding name cannot be resolved.
var ErrUnknownEncoding = errors.New("charset: unknown encoding")

// Sniffer guesses the text encoding of a byte sample.
//
// Detect must always return a usable encoding name, also for empty samples.
type Sniffer interface {
	Detect(sample []byte) string
}

// SnifferFunc adapts a function to the Sniffer interface.
type SnifferFunc func(sample []byte) string

// Detect implements the Sniffer interface.
func (f SnifferFunc) Detect(sample []byte) string { return f(sample) }

// NewSniffer returns the default Sniffer.
//
// A byte order mark decides the encoding. Otherwise, a sample that is valid
// UTF-8 is reported as "utf-8". Anything else is delegated to the HTML
// encoding sniffing algorithm, which falls back to "windows-1252".
func NewSniffer() Sniffer {
	return SnifferFunc(Detect)
}

// Detect guesses the encoding of the sample using the default Sniffer rules.
func Detect(sample []byte) string {
	if len(sample) == 0 {
		return Default
	}
	_, name, certain := htmlcharset.DetermineEncoding(sample, "")
	if certain {
		return name
	}
	if utf8.Valid(trimPartialRune(sample)) {
		return Default
	}
	if name == "" {
		return Default
	}
	return name
}

// Lookup returns the encoding registered under the given name together with
// its canonical name. Names are case-insensitive and follow the WHATWG
// encoding labels, e.g. "latin1", "utf-16le" or "shift_jis".
func Lookup(name string) (encoding.Encoding, string, error) {
	e, err := htmlindex.Get(strings.TrimSpace(name))
	if err != nil {
		return nil, "", errUnknownEncodingFn(name)
	}
	canonical, err := htmlindex.Name(e)
	if err != nil {
		canonical = strings.ToLower(strings.TrimSpace(name))
	}
	return e, canonical, nil
}

// Decode decodes data from the named encoding to UTF-8.
//
// A leading byte order mark is consumed and takes precedence over the given
// encoding. Invalid byte sequences are replaced by the Unicode replacement
// character.
func Decode(data []byte, name string) (string, error) {
	e, _, err := Lookup(name)
	if err != nil {
		return "", err
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(e.NewDecoder()), data)
	if err != nil {
		return "", errDecodeFn(name, err)
	}
	return string(out), nil
}

// trimPartialRune removes an incomplete UTF-8 sequence from the end of b,
// which is expected when b is a prefix of a larger input.
func trimPartialRune(b []byte) []byte {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if !utf8.FullRune(b[i:]) {
			return b[:i]
		}
		break
	}
	return b
}

func errUnknownEncodingFn(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
}

func errDecodeFn(name string, err error) error {
	return fmt.Errorf("charset.Decode: %s: %w", name, err)
}
