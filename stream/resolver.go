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
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/chronicleprotocol/comma/archive"
	"github.com/chronicleprotocol/comma/charset"
	"github.com/chronicleprotocol/comma/location"
)

// DefaultReadLimit is the default maximum number of bytes read from a
// source.
const DefaultReadLimit = location.DefaultReadLimit

// ErrReadLimit is returned when an open stream exceeds the read limit.
var ErrReadLimit = errors.New("stream: read limit exceeded")

// Unwrapper extracts the data from archived content. Content that is not an
// archive must be returned unchanged.
type Unwrapper interface {
	Unwrap(rs io.ReadSeeker) (io.ReadSeeker, error)
}

type Option func(*Resolver)

// WithEncoding pins the encoding of binary content, disabling detection.
// The encoding declared by a remote server is ignored.
func WithEncoding(name string) Option {
	return func(r *Resolver) {
		r.encoding = name
	}
}

// WithNoRequest disables network access. Strings that are not existing
// local paths are not resolved.
func WithNoRequest() Option {
	return func(r *Resolver) {
		r.noRequest = true
	}
}

// WithClassifier sets the location classifier.
func WithClassifier(c *location.Classifier) Option {
	return func(r *Resolver) {
		r.classifier = c
	}
}

// WithFetcher sets the fetcher used to read classified locations. It must
// handle both local and remote locations.
func WithFetcher(f location.Fetcher) Option {
	return func(r *Resolver) {
		r.fetcher = f
	}
}

// WithUnwrapper sets the archive unwrapper.
func WithUnwrapper(u Unwrapper) Option {
	return func(r *Resolver) {
		r.unwrapper = u
	}
}

// WithSniffer sets the encoding detector.
func WithSniffer(s charset.Sniffer) Option {
	return func(r *Resolver) {
		r.sniffer = s
	}
}

// WithSampleSize sets the size of the sample used for detection.
func WithSampleSize(n int) Option {
	return func(r *Resolver) {
		r.sampleSize = n
	}
}

// WithReadLimit sets the maximum number of bytes read from a source. It also
// applies to the default fetchers and unwrapper.
func WithReadLimit(n int64) Option {
	return func(r *Resolver) {
		r.readLimit = n
	}
}

// WithLogger sets the logger. It is also passed to the default classifier
// and unwrapper.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// Resolver turns a Source into a seekable stream of decoded text.
//
// A Resolver holds no mutable state and is safe for concurrent use as long
// as its collaborators are.
type Resolver struct {
	encoding   string
	noRequest  bool
	classifier *location.Classifier
	fetcher    location.Fetcher
	unwrapper  Unwrapper
	sniffer    charset.Sniffer
	sampleSize int
	readLimit  int64
	logger     *slog.Logger
}

// NewResolver creates a new Resolver.
//
// By default, local files are read from the filesystem and remote
// locations are fetched over HTTP. The URL is requested as given, checksum
// verification requires a fetcher created with location.NewChecksumFetcher.
// ZIP and gzip archives are unwrapped.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		sampleSize: DefaultSampleSize,
		readLimit:  DefaultReadLimit,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.classifier == nil || r.fetcher == nil {
		client := location.NewHTTPClient(location.WithReadLimit(r.readLimit))
		if r.classifier == nil {
			r.classifier = location.NewClassifier(
				location.WithHTTPClient(client),
				location.WithLogger(r.logger),
			)
		}
		if r.fetcher == nil {
			r.fetcher = location.NewMux(map[location.Kind]location.Fetcher{
				location.Local:  location.NewFileFetcher(location.WithFileReadLimit(r.readLimit)),
				location.Remote: location.NewHTTPFetcher(client),
			})
		}
	}
	if r.unwrapper == nil {
		r.unwrapper = archive.NewUnwrapper(
			archive.WithReadLimit(r.readLimit),
			archive.WithLogger(r.logger),
		)
	}
	if r.sniffer == nil {
		r.sniffer = charset.NewSniffer()
	}
	return r
}

// Open resolves src using a Resolver created with the given options.
func Open(ctx context.Context, src Source, opts ...Option) (*Stream, bool, error) {
	return NewResolver(opts...).Resolve(ctx, src)
}

// Resolve turns src into a stream positioned at the beginning.
//
// If src has no viable interpretation, false is returned without an error:
// the source is nil or empty, a string is neither an existing local path nor
// a reachable URL, or the server did not respond with success. An error is
// returned when the content cannot be used, e.g. when an archive is empty
// or ambiguous, or the pinned encoding is unknown.
func (r *Resolver) Resolve(ctx context.Context, src Source) (*Stream, bool, error) {
	var (
		data     []byte
		name     string
		encoding = r.encoding
		text     bool
	)
	switch s := src.(type) {
	case nil:
		return r.notResolved(ctx, "no source")
	case Text:
		if s == "" {
			return r.notResolved(ctx, "empty text")
		}
		newline := "\n"
		if strings.Contains(string(s), "\r\n") {
			newline = "\r\n"
		}
		return newStream(string(s), "", charset.Default, newline, r.sampleSize), true, nil
	case Location:
		if s == "" {
			return r.notResolved(ctx, "empty location")
		}
		content, ok, err := r.fetch(ctx, string(s))
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
		data, name = content.Data, string(s)
		if encoding == "" && content.Charset != "" {
			if _, canonical, err := charset.Lookup(content.Charset); err == nil {
				encoding = canonical
			} else {
				r.logger.DebugContext(ctx, "Ignoring unknown declared charset", "source", name, "charset", content.Charset)
			}
		}
	case Bytes:
		if len(s) == 0 {
			return r.notResolved(ctx, "empty bytes")
		}
		data = s
	case Reader:
		if s.R == nil {
			return r.notResolved(ctx, "nil reader")
		}
		b, err := r.readAll(s.R)
		if err != nil {
			return nil, false, errResolverFn(err)
		}
		data, name, text = b, readerName(s.R), s.Text
		if text {
			encoding = charset.Default
		}
	default:
		return r.notResolved(ctx, fmt.Sprintf("unsupported source %T", src))
	}
	if !text {
		rs, err := r.unwrapper.Unwrap(bytes.NewReader(data))
		if err != nil {
			return nil, false, errResolverFn(err)
		}
		if data, err = io.ReadAll(rs); err != nil {
			return nil, false, errResolverFn(err)
		}
		if encoding == "" {
			encoding = r.sniffer.Detect(data[:min(len(data), max(r.sampleSize, 0))])
			r.logger.DebugContext(ctx, "Encoding detected", "source", name, "encoding", encoding)
		}
	}
	_, canonical, err := charset.Lookup(encoding)
	if err != nil {
		return nil, false, errResolverFn(err)
	}
	decoded, err := charset.Decode(data, canonical)
	if err != nil {
		return nil, false, errResolverFn(err)
	}
	r.logger.DebugContext(
		ctx,
		"Source resolved",
		"source", name,
		"encoding", canonical,
		"size", len(decoded),
	)
	return newStream(decoded, name, canonical, "", r.sampleSize), true, nil
}

// fetch reads the content of the location s. It returns false if s is
// neither an existing local path nor an available URL.
func (r *Resolver) fetch(ctx context.Context, s string) (*location.Content, bool, error) {
	loc, err := r.classifier.Classify(ctx, s, r.noRequest)
	if err != nil {
		return nil, false, errResolverFn(err)
	}
	switch {
	case loc.Kind == location.Unknown:
		r.logger.DebugContext(ctx, "Location is neither a local path nor a URL", "source", s)
		return nil, false, nil
	case loc.Kind == location.Remote && r.noRequest:
		r.logger.DebugContext(ctx, "Requests are disabled", "source", s)
		return nil, false, nil
	}
	content, err := r.fetcher.Fetch(ctx, loc)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, errResolverFn(ctxErr)
		}
		if unavailable(loc.Kind, err) {
			r.logger.DebugContext(ctx, "Location is not available", "source", s, "kind", loc.Kind, "error", err)
			return nil, false, nil
		}
		return nil, false, errResolverFn(err)
	}
	return content, true, nil
}

// readAll reads rd from the beginning if it is seekable, or from its
// current position otherwise.
func (r *Resolver) readAll(rd io.Reader) ([]byte, error) {
	if s, ok := rd.(io.Seeker); ok {
		_, _ = s.Seek(0, io.SeekStart)
	}
	data, err := io.ReadAll(io.LimitReader(rd, r.readLimit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > r.readLimit {
		return nil, ErrReadLimit
	}
	return data, nil
}

func (r *Resolver) notResolved(ctx context.Context, reason string) (*Stream, bool, error) {
	r.logger.DebugContext(ctx, "Source not resolved", "reason", reason)
	return nil, false, nil
}

// unavailable reports whether err means that the location has no data,
// rather than that the data could not be used.
func unavailable(kind location.Kind, err error) bool {
	switch kind {
	case location.Local:
		return errors.Is(err, fs.ErrNotExist)
	case location.Remote:
		return location.IsUnavailable(err)
	}
	return false
}

// readerName returns the name of the file rd reads from, if any.
func readerName(rd io.Reader) string {
	if n, ok := rd.(interface{ Name() string }); ok {
		return n.Name()
	}
	return ""
}

func errResolverFn(err error) error {
	return fmt.Errorf("stream.Resolver: %w", err)
}
