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

package location

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultProbeTimeout is the default time limit of the request that checks
// whether a URL exists.
const DefaultProbeTimeout = 10 * time.Second

type ClassifierOption func(*Classifier)

// WithHTTPClient sets the client used to probe URLs. Without a client, URLs
// are checked only syntactically.
func WithHTTPClient(client HTTPClient) ClassifierOption {
	return func(c *Classifier) {
		c.client = client
	}
}

// WithProbeTimeout sets the time limit of the request that checks whether
// a URL exists. The default timeout is DefaultProbeTimeout.
func WithProbeTimeout(d time.Duration) ClassifierOption {
	return func(c *Classifier) {
		c.probeTimeout = d
	}
}

// WithHomeDir sets the function used to find the home directory when
// expanding "~" in paths. The default is os.UserHomeDir.
func WithHomeDir(home func() (string, error)) ClassifierOption {
	return func(c *Classifier) {
		c.home = home
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClassifierOption {
	return func(c *Classifier) {
		c.logger = logger
	}
}

// Classifier decides whether a string denotes an existing local file, a
// remote resource, or neither.
//
// A Classifier is safe for concurrent use.
type Classifier struct {
	client       HTTPClient
	probeTimeout time.Duration
	home         func() (string, error)
	stat         func(string) (fs.FileInfo, error)
	logger       *slog.Logger
}

// NewClassifier creates a new Classifier.
func NewClassifier(opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		probeTimeout: DefaultProbeTimeout,
		home:         os.UserHomeDir,
		stat:         os.Stat,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// Local checks whether s denotes an existing path on the local filesystem
// and returns its absolute form.
//
// Two candidates are considered: the path reconstructed from s parsed as
// a URI, when s has no scheme or the "file" scheme, and s itself. The latter
// takes precedence. A candidate is accepted if it exists as given or after
// expanding a leading "~" to the home directory.
func (c *Classifier) Local(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	var path string
	if u, ok := parseURI(s); ok && (u.Scheme == "" || u.Scheme == SchemeFile) {
		if p, ok := c.existing(uriFilePath(u)); ok {
			path = p
		}
	}
	if p, ok := c.existing(s); ok {
		path = p
	}
	if path == "" {
		return "", false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	return abs, true
}

// IsURL checks whether s denotes a remote resource.
//
// The string must parse as a URI with a scheme and a host, and the scheme
// must not be "file". If noRequest is true, or no HTTP client was provided,
// the scheme must be one of Schemes. Otherwise, a HEAD request is sent and
// the URL is accepted only if the request succeeds. Unsupported schemes and
// connection failures mean that s is not a URL. An error is returned only
// if ctx is done.
func (c *Classifier) IsURL(ctx context.Context, s string, noRequest bool) (bool, error) {
	u, ok := parseURI(s)
	if !ok || u.Scheme == "" || u.Host == "" || u.Scheme == SchemeFile {
		return false, nil
	}
	if noRequest || c.client == nil {
		return isRemoteScheme(u.Scheme), nil
	}
	pctx := ctx
	if c.probeTimeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, c.probeTimeout)
		defer cancel()
	}
	status, err := c.client.Head(pctx, s)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		switch {
		case errors.Is(err, ErrUnsupportedScheme):
			c.logger.DebugContext(ctx, "Unsupported URL scheme", "url", s)
		case errors.Is(err, ErrConnectionFailed):
			c.logger.DebugContext(ctx, "URL probe failed", "url", s, "error", err)
		default:
			c.logger.DebugContext(ctx, "URL probe error", "url", s, "error", err)
		}
		return false, nil
	}
	if !statusOK(status) {
		c.logger.DebugContext(ctx, "URL probe unsuccessful", "url", s, "status", status)
		return false, nil
	}
	return true, nil
}

// Classify classifies s. A local path takes precedence over a URL if s could
// be interpreted as both. The URL check follows the rules of IsURL.
func (c *Classifier) Classify(ctx context.Context, s string, noRequest bool) (Location, error) {
	loc := Location{Kind: Unknown, Raw: s}
	if path, ok := c.Local(s); ok {
		loc.Kind = Local
		loc.Path = path
		c.logger.DebugContext(ctx, "Location classified", "location", s, "kind", loc.Kind, "path", path)
		return loc, nil
	}
	ok, err := c.IsURL(ctx, s, noRequest)
	if err != nil {
		return loc, err
	}
	if ok {
		u, _ := parseURI(s)
		loc.Kind = Remote
		loc.URL = u
	}
	c.logger.DebugContext(ctx, "Location classified", "location", s, "kind", loc.Kind)
	return loc, nil
}

// existing returns p, or p with a leading "~" expanded, whichever exists
// first.
func (c *Classifier) existing(p string) (string, bool) {
	if p == "" {
		return "", false
	}
	if _, err := c.stat(p); err == nil {
		return p, true
	}
	if e, ok := c.expandHome(p); ok {
		if _, err := c.stat(e); err == nil {
			return e, true
		}
	}
	return "", false
}

// expandHome expands a leading "~" or "~/" to the home directory. Paths
// referring to the home directories of other users are not expanded.
func (c *Classifier) expandHome(p string) (string, bool) {
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, "~"+string(filepath.Separator)) {
		return "", false
	}
	if c.home == nil {
		return "", false
	}
	home, err := c.home()
	if err != nil || home == "" {
		return "", false
	}
	return filepath.Join(home, p[1:]), true
}
