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

// Package config loads the configuration of the resolver from HCL files.
//
// Example:
//
//	variables {
//	  timeout = "15s"
//	}
//
//	resolver {
//	  encoding       = "utf-8"
//	  sample_size    = 10000
//	  csv_extensions = [".csv", ".tsv"]
//	}
//
//	http {
//	  user_agent    = "comma/${lower(env("COMMA_ENV", "PROD"))}"
//	  probe_timeout = var.timeout
//	  retry {
//	    attempts = 3
//	    delay    = "1s"
//	  }
//	}
//
// All blocks and attributes are optional.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/chronicleprotocol/comma/archive"
	"github.com/chronicleprotocol/comma/charset"
	"github.com/chronicleprotocol/comma/errutil"
	"github.com/chronicleprotocol/comma/location"
	"github.com/chronicleprotocol/comma/stream"
)

// Config is the configuration of the resolver.
type Config struct {
	Resolver *ResolverConfig `hcl:"resolver,block"`
	HTTP     *HTTPConfig     `hcl:"http,block"`
}

// ResolverConfig configures how sources are resolved.
type ResolverConfig struct {
	// Encoding pins the encoding of binary content. If empty, the encoding
	// is detected.
	Encoding string `hcl:"encoding,optional"`

	// NoRequest disables network access.
	NoRequest bool `hcl:"no_request,optional"`

	// SampleSize is the size of the sample used for detection.
	SampleSize int `hcl:"sample_size,optional"`

	// CSVExtensions lists the extensions used to pick the data file from an
	// archive with multiple files.
	CSVExtensions []string `hcl:"csv_extensions,optional"`

	// ReadLimit is the maximum number of bytes read from a source.
	ReadLimit int64 `hcl:"read_limit,optional"`
}

// HTTPConfig configures access to remote sources.
type HTTPConfig struct {
	UserAgent     string       `hcl:"user_agent,optional"`
	Timeout       string       `hcl:"timeout,optional"`
	ProbeTimeout  string       `hcl:"probe_timeout,optional"`
	ChecksumParam string       `hcl:"checksum_param,optional"` // Empty disables checksum verification.
	Retry         *RetryConfig `hcl:"retry,block"`

	timeout      time.Duration
	probeTimeout time.Duration
}

// RetryConfig configures retries of failed remote fetches.
type RetryConfig struct {
	Attempts int    `hcl:"attempts,optional"`
	Delay    string `hcl:"delay,optional"`

	delay time.Duration
}

// Default returns the default configuration.
func Default() *Config {
	c := &Config{}
	c.setDefaults()
	return c
}

// Load reads the configuration from a file.
func Load(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errConfigFn(err)
	}
	return Parse(src, path)
}

// Parse parses the configuration. The filename is only used in error
// messages.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errConfigFn(diags)
	}
	ctx := &hcl.EvalContext{Functions: Functions()}
	body, diags := decodeVariables(ctx, file.Body)
	if diags.HasErrors() {
		return nil, errConfigFn(diags)
	}
	c := &Config{}
	if diags := gohcl.DecodeBody(body, ctx, c); diags.HasErrors() {
		return nil, errConfigFn(diags)
	}
	c.setDefaults()
	if err := c.validate(); err != nil {
		return nil, errConfigFn(err)
	}
	return c, nil
}

func (c *Config) setDefaults() {
	if c.Resolver == nil {
		c.Resolver = &ResolverConfig{}
	}
	if c.Resolver.SampleSize == 0 {
		c.Resolver.SampleSize = stream.DefaultSampleSize
	}
	if len(c.Resolver.CSVExtensions) == 0 {
		c.Resolver.CSVExtensions = archive.DefaultExtensions
	}
	if c.Resolver.ReadLimit == 0 {
		c.Resolver.ReadLimit = stream.DefaultReadLimit
	}
	if c.HTTP == nil {
		c.HTTP = &HTTPConfig{}
	}
	if c.HTTP.ProbeTimeout == "" {
		c.HTTP.probeTimeout = location.DefaultProbeTimeout
	}
	if c.HTTP.Retry == nil {
		c.HTTP.Retry = &RetryConfig{}
	}
	if c.HTTP.Retry.Attempts == 0 {
		c.HTTP.Retry.Attempts = 1
	}
}

func (c *Config) validate() (err error) {
	if c.Resolver.Encoding != "" {
		if _, _, lErr := charset.Lookup(c.Resolver.Encoding); lErr != nil {
			err = errutil.Append(err, fmt.Errorf("resolver.encoding: %w", lErr))
		}
	}
	if c.Resolver.SampleSize < 0 {
		err = errutil.Append(err, fmt.Errorf("resolver.sample_size: must not be negative"))
	}
	if c.Resolver.ReadLimit < 0 {
		err = errutil.Append(err, fmt.Errorf("resolver.read_limit: must not be negative"))
	}
	if c.HTTP.Retry.Attempts < 0 {
		err = errutil.Append(err, fmt.Errorf("http.retry.attempts: must not be negative"))
	}
	durations := []struct {
		name string
		src  string
		dst  *time.Duration
	}{
		{name: "http.timeout", src: c.HTTP.Timeout, dst: &c.HTTP.timeout},
		{name: "http.probe_timeout", src: c.HTTP.ProbeTimeout, dst: &c.HTTP.probeTimeout},
		{name: "http.retry.delay", src: c.HTTP.Retry.Delay, dst: &c.HTTP.Retry.delay},
	}
	for _, d := range durations {
		if d.src == "" {
			continue
		}
		v, pErr := time.ParseDuration(d.src)
		if pErr == nil && v < 0 {
			pErr = errors.New("must not be negative")
		}
		if pErr != nil {
			err = errutil.Append(err, fmt.Errorf("%s: %w", d.name, pErr))
			continue
		}
		*d.dst = v
	}
	return err
}

// NewResolver creates a resolver configured by c.
func (c *Config) NewResolver(logger *slog.Logger) *stream.Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	rc, hc := c.Resolver, c.HTTP

	httpOpts := []location.HTTPOption{location.WithReadLimit(rc.ReadLimit)}
	if hc.UserAgent != "" {
		httpOpts = append(httpOpts, location.WithUserAgent(hc.UserAgent))
	}
	if hc.timeout > 0 {
		httpOpts = append(httpOpts, location.WithTimeout(hc.timeout))
	}
	client := location.NewHTTPClient(httpOpts...)

	remote := location.NewHTTPFetcher(client)
	if hc.Retry.Attempts > 1 {
		remote = location.NewRetryFetcher(remote, hc.Retry.Attempts, hc.Retry.delay)
	}
	if hc.ChecksumParam != "" {
		remote = location.NewChecksumFetcher(remote, location.WithChecksumParam(hc.ChecksumParam))
	}
	fetcher := location.NewMux(map[location.Kind]location.Fetcher{
		location.Local:  location.NewFileFetcher(location.WithFileReadLimit(rc.ReadLimit)),
		location.Remote: remote,
	})

	opts := []stream.Option{
		stream.WithClassifier(location.NewClassifier(
			location.WithHTTPClient(client),
			location.WithProbeTimeout(hc.probeTimeout),
			location.WithLogger(logger),
		)),
		stream.WithFetcher(fetcher),
		stream.WithUnwrapper(archive.NewUnwrapper(
			archive.WithExtensions(rc.CSVExtensions...),
			archive.WithReadLimit(rc.ReadLimit),
			archive.WithLogger(logger),
		)),
		stream.WithSampleSize(rc.SampleSize),
		stream.WithReadLimit(rc.ReadLimit),
		stream.WithLogger(logger),
	}
	if rc.Encoding != "" {
		opts = append(opts, stream.WithEncoding(rc.Encoding))
	}
	if rc.NoRequest {
		opts = append(opts, stream.WithNoRequest())
	}
	return stream.NewResolver(opts...)
}

func errConfigFn(err error) error {
	return fmt.Errorf("config: %w", err)
}
