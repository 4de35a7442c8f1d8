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

// comma resolves data sources (local files, URLs, archives or stdin) to
// decoded text and prints what was detected about them.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/chronicleprotocol/comma/config"
	"github.com/chronicleprotocol/comma/sliceutil"
	"github.com/chronicleprotocol/comma/stream"
)

const (
	exitOK          = 0
	exitFault       = 1
	exitNotResolved = 2
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

type options struct {
	config    string
	encoding  string
	noRequest bool
	sample    int
	head      int
	comments  string
	slices    []sliceutil.Slice
	verbose   bool
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var opts options
	flagSet := pflag.NewFlagSet("comma", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&opts.config, "config", "c", "", "path to an HCL configuration file")
	flagSet.StringVarP(&opts.encoding, "encoding", "e", "", "encoding of the sources (default: detect)")
	flagSet.BoolVar(&opts.noRequest, "no-request", false, "do not access the network")
	flagSet.IntVar(&opts.sample, "sample", 0, "size of the sample used for detection (default: from config)")
	flagSet.IntVarP(&opts.head, "head", "n", 5, "number of lines to print for each source")
	flagSet.StringVar(&opts.comments, "comments", "", "skip preview lines starting with one of these characters")
	sliceFlags := flagSet.StringArray("slice", nil, "select preview lines with start:stop[:step], may be repeated")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug messages")
	flagSet.Usage = func() {
		fmt.Fprintf(stderr, "Usage: comma [flags] SOURCE...\n\nSOURCE is a path, a URL or - for stdin.\n\nFlags:\n")
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitFault
	}
	for _, f := range *sliceFlags {
		sl, err := sliceutil.Parse(f)
		if err != nil {
			fmt.Fprintf(stderr, "invalid --slice: %v\n", err)
			return exitFault
		}
		opts.slices = append(opts.slices, sl)
	}
	if flagSet.NArg() == 0 {
		flagSet.Usage()
		return exitFault
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := loadConfig(opts)
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		return exitFault
	}
	resolver := cfg.NewResolver(logger)

	code := exitOK
	for _, arg := range flagSet.Args() {
		var src stream.Source = stream.Location(arg)
		if arg == "-" {
			src = stream.Reader{R: stdin}
		}
		s, ok, err := resolver.Resolve(ctx, src)
		switch {
		case err != nil:
			logger.Error("Unable to resolve source", "source", arg, "error", err)
			code = exitFault
			continue
		case !ok:
			logger.Warn("Source not resolved", "source", arg)
			if code == exitOK {
				code = exitNotResolved
			}
			continue
		}
		if err := describe(stdout, arg, s, opts); err != nil {
			logger.Error("Unable to print source", "source", arg, "error", err)
			code = exitFault
		}
	}
	return code
}

func loadConfig(opts options) (*config.Config, error) {
	cfg := config.Default()
	if opts.config != "" {
		var err error
		if cfg, err = config.Load(opts.config); err != nil {
			return nil, err
		}
	}
	if opts.encoding != "" {
		cfg.Resolver.Encoding = opts.encoding
	}
	if opts.noRequest {
		cfg.Resolver.NoRequest = true
	}
	if opts.sample > 0 {
		cfg.Resolver.SampleSize = opts.sample
	}
	return cfg, nil
}

func describe(w io.Writer, arg string, s *stream.Stream, opts options) error {
	name := s.Name()
	if name == "" {
		name = arg
	}
	fmt.Fprintf(w, "source:     %s\n", name)
	fmt.Fprintf(w, "encoding:   %s\n", s.Encoding())
	fmt.Fprintf(w, "terminator: %q\n", s.LineTerminator())
	fmt.Fprintf(w, "size:       %s\n", humanize.Bytes(uint64(s.Size())))
	if opts.head <= 0 {
		return nil
	}
	var lines []string
	for line, err := range stream.Lines(s, opts.comments) {
		if err != nil {
			return err
		}
		lines = append(lines, strings.TrimRight(line, "\r\n"))
		if len(opts.slices) == 0 && len(lines) >= opts.head {
			break
		}
	}
	lines, err := sliceutil.MultiSlice(lines, opts.slices...)
	if err != nil {
		return err
	}
	for _, line := range lines[:min(len(lines), opts.head)] {
		fmt.Fprintf(w, "  %s\n", line)
	}
	return nil
}
