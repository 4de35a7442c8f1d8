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
	"fmt"
	"os"
	"time"

	"github.com/chronicleprotocol/comma/errutil"
	"github.com/chronicleprotocol/comma/retry"
)

// NewRetryFetcher wraps the given fetcher to repeat failed fetches.
//
// The fetch is attempted at most attempts times with the given delay between
// attempts. Failures that cannot be fixed by repeating the request, such as
// a missing file, a client error status or a checksum mismatch, are returned
// immediately.
func NewRetryFetcher(f Fetcher, attempts int, delay time.Duration) Fetcher {
	if attempts < 1 {
		attempts = 1
	}
	return &retryFetcher{f: f, attempts: attempts, delay: delay}
}

type retryFetcher struct {
	f        Fetcher
	attempts int
	delay    time.Duration
}

// Fetch implements the Fetcher interface.
func (r *retryFetcher) Fetch(ctx context.Context, loc Location) (*Content, error) {
	c, err := retry.Try2(ctx, func(ctx context.Context) (*Content, error, bool) {
		c, err := r.f.Fetch(ctx, loc)
		if err == nil {
			return c, nil, retry.Stop
		}
		if !isRetryable(err) {
			return nil, err, retry.Stop
		}
		return nil, err, retry.TryAgain
	}, r.attempts, r.delay)
	if err == nil && c == nil {
		// The context was done before the first attempt.
		err = ctx.Err()
	}
	if err != nil {
		return nil, errRetryFetcherFn(err)
	}
	return c, nil
}

func isRetryable(err error) bool {
	if se, ok := errutil.As[*StatusError](err); ok {
		return se.Temporary()
	}
	return !errors.Is(err, os.ErrNotExist) &&
		!errors.Is(err, os.ErrPermission) &&
		!errors.Is(err, ErrUnsupportedScheme) &&
		!errors.Is(err, ErrReadLimit) &&
		!errors.Is(err, ErrChecksumMismatch) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, errIsDirectory)
}

func errRetryFetcherFn(err error) error {
	return fmt.Errorf("location.retryFetcher: %w", err)
}
