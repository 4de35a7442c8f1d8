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

// Package retry implements a simple retry loop with a fixed delay.
package retry

import (
	"context"
	"time"
)

const (
	TryAgain = false
	Stop     = true
)

// Try calls f until it returns Stop, the number of attempts is exhausted or
// the context is done. It waits for delay between attempts, but not after the
// last one. If attempts is negative, Try will try forever.
//
// The returned value reports whether f returned Stop.
func Try(ctx context.Context, f func(context.Context) bool, attempts int, delay time.Duration) (ok bool) {
	for i := 0; attempts < 0 || i < attempts; i++ {
		if ctx.Err() != nil {
			return false
		}
		if f(ctx) {
			return true
		}
		if attempts >= 0 && i == attempts-1 {
			break
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
		case <-t.C:
		}
		t.Stop()
	}
	return false
}

// Try2 is a helper function that simplifies the common case of retrying a
// function that returns two values. The values returned by the last call of f
// are returned.
func Try2[T1, T2 any](ctx context.Context, f func(context.Context) (T1, T2, bool), attempts int, delay time.Duration) (res1 T1, res2 T2) {
	var ok bool
	Try(ctx, func(ctx context.Context) bool {
		res1, res2, ok = f(ctx)
		return ok
	}, attempts, delay)
	return res1, res2
}
