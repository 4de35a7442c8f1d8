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

// Package sliceutil provides generic helpers for working with slices.
package sliceutil

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// End is used as Slice.Stop to slice up to the end of the sequence, or
	// as Slice.Start to start from the last element when stepping backwards.
	End = math.MaxInt

	// Begin is used as Slice.Stop to slice down to and including the first
	// element when stepping backwards.
	Begin = math.MinInt
)

// ErrZeroStep is returned when a slice operation has a step of zero.
var ErrZeroStep = errors.New("sliceutil: slice step cannot be zero")

// Slice describes a single slicing operation on a sequence.
//
// Start and Stop may be negative, in which case they are counted from the end
// of the sequence. Both are clamped to the bounds of the sequence, so slicing
// never panics. A negative Step selects elements backwards, from Start down
// to Stop (exclusive). A zero Step is invalid, so the zero value of Slice
// cannot be applied; use S or Parse.
type Slice struct {
	Start int
	Stop  int
	Step  int
}

// S returns a slice operation selecting elements from start (inclusive) to
// stop (exclusive).
func S(start, stop int) Slice {
	return Slice{Start: start, Stop: stop, Step: 1}
}

// Indices returns the normalized start and stop indices for a sequence of
// length n, adjusted for the direction of Step. With a positive step the
// indices satisfy 0 <= start, stop <= n; with a negative step they satisfy
// -1 <= start, stop <= n-1. The step must not be zero.
func (s Slice) Indices(n int) (start, stop int) {
	return adjust(s.Start, n, s.Step), adjust(s.Stop, n, s.Step)
}

// Len returns the number of elements selected from a sequence of length n.
func (s Slice) Len(n int) int {
	start, stop := s.Indices(n)
	switch {
	case s.Step > 0 && start < stop:
		return (stop-start-1)/s.Step + 1
	case s.Step < 0 && stop < start:
		return (start-stop-1)/(-s.Step) + 1
	}
	return 0
}

// Apply returns the part of v selected by the slice operation.
//
// With a step of 1 the result shares the underlying array with v.
func Apply[T any](v []T, s Slice) ([]T, error) {
	if s.Step == 0 {
		return nil, ErrZeroStep
	}
	start, stop := s.Indices(len(v))
	if s.Step == 1 {
		stop = max(start, stop)
		return v[start:stop:stop], nil
	}
	out := make([]T, s.Len(len(v)))
	for i := range out {
		out[i] = v[start+i*s.Step]
	}
	return out, nil
}

// MultiSlice applies the slice operations to v one after another, each one to
// the result of the previous one. Without any slice operations, v is returned
// unchanged.
//
// Example:
//
//	MultiSlice([]int{0, 1, 2, 3, 4, 5}, S(0, 3), S(1, 2)) // []int{1}, nil
func MultiSlice[T any](v []T, slices ...Slice) ([]T, error) {
	for i, s := range slices {
		var err error
		if v, err = Apply(v, s); err != nil {
			return nil, fmt.Errorf("sliceutil.MultiSlice: slice %d: %w", i, err)
		}
	}
	return v, nil
}

// Parse parses a slice operation written as "start:stop" or
// "start:stop:step". An omitted step is 1. Omitted start and stop select
// up to the ends of the sequence in the direction of the step, so ":"
// selects everything, "::2" every other element and "::-1" everything in
// reverse order.
func Parse(s string) (Slice, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Slice{}, errInvalidSliceFn(s, "expected start:stop[:step]")
	}
	values := make([]*int, 3)
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return Slice{}, errInvalidSliceFn(s, err.Error())
		}
		values[i] = &v
	}
	sl := Slice{Start: 0, Stop: End, Step: 1}
	if values[2] != nil {
		sl.Step = *values[2]
	}
	if sl.Step == 0 {
		return Slice{}, errInvalidSliceFn(s, ErrZeroStep.Error())
	}
	if sl.Step < 0 {
		sl.Start, sl.Stop = End, Begin
	}
	if values[0] != nil {
		sl.Start = *values[0]
	}
	if values[1] != nil {
		sl.Stop = *values[1]
	}
	return sl, nil
}

func errInvalidSliceFn(s, reason string) error {
	return fmt.Errorf("sliceutil.Parse: invalid slice %q: %s", s, reason)
}

// adjust normalizes the index i for a sequence of length n. Negative
// indices count from the end. Out of range indices are clamped to the
// first and last position reachable in the direction of step.
func adjust(i, n, step int) int {
	if i < 0 {
		i += n
		if i < 0 {
			if step < 0 {
				return -1
			}
			return 0
		}
	}
	if i >= n {
		if step < 0 {
			return n - 1
		}
		return n
	}
	return i
}

// Copy returns a copy of the slice.
func Copy[T any](s []T) []T {
	newSlice := make([]T, len(s))
	copy(newSlice, s)
	return newSlice
}

// Contains returns true if s slice contains e element.
func Contains[T comparable](s []T, e T) bool {
	for _, x := range s {
		if x == e {
			return true
		}
	}
	return false
}

// Filter returns a new slice with the elements of the original slice that
// satisfy the predicate f.
func Filter[T any](s []T, f func(T) bool) []T {
	out := make([]T, 0, len(s))
	for _, x := range s {
		if f(x) {
			out = append(out, x)
		}
	}
	return out
}

// AppendUnique appends e to s if e is not already present in s.
func AppendUnique[T comparable](s []T, ee ...T) []T {
	for _, e := range ee {
		if Contains(s, e) {
			continue
		}
		s = append(s, e)
	}
	return s
}
