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

// Package errutil provides helpers for combining and inspecting errors.
package errutil

import (
	"errors"
	"io"
	"strings"
)

// Append combines the provided error with a list of errors.
//
// Nil errors are skipped. If only one error remains, it is returned as is,
// otherwise a MultiError is returned.
func Append(err error, errs ...error) error {
	if err == nil && len(errs) == 0 {
		return nil
	}
	// Using type casting instead of errors.As is intentional.
	var mErr MultiError
	if e, ok := err.(MultiError); ok {
		mErr = e
	} else if err != nil {
		mErr = MultiError{err}
	}
	for _, e := range errs {
		if e == nil {
			continue
		}
		if m, ok := e.(MultiError); ok {
			mErr = append(mErr, m...)
		} else {
			mErr = append(mErr, e)
		}
	}
	switch len(mErr) {
	case 0:
		return nil
	case 1:
		return mErr[0]
	default:
		return mErr
	}
}

// Close closes c and appends the close error, if any, to the error pointed
// to by err. It is meant to be deferred by functions with a named error
// result:
//
//	func read(name string) (b []byte, err error) {
//		f, err := os.Open(name)
//		if err != nil {
//			return nil, err
//		}
//		defer errutil.Close(&err, f)
//		return io.ReadAll(f)
//	}
func Close(err *error, c io.Closer) {
	if cErr := c.Close(); cErr != nil {
		*err = Append(*err, cErr)
	}
}

// MultiError is a collection of errors.
type MultiError []error

// Error implements the error interface.
func (m MultiError) Error() string {
	if len(m) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("following errors occurred: [")
	for i, err := range m {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(err.Error())
	}
	b.WriteString("]")
	return b.String()
}

// Unwrap unwraps all errors.
func (m MultiError) Unwrap() []error {
	return m
}

// As is a helper function that attempts to extract a target type from the error
// and returns it. It returns false if the error does not contain the target
// type.
func As[T error](err error) (target T, ok bool) {
	ok = errors.As(err, &target)
	return
}
