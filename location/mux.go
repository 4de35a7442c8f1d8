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
	"fmt"
)

// NewMux creates a fetcher that routes a location to the fetcher registered
// for its kind.
func NewMux(fs map[Kind]Fetcher) Fetcher {
	return &mux{fs: fs}
}

type mux struct {
	fs map[Kind]Fetcher
}

// Fetch implements the Fetcher interface.
func (m *mux) Fetch(ctx context.Context, loc Location) (*Content, error) {
	if f, ok := m.fs[loc.Kind]; ok && f != nil {
		return f.Fetch(ctx, loc)
	}
	return nil, errMuxUnknownKindFn(loc.Kind)
}

var errMuxUnknownKind = fmt.Errorf("location.mux: unknown location kind")

func errMuxUnknownKindFn(kind Kind) error {
	return fmt.Errorf("%w: %s", errMuxUnknownKind, kind)
}
