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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileFetcher(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(file, []byte("a,b\n1,2\n"), 0o600))

	tc := []struct {
		name     string
		opts     []FileOption
		loc      Location
		wantData string
		wantErr  error
	}{
		{
			name:     "read file",
			loc:      Location{Kind: Local, Raw: "data.csv", Path: file},
			wantData: "a,b\n1,2\n",
		},
		{
			name:    "missing file",
			loc:     Location{Kind: Local, Raw: "missing.csv", Path: filepath.Join(dir, "missing.csv")},
			wantErr: fs.ErrNotExist,
		},
		{
			name:    "directory",
			loc:     Location{Kind: Local, Raw: dir, Path: dir},
			wantErr: errIsDirectory,
		},
		{
			name:    "read limit",
			opts:    []FileOption{WithFileReadLimit(4)},
			loc:     Location{Kind: Local, Raw: "data.csv", Path: file},
			wantErr: ErrReadLimit,
		},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			content, err := NewFileFetcher(tt.opts...).Fetch(context.Background(), tt.loc)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.loc.Raw, content.Name)
			assert.Equal(t, tt.wantData, string(content.Data))
			assert.Empty(t, content.Charset)
		})
	}
}

type closeErrorFile struct {
	fs.File
	err error
}

func (f closeErrorFile) Close() error {
	_ = f.File.Close()
	return f.err
}

func TestFileFetcherCloseError(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(file, []byte("a,b\n"), 0o600))

	errClose := errors.New("close failed")
	f := NewFileFetcher().(*fileFetcher)
	f.open = func(name string) (fs.File, error) {
		file, err := openFile(name)
		if err != nil {
			return nil, err
		}
		return closeErrorFile{File: file, err: errClose}, nil
	}

	content, err := f.Fetch(context.Background(), Location{Kind: Local, Raw: "data.csv", Path: file})
	require.ErrorIs(t, err, errClose)
	assert.Nil(t, content)
}

func TestFileFetcherUnexpectedKind(t *testing.T) {
	_, err := NewFileFetcher().Fetch(context.Background(), Location{Kind: Remote, Raw: "http://example.com"})
	require.Error(t, err)
}

func TestFileFetcherCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFileFetcher().Fetch(ctx, Location{Kind: Local, Raw: "x", Path: "/x"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestMux(t *testing.T) {
	local := FetcherFunc(func(_ context.Context, loc Location) (*Content, error) {
		return &Content{Name: "local:" + loc.Raw}, nil
	})
	remote := FetcherFunc(func(_ context.Context, loc Location) (*Content, error) {
		return &Content{Name: "remote:" + loc.Raw}, nil
	})
	m := NewMux(map[Kind]Fetcher{Local: local, Remote: remote})
	ctx := context.Background()

	c, err := m.Fetch(ctx, Location{Kind: Local, Raw: "a"})
	require.NoError(t, err)
	assert.Equal(t, "local:a", c.Name)

	c, err = m.Fetch(ctx, Location{Kind: Remote, Raw: "b"})
	require.NoError(t, err)
	assert.Equal(t, "remote:b", c.Name)

	_, err = m.Fetch(ctx, Location{Kind: Unknown, Raw: "c"})
	require.True(t, errors.Is(err, errMuxUnknownKind))
}
