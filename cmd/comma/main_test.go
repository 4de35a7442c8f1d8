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

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(data, []byte("# comment\r\na,b\r\n1,2\r\n3,4\r\n"), 0o600))
	latin1 := filepath.Join(dir, "latin1.csv")
	require.NoError(t, os.WriteFile(latin1, []byte("name\ncaf\xe9\n"), 0o600))
	cfg := filepath.Join(dir, "comma.hcl")
	require.NoError(t, os.WriteFile(cfg, []byte(`resolver { sample_size = "x" }`), 0o600))

	tc := []struct {
		name       string
		args       []string
		stdin      string
		wantCode   int
		wantOut    []string
		notWantOut []string
	}{
		{
			name:     "file",
			args:     []string{"--no-request", "--head", "2", data},
			wantCode: exitOK,
			wantOut:  []string{"source:     " + data, "encoding:   utf-8", `terminator: "\r\n"`, "size:       26 B", "  # comment\n  a,b\n"},
		},
		{
			name:       "comments are skipped",
			args:       []string{"--no-request", "--comments", "#", "-n", "1", data},
			wantCode:   exitOK,
			wantOut:    []string{"  a,b\n"},
			notWantOut: []string{"# comment", "1,2"},
		},
		{
			name:       "slices",
			args:       []string{"--no-request", "--slice", "1:", "--slice", "::2", data},
			wantCode:   exitOK,
			wantOut:    []string{"  a,b\n  3,4\n"},
			notWantOut: []string{"# comment", "1,2"},
		},
		{
			name:       "reverse slice",
			args:       []string{"--no-request", "--slice", "::-1", "-n", "2", data},
			wantCode:   exitOK,
			wantOut:    []string{"  3,4\n  1,2\n"},
			notWantOut: []string{"a,b"},
		},
		{
			name:     "invalid slice",
			args:     []string{"--slice", "x", data},
			wantCode: exitFault,
		},
		{
			name:     "detected encoding",
			args:     []string{"--no-request", latin1},
			wantCode: exitOK,
			wantOut:  []string{"encoding:   windows-1252", "  café\n"},
		},
		{
			name:     "pinned encoding",
			args:     []string{"--no-request", "--encoding", "utf-8", latin1},
			wantCode: exitOK,
			wantOut:  []string{"encoding:   utf-8"},
		},
		{
			name:     "stdin",
			args:     []string{"-"},
			stdin:    "x,y\n",
			wantCode: exitOK,
			wantOut:  []string{"source:     -", "  x,y\n"},
		},
		{
			name:     "not resolved",
			args:     []string{"--no-request", filepath.Join(dir, "missing.csv")},
			wantCode: exitNotResolved,
		},
		{
			name:     "fault wins over not resolved",
			args:     []string{"--no-request", "--encoding", "klingon", filepath.Join(dir, "missing.csv"), data},
			wantCode: exitFault,
		},
		{
			name:     "invalid config",
			args:     []string{"--config", cfg, data},
			wantCode: exitFault,
		},
		{
			name:     "no sources",
			args:     nil,
			wantCode: exitFault,
		},
		{
			name:     "help",
			args:     []string{"--help"},
			wantCode: exitOK,
		},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args, strings.NewReader(tt.stdin), &stdout, &stderr)
			assert.Equal(t, tt.wantCode, code, stderr.String())
			for _, s := range tt.wantOut {
				assert.Contains(t, stdout.String(), s)
			}
			for _, s := range tt.notWantOut {
				assert.NotContains(t, stdout.String(), s)
			}
		})
	}
}
