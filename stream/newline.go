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

package stream

import "strings"

// DefaultLineTerminator is returned when no line terminator can be detected.
const DefaultLineTerminator = "\n"

// LineTerminators lists the recognized line terminators.
var LineTerminators = []string{"\r\n", "\r", "\n"}

// DetectLineTerminator returns the line terminator that occurs most often in
// the sample. If the sample contains none, def is returned, or
// DefaultLineTerminator if def is empty.
//
// Occurrences are counted independently, so every "\r\n" also counts as
// "\r" and "\n". Ties are resolved in favor of the longer terminator.
func DetectLineTerminator(sample string, def string) string {
	if def == "" {
		def = DefaultLineTerminator
	}
	best, bestCount := "", 0
	for _, t := range LineTerminators {
		n := strings.Count(sample, t)
		if n > bestCount || (n == bestCount && len(t) > len(best)) {
			best, bestCount = t, n
		}
	}
	if bestCount == 0 {
		return def
	}
	return best
}
