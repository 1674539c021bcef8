// AT28C Programmer
// Copyright (c) 2026 The AT28C Programmer Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of AT28C Programmer.
//
// AT28C Programmer is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// AT28C Programmer is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with AT28C Programmer.  If not, see <http://www.gnu.org/licenses/>.

package image

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const bytesPerLine = 16

// HexDump writes data in 16-byte rows:
//
//	x0000:  x41 x42 ...  -  | AB.............. |
//
// A short final row is padded so the ASCII column stays aligned.
func HexDump(w io.Writer, data []byte) error {
	bw := bufio.NewWriter(w)
	var line strings.Builder
	for off := 0; off < len(data); off += bytesPerLine {
		row := data[off:min(off+bytesPerLine, len(data))]

		line.Reset()
		fmt.Fprintf(&line, "x%04X: ", off)
		for _, b := range row {
			fmt.Fprintf(&line, " x%02X", b)
		}
		line.WriteString(strings.Repeat("    ", bytesPerLine-len(row)))
		line.WriteString("  -  | ")
		for _, b := range row {
			line.WriteByte(printable(b))
		}
		line.WriteString(strings.Repeat(" ", bytesPerLine-len(row)))
		line.WriteString(" |\n")

		if _, err := bw.WriteString(line.String()); err != nil {
			return fmt.Errorf("failed to write hex dump: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write hex dump: %w", err)
	}
	return nil
}

func printable(b byte) byte {
	if b >= 0x20 && b < 0x7F {
		return b
	}
	return '.'
}
