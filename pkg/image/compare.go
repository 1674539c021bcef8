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
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/spf13/afero"
)

// BlankByte is the value of an erased cell.
const BlankByte = 0xFF

// DisplayLimit is how many mismatches the CLI prints before summarising.
const DisplayLimit = 3

// Mismatch is one differing cell. Expected is the file byte for verify and
// BlankByte for a blank check.
type Mismatch struct {
	Address  int  `csv:"address"`
	Expected byte `csv:"expected"`
	Actual   byte `csv:"actual"`
}

func (m Mismatch) String() string {
	return fmt.Sprintf("address: 0x%04X, device byte: 0x%02X, expected: 0x%02X",
		m.Address, m.Actual, m.Expected)
}

// Result summarises a verify or blank check.
type Result struct {
	Mismatches []Mismatch
	// Compared is the number of addresses checked.
	Compared int
	// LengthDiff is len(actual) - len(expected) for verify, zero otherwise.
	LengthDiff int
}

// OK reports whether the check found no differences.
func (r Result) OK() bool {
	return len(r.Mismatches) == 0 && r.LengthDiff == 0
}

// Shown returns at most limit mismatches for display.
func (r Result) Shown(limit int) []Mismatch {
	if limit <= 0 || len(r.Mismatches) <= limit {
		return r.Mismatches
	}
	return r.Mismatches[:limit]
}

// Compare checks actual against expected over their common length.
func Compare(expected, actual []byte) Result {
	n := min(len(expected), len(actual))
	res := Result{
		Compared:   n,
		LengthDiff: len(actual) - len(expected),
	}
	for i := range n {
		if expected[i] != actual[i] {
			res.Mismatches = append(res.Mismatches, Mismatch{
				Address:  i,
				Expected: expected[i],
				Actual:   actual[i],
			})
		}
	}
	return res
}

// BlankCheck reports every cell that is not erased.
func BlankCheck(data []byte) Result {
	res := Result{Compared: len(data)}
	for i, b := range data {
		if b != BlankByte {
			res.Mismatches = append(res.Mismatches, Mismatch{
				Address:  i,
				Expected: BlankByte,
				Actual:   b,
			})
		}
	}
	return res
}

// WriteReport writes mismatches as CSV to w.
func WriteReport(w io.Writer, mismatches []Mismatch) error {
	rows := mismatches
	if rows == nil {
		rows = []Mismatch{}
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to encode mismatch report: %w", err)
	}
	return nil
}

// SaveReport writes mismatches as a CSV file.
func SaveReport(fs afero.Fs, path string, mismatches []Mismatch) error {
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := WriteReport(f, mismatches); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close report file: %w", err)
	}
	return nil
}

// LoadReport reads a CSV report written by SaveReport.
func LoadReport(fs afero.Fs, path string) ([]Mismatch, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var rows []Mismatch
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode mismatch report: %w", err)
	}
	return rows, nil
}
