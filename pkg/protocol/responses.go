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

package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Response is one parsed "+KEY=VALUE" line received from the device.
type Response struct {
	Key   string
	Value string
}

// ParseResponse parses a single line. It returns false for lines that carry
// no '=' separator; those are not answers and callers keep waiting.
func ParseResponse(line string) (Response, bool) {
	line = strings.TrimSpace(line)
	line = strings.Trim(line, "\r\n")
	if line == "" {
		return Response{}, false
	}

	key, value, found := strings.Cut(line, keyValueSplit)
	if !found {
		return Response{}, false
	}

	return Response{Key: key, Value: value}, true
}

// ReplyKey returns the response key the firmware uses when answering verb.
func ReplyKey(verb string) string {
	return ResponsePrefix + verb
}

// Is reports whether the response answers the given verb.
func (r Response) Is(verb string) bool {
	return r.Key == ReplyKey(verb)
}

// Int parses the value as a decimal integer.
func (r Response) Int() (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(r.Value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", r.Key, r.Value, err)
	}
	return v, nil
}

// LineBuffer assembles raw input bytes into complete lines. Both CR and LF
// terminate a line; empty lines are dropped.
type LineBuffer struct {
	pending []byte
}

// Feed appends p and returns every line completed by it.
func (b *LineBuffer) Feed(p []byte) []string {
	var lines []string
	for _, c := range p {
		if c == '\r' || c == '\n' {
			if len(b.pending) > 0 {
				lines = append(lines, string(b.pending))
				b.pending = b.pending[:0]
			}
			continue
		}
		b.pending = append(b.pending, c)
	}
	return lines
}

// Reset drops any partially received line.
func (b *LineBuffer) Reset() {
	b.pending = b.pending[:0]
}

// Pending returns the number of bytes buffered for an incomplete line.
func (b *LineBuffer) Pending() int {
	return len(b.pending)
}

// FirmwareVersion is the decoded form of a "+VERSION" value such as "0.004".
type FirmwareVersion struct {
	Raw   string
	Major int
	Minor int
}

var ErrInvalidVersion = errors.New("invalid firmware version")

// ParseFirmwareVersion decodes "<major>.<minor>". The minor part is read as a
// plain decimal number, so "0.004" is minor 4.
func ParseFirmwareVersion(s string) (FirmwareVersion, error) {
	s = strings.TrimSpace(s)
	majStr, minStr, found := strings.Cut(s, ".")
	if !found || majStr == "" || minStr == "" {
		return FirmwareVersion{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}

	maj, err := strconv.Atoi(majStr)
	if err != nil || maj < 0 {
		return FirmwareVersion{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}
	minor, err := strconv.Atoi(minStr)
	if err != nil || minor < 0 {
		return FirmwareVersion{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}

	return FirmwareVersion{Raw: s, Major: maj, Minor: minor}, nil
}

// Compare returns -1, 0 or 1 when v is older than, equal to or newer than o.
func (v FirmwareVersion) Compare(o FirmwareVersion) int {
	switch {
	case v.Major != o.Major:
		if v.Major < o.Major {
			return -1
		}
		return 1
	case v.Minor < o.Minor:
		return -1
	case v.Minor > o.Minor:
		return 1
	default:
		return 0
	}
}

func (v FirmwareVersion) String() string {
	if v.Raw != "" {
		return v.Raw
	}
	return fmt.Sprintf("%d.%03d", v.Major, v.Minor)
}
