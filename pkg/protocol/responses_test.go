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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParseResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		line     string
		expected Response
		ok       bool
	}{
		{name: "version", line: "+VERSION=1.2", expected: Response{Key: "+VERSION", Value: "1.2"}, ok: true},
		{name: "trailing cr", line: "+VERSION=0.004\r", expected: Response{Key: "+VERSION", Value: "0.004"}, ok: true},
		{name: "crlf", line: "+READBYTE=255\r\n", expected: Response{Key: "+READBYTE", Value: "255"}, ok: true},
		{name: "value with equals", line: "+FOO=a=b", expected: Response{Key: "+FOO", Value: "a=b"}, ok: true},
		{name: "empty value", line: "+VERSION=", expected: Response{Key: "+VERSION", Value: ""}, ok: true},
		{name: "no separator", line: "AT28C EEPROM PROGRAMMER", ok: false},
		{name: "empty", line: "", ok: false},
		{name: "whitespace", line: "  \r\n", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resp, ok := ParseResponse(tt.line)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, resp)
			}
		})
	}
}

func TestResponseIs(t *testing.T) {
	t.Parallel()

	resp, ok := ParseResponse("+FOO=bar")
	require.True(t, ok)
	assert.False(t, resp.Is(VerbVersion))

	resp, ok = ParseResponse("+VERSION=2.0")
	require.True(t, ok)
	assert.True(t, resp.Is(VerbVersion))

	// key without the reply prefix is not an answer
	resp, ok = ParseResponse("VERSION=2.0")
	require.True(t, ok)
	assert.False(t, resp.Is(VerbVersion))
}

func TestResponseInt(t *testing.T) {
	t.Parallel()

	v, err := Response{Key: "+READBYTE", Value: " 171 "}.Int()
	require.NoError(t, err)
	assert.Equal(t, 171, v)

	_, err = Response{Key: "+READBYTE", Value: "xx"}.Int()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "+READBYTE")
}

func TestLineBufferFeed(t *testing.T) {
	t.Parallel()

	var lb LineBuffer

	assert.Empty(t, lb.Feed([]byte("+VER")))
	assert.Equal(t, 4, lb.Pending())

	lines := lb.Feed([]byte("SION=1.2\r\n+FOO=bar\r+X"))
	assert.Equal(t, []string{"+VERSION=1.2", "+FOO=bar"}, lines)
	assert.Equal(t, 2, lb.Pending())

	lb.Reset()
	assert.Equal(t, 0, lb.Pending())
	assert.Equal(t, []string{"+Y=1"}, lb.Feed([]byte("+Y=1\n")))
}

func TestPropertyLineBufferFragmentationInvariant(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		lines := rapid.SliceOfN(rapid.StringMatching(`\+[A-Z]{1,8}=[0-9.]{0,6}`), 1, 10).Draw(t, "lines")

		var stream []byte
		for _, l := range lines {
			stream = append(stream, l...)
			stream = append(stream, '\r')
		}

		var lb LineBuffer
		var got []string
		for len(stream) > 0 {
			n := rapid.IntRange(1, len(stream)).Draw(t, "chunk")
			got = append(got, lb.Feed(stream[:n])...)
			stream = stream[n:]
		}

		if len(got) != len(lines) {
			t.Fatalf("expected %d lines, got %d", len(lines), len(got))
		}
		for i := range lines {
			if got[i] != lines[i] {
				t.Fatalf("line %d: expected %q, got %q", i, lines[i], got[i])
			}
		}
	})
}

func TestParseFirmwareVersion(t *testing.T) {
	t.Parallel()

	v, err := ParseFirmwareVersion("0.004")
	require.NoError(t, err)
	assert.Equal(t, 0, v.Major)
	assert.Equal(t, 4, v.Minor)
	assert.Equal(t, "0.004", v.String())

	v, err = ParseFirmwareVersion("1.2")
	require.NoError(t, err)
	assert.Equal(t, 1, v.Major)
	assert.Equal(t, 2, v.Minor)

	for _, bad := range []string{"", "1", "a.b", "1.", ".3", "-1.2"} {
		_, err := ParseFirmwareVersion(bad)
		require.ErrorIs(t, err, ErrInvalidVersion, "input %q", bad)
	}
}

func TestFirmwareVersionCompare(t *testing.T) {
	t.Parallel()

	mustParse := func(s string) FirmwareVersion {
		v, err := ParseFirmwareVersion(s)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, -1, mustParse("0.003").Compare(mustParse("0.004")))
	assert.Equal(t, 0, mustParse("0.004").Compare(mustParse("0.4")))
	assert.Equal(t, 1, mustParse("1.0").Compare(mustParse("0.999")))
	assert.Equal(t, -1, mustParse("0.999").Compare(mustParse("1.0")))
	assert.Equal(t, "2.005", FirmwareVersion{Major: 2, Minor: 5}.String())
}
