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

package devices

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		wantName string
		wantKind Kind
		capacity int
		romType  int
		sdp      bool
		paged    bool
	}{
		{name: "AT28C64", wantName: AT28C64, wantKind: KindEEPROM, capacity: 8192, romType: 0, sdp: true},
		{
			name: "at28c256", wantName: AT28C256, wantKind: KindEEPROM, capacity: 32768,
			romType: 1, sdp: true, paged: true,
		},
		{name: " 2764 ", wantName: M2764, wantKind: KindEPROM, capacity: 8192, romType: 2},
		{name: "27128", wantName: M27128, wantKind: KindEPROM, capacity: 16384, romType: 3},
		{name: "27256", wantName: M27256, wantKind: KindEPROM, capacity: 32768, romType: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d, err := Lookup(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, d.Name)
			assert.Equal(t, tt.wantKind, d.Kind)
			assert.Equal(t, tt.capacity, d.Capacity)
			assert.Equal(t, tt.romType, d.ROMType)
			assert.Equal(t, tt.sdp, d.SDP)
			assert.Equal(t, tt.paged, d.PagedWrite)
			assert.Equal(t, tt.capacity-1, d.LastAddress())
		})
	}
}

func TestLookupUnknown(t *testing.T) {
	t.Parallel()

	_, err := Lookup("AT28C512")
	require.ErrorIs(t, err, ErrUnknownDevice)
	assert.Contains(t, err.Error(), "AT28C256")
	assert.False(t, IsKnown("AT28C512"))
	assert.False(t, IsKnown(""))
}

func TestWritable(t *testing.T) {
	t.Parallel()

	for _, d := range All() {
		assert.Equal(t, d.Kind == KindEEPROM, d.Writable(), d.Name)
		if d.SDP {
			assert.True(t, d.Writable(), "SDP part %s must be writable", d.Name)
		}
	}
}

func TestROMTypesFollowCatalogOrder(t *testing.T) {
	t.Parallel()

	for i, d := range All() {
		assert.Equal(t, i, d.ROMType, d.Name)
		if d.PagedWrite {
			assert.True(t, d.Writable(), "paged part %s must be writable", d.Name)
		}
	}
}

func TestAllReturnsCopy(t *testing.T) {
	t.Parallel()

	all := All()
	all[0].Capacity = 1

	d, err := Lookup(all[0].Name)
	require.NoError(t, err)
	assert.NotEqual(t, 1, d.Capacity)
	assert.Len(t, Names(), len(All()))
	assert.True(t, IsKnown(DefaultType))
}

func TestDeviceString(t *testing.T) {
	t.Parallel()

	d, err := Lookup(AT28C64)
	require.NoError(t, err)
	assert.Equal(t, "AT28C64 (EEPROM, 8192 bytes)", d.String())
}
