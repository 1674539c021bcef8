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

// Package devices lists the memory parts the programmer can address.
package devices

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Kind is the memory technology of a part.
type Kind string

const (
	// KindEEPROM parts are electrically erasable and writable in circuit.
	KindEEPROM Kind = "EEPROM"
	// KindEPROM parts are UV-erasable. They can be read and blank checked
	// but the programmer cannot write them.
	KindEPROM Kind = "EPROM"
)

// Device type names as accepted in config files and on the command line.
const (
	AT28C64  = "AT28C64"
	AT28C256 = "AT28C256"
	M2764    = "2764"
	M27128   = "27128"
	M27256   = "27256"
)

// DefaultType is used when no device type is configured.
const DefaultType = AT28C256

var ErrUnknownDevice = errors.New("unknown device type")

// Device describes one supported part.
type Device struct {
	Name     string
	Kind     Kind
	Capacity int
	// ROMType is the index the firmware uses to select read timing for this
	// part in READBYTE.
	ROMType int
	// SDP is true for parts with software data protection.
	SDP bool
	// PagedWrite is true for parts that accept 64 byte page writes.
	PagedWrite bool
}

// Writable reports whether the programmer can write this part.
func (d Device) Writable() bool {
	return d.Kind == KindEEPROM
}

func (d Device) String() string {
	return fmt.Sprintf("%s (%s, %d bytes)", d.Name, d.Kind, d.Capacity)
}

// LastAddress returns the highest valid address.
func (d Device) LastAddress() int {
	return d.Capacity - 1
}

var catalog = []Device{
	{Name: AT28C64, Kind: KindEEPROM, Capacity: 8 * 1024, ROMType: 0, SDP: true},
	{Name: AT28C256, Kind: KindEEPROM, Capacity: 32 * 1024, ROMType: 1, SDP: true, PagedWrite: true},
	{Name: M2764, Kind: KindEPROM, Capacity: 8 * 1024, ROMType: 2},
	{Name: M27128, Kind: KindEPROM, Capacity: 16 * 1024, ROMType: 3},
	{Name: M27256, Kind: KindEPROM, Capacity: 32 * 1024, ROMType: 4},
}

// All returns every supported device in catalog order.
func All() []Device {
	return slices.Clone(catalog)
}

// Names returns the type names of every supported device.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for _, d := range catalog {
		names = append(names, d.Name)
	}
	return names
}

// Lookup finds a device by type name, ignoring case and surrounding space.
func Lookup(name string) (Device, error) {
	name = strings.TrimSpace(name)
	for _, d := range catalog {
		if strings.EqualFold(d.Name, name) {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("%w: %q (supported: %s)",
		ErrUnknownDevice, name, strings.Join(Names(), ", "))
}

// IsKnown reports whether name is a supported device type.
func IsKnown(name string) bool {
	_, err := Lookup(name)
	return err == nil
}
