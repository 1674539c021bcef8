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

// Package protocol implements the line-based ASCII command set spoken by the
// AT28C programmer firmware.
package protocol

import (
	"strconv"
	"strings"
)

// Command verbs understood by the programmer firmware.
const (
	VerbVersion     = "VERSION"
	VerbReadEEPROM  = "READEEPROM"
	VerbWriteEEPROM = "WRITEEEPROM"
	VerbEnableSDP   = "ENABLESDP"
	VerbReadByte    = "READBYTE"
	VerbWriteByte   = "WRITEBYTE"
)

const (
	// Terminator ends every command and response line.
	Terminator = '\r'
	// ResponsePrefix marks a device reply key.
	ResponsePrefix = "+"

	// PageSize is the block length of a paged write. Only the AT28C256
	// firmware path supports it.
	PageSize = 64

	querySymbol   = "?"
	argSeparator  = ","
	keyValueSplit = "="
)

// Command is a single outgoing command line. The zero value is not a valid
// command; use one of the constructors.
type Command struct {
	verb  string
	args  []int
	query bool
}

// VersionQuery asks the firmware for its version string.
func VersionQuery() Command {
	return Command{verb: VerbVersion, query: true}
}

// ReadEEPROM requests a dump of size bytes.
func ReadEEPROM(size int) Command {
	return Command{verb: VerbReadEEPROM, args: []int{size}}
}

// WriteEEPROM announces an incoming write of size raw bytes.
func WriteEEPROM(size int) Command {
	return Command{verb: VerbWriteEEPROM, args: []int{size}}
}

// WriteEEPROMPaged announces a paged write of size bytes, sent in blocks of
// page bytes that the firmware echoes back once each block is stored.
func WriteEEPROMPaged(size, page int) Command {
	return Command{verb: VerbWriteEEPROM, args: []int{size, page}}
}

// EnableSDP turns software data protection on or off.
func EnableSDP(enable bool) Command {
	v := 0
	if enable {
		v = 1
	}
	return Command{verb: VerbEnableSDP, args: []int{v}}
}

// ReadByte requests the byte stored at address. The firmware selects the
// read timing from romType, the catalog index of the chip.
func ReadByte(romType, address int) Command {
	return Command{verb: VerbReadByte, args: []int{romType, address}}
}

// WriteByte stores value at address. The firmware replies with the byte read
// back after the write cycle.
func WriteByte(address int, value byte) Command {
	return Command{verb: VerbWriteByte, args: []int{address, int(value)}}
}

func (c Command) Verb() string {
	return c.verb
}

// Args returns a copy of the numeric arguments.
func (c Command) Args() []int {
	out := make([]int, len(c.args))
	copy(out, c.args)
	return out
}

// String returns the command line without the terminator, useful for logs.
func (c Command) String() string {
	var sb strings.Builder
	sb.WriteString(c.verb)
	sb.WriteString(keyValueSplit)
	if c.query {
		sb.WriteString(querySymbol)
		return sb.String()
	}
	for i, a := range c.args {
		if i > 0 {
			sb.WriteString(argSeparator)
		}
		sb.WriteString(strconv.Itoa(a))
	}
	return sb.String()
}

// Encode returns the wire form of the command, terminated by a carriage return.
func (c Command) Encode() []byte {
	s := c.String()
	out := make([]byte, 0, len(s)+1)
	out = append(out, s...)
	return append(out, Terminator)
}
