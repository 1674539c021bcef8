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

package mocks

import (
	"errors"
	"strconv"
	"strings"

	"github.com/drvector/at28cprog/pkg/helpers/syncutil"
	"github.com/drvector/at28cprog/pkg/protocol"
	"github.com/drvector/at28cprog/pkg/transport"
)

// DeviceSimulator is an in-memory programmer that implements
// transport.Transport. It answers the firmware command set against Memory,
// so a session can be exercised end to end without hardware.
//
// Fault and timing knobs must be set before the simulator is handed to a
// session.
type DeviceSimulator struct {
	// OpenErr is returned by Open when set.
	OpenErr error
	// ReadFault is returned by Available once ReadFaultAfter bytes have
	// been delivered to the host since the last READEEPROM command.
	ReadFault error
	// WriteFault is returned by Write once WriteFaultAfter bulk data bytes
	// have been accepted from the host.
	WriteFault error
	// Firmware is the version string reported for "VERSION=?".
	Firmware string
	// Preamble lines are sent before the version reply, e.g. a boot banner.
	Preamble []string
	// Memory is the simulated EEPROM contents.
	Memory []byte
	// Chunks caps how many bytes each Available call reports, cycling
	// through the list. Empty means everything pending is reported.
	Chunks []int

	output    []byte
	cmdLine   []byte
	writes    [][]byte
	commands  []string
	romTypes  []int
	mu        syncutil.Mutex
	chunkIdx  int
	delivered int
	accepted  int
	writeLeft int
	writeAt   int
	pageSize  int
	pageFill  int
	discards  int

	ReadFaultAfter  int
	WriteFaultAfter int
	// Silent suppresses replies to VERSION, READBYTE and WRITEBYTE, and the
	// block echo of a paged write.
	Silent bool
	// ReadOnly makes WRITEBYTE and bulk writes leave Memory untouched.
	ReadOnly bool
	// SDP tracks the last ENABLESDP command.
	SDP  bool
	open bool
}

// NewDeviceSimulator returns a simulator with size bytes of erased (0xFF)
// memory.
func NewDeviceSimulator(firmware string, size int) *DeviceSimulator {
	mem := make([]byte, size)
	for i := range mem {
		mem[i] = 0xFF
	}
	return &DeviceSimulator{
		Firmware: firmware,
		Memory:   mem,
	}
}

var _ transport.Transport = (*DeviceSimulator)(nil)

func (d *DeviceSimulator) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.OpenErr != nil {
		return d.OpenErr
	}
	d.open = true
	return nil
}

func (d *DeviceSimulator) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = false
	d.output = nil
	d.cmdLine = nil
	return nil
}

func (d *DeviceSimulator) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

func (d *DeviceSimulator) Available() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return 0, transport.ErrNotOpen
	}
	if d.ReadFault != nil && d.delivered >= d.ReadFaultAfter {
		return 0, d.ReadFault
	}

	n := len(d.output)
	if n > 0 && len(d.Chunks) > 0 {
		n = min(n, d.Chunks[d.chunkIdx%len(d.Chunks)])
		d.chunkIdx++
	}
	if d.ReadFault != nil {
		n = min(n, d.ReadFaultAfter-d.delivered)
	}
	return n, nil
}

func (d *DeviceSimulator) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return 0, transport.ErrNotOpen
	}
	n := copy(p, d.output)
	d.output = d.output[n:]
	d.delivered += n
	return n, nil
}

func (d *DeviceSimulator) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return 0, transport.ErrNotOpen
	}

	call := make([]byte, len(p))
	copy(call, p)
	d.writes = append(d.writes, call)

	for i, c := range p {
		if d.writeLeft > 0 {
			if d.WriteFault != nil && d.accepted >= d.WriteFaultAfter {
				return i, d.WriteFault
			}
			d.storeBulkByte(c)
			continue
		}
		if c == protocol.Terminator {
			d.handleCommand(string(d.cmdLine))
			d.cmdLine = d.cmdLine[:0]
			continue
		}
		d.cmdLine = append(d.cmdLine, c)
	}
	return len(p), nil
}

func (d *DeviceSimulator) Discard() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return transport.ErrNotOpen
	}
	d.discards++
	d.output = nil
	return nil
}

// Emit queues raw bytes for the host, as if the device sent them.
func (d *DeviceSimulator) Emit(p []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.output = append(d.output, p...)
}

// Writes returns a copy of the payload of every Write call, in order.
func (d *DeviceSimulator) Writes() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]byte, len(d.writes))
	for i, w := range d.writes {
		out[i] = append([]byte(nil), w...)
	}
	return out
}

// WrittenBytes returns the number of bytes the host has written.
func (d *DeviceSimulator) WrittenBytes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	total := 0
	for _, w := range d.writes {
		total += len(w)
	}
	return total
}

// Commands returns every complete command line received.
func (d *DeviceSimulator) Commands() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.commands...)
}

// ReadByteROMTypes returns the rom type argument of every READBYTE received.
func (d *DeviceSimulator) ReadByteROMTypes() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int(nil), d.romTypes...)
}

// Discards returns how many times the queues were discarded.
func (d *DeviceSimulator) Discards() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.discards
}

// Snapshot returns a copy of Memory.
func (d *DeviceSimulator) Snapshot() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.Memory...)
}

func (d *DeviceSimulator) storeBulkByte(c byte) {
	for d.writeAt >= len(d.Memory) {
		d.Memory = append(d.Memory, 0xFF)
	}
	if !d.ReadOnly {
		d.Memory[d.writeAt] = c
	}
	d.writeAt++
	d.writeLeft--
	d.accepted++

	if d.pageSize == 0 {
		return
	}
	d.pageFill++
	if d.pageFill == d.pageSize || d.writeLeft == 0 {
		if !d.Silent {
			d.output = append(d.output, d.Memory[d.writeAt-d.pageFill:d.writeAt]...)
		}
		d.pageFill = 0
	}
}

func (d *DeviceSimulator) reply(verb, value string) {
	if d.Silent {
		return
	}
	d.output = append(d.output, protocol.ReplyKey(verb)+"="+value+"\r"...)
}

func (d *DeviceSimulator) handleCommand(line string) {
	d.commands = append(d.commands, line)

	verb, argStr, _ := strings.Cut(line, "=")
	args := parseArgs(argStr)

	switch verb {
	case protocol.VerbVersion:
		if d.Silent {
			return
		}
		for _, l := range d.Preamble {
			d.output = append(d.output, l+"\r"...)
		}
		d.reply(protocol.VerbVersion, d.Firmware)
	case protocol.VerbReadEEPROM:
		if len(args) != 1 {
			return
		}
		d.delivered = 0
		for i := range args[0] {
			if i < len(d.Memory) {
				d.output = append(d.output, d.Memory[i])
			} else {
				d.output = append(d.output, 0xFF)
			}
		}
	case protocol.VerbWriteEEPROM:
		if len(args) < 1 || len(args) > 2 {
			return
		}
		d.writeLeft = args[0]
		d.writeAt = 0
		d.accepted = 0
		d.pageSize = 0
		d.pageFill = 0
		if len(args) == 2 {
			d.pageSize = args[1]
		}
	case protocol.VerbEnableSDP:
		if len(args) == 1 {
			d.SDP = args[0] == 1
		}
	case protocol.VerbReadByte:
		// READBYTE=<romtype>,<address>
		if len(args) != 2 || args[1] >= len(d.Memory) {
			return
		}
		d.romTypes = append(d.romTypes, args[0])
		d.reply(protocol.VerbReadByte, strconv.Itoa(int(d.Memory[args[1]])))
	case protocol.VerbWriteByte:
		if len(args) != 2 || args[0] >= len(d.Memory) {
			return
		}
		if !d.ReadOnly {
			d.Memory[args[0]] = byte(args[1])
		}
		d.reply(protocol.VerbWriteByte, strconv.Itoa(int(d.Memory[args[0]])))
	}
}

func parseArgs(s string) []int {
	if s == "" || s == "?" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return nil
		}
		out = append(out, v)
	}
	return out
}

// ErrSimulatedFault is a convenience error for fault injection.
var ErrSimulatedFault = errors.New("simulated transport fault")
