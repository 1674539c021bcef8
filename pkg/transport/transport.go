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

// Package transport provides the byte-oriented duplex channel used to reach
// the programmer device.
package transport

import (
	"errors"
	"time"

	"go.bug.st/serial"
)

// Fixed serial line parameters expected by the programmer firmware.
const (
	BaudRate = 115200
	DataBits = 8
)

// ErrNotOpen is returned by I/O calls on a transport that is not open.
var ErrNotOpen = errors.New("transport not open")

// Transport is the capability the programmer session needs from the link.
// Implementations are not required to be safe for concurrent use by
// multiple callers.
type Transport interface {
	// Open opens and configures the underlying channel.
	Open() error
	// Close closes the channel. Closing a closed transport is not an error.
	Close() error
	// IsOpen reports whether the channel is currently open.
	IsOpen() bool
	// Available returns the number of received bytes that can be read
	// without blocking.
	Available() (int, error)
	// Read copies up to len(p) already received bytes into p without
	// blocking. It returns 0, nil when nothing is buffered.
	Read(p []byte) (int, error)
	// Write blocks until all of p has been handed to the channel.
	Write(p []byte) (int, error)
	// Discard drops everything pending in both the input and output queues.
	Discard() error
}

// Port is the subset of serial.Port used by SerialTransport.
type Port interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
	ResetOutputBuffer() error
}

// PortFactory opens a serial port.
type PortFactory func(path string, mode *serial.Mode) (Port, error)

// DefaultPortFactory opens real serial ports with go.bug.st/serial.
func DefaultPortFactory(path string, mode *serial.Mode) (Port, error) {
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped by the caller with the path
	}
	return port, nil
}

// DefaultMode returns the 115200 8N1 line settings with DTR held inactive,
// so opening the port does not assert the device reset line.
func DefaultMode() *serial.Mode {
	return &serial.Mode{
		BaudRate: BaudRate,
		DataBits: DataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
		InitialStatusBits: &serial.ModemOutputBits{
			DTR: false,
			RTS: false,
		},
	}
}

// IsDisconnectionError reports whether err means the port went away.
func IsDisconnectionError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrNotOpen) {
		return true
	}

	var portErr *serial.PortError
	if errors.As(err, &portErr) {
		switch portErr.Code() {
		case serial.PortNotFound, serial.PortClosed, serial.InvalidSerialPort:
			return true
		default:
			return false
		}
	}

	return false
}
