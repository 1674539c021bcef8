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

package programmer

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectFailed means the transport could not be opened.
	ErrConnectFailed = errors.New("connect failed")
	// ErrNotConnected is returned by every operation attempted while the
	// session is disconnected. No I/O is performed.
	ErrNotConnected = errors.New("not connected")
	// ErrIdentifyTimeout means no reply arrived within the reply window.
	ErrIdentifyTimeout = errors.New("no reply from device")
	// ErrConnectionLost wraps a transport fault during an operation.
	ErrConnectionLost = errors.New("connection lost")
	// ErrTransferStalled means no byte arrived within the stall timeout.
	ErrTransferStalled = errors.New("transfer stalled")
	// ErrInvalidSize is returned for zero or negative transfer sizes.
	ErrInvalidSize = errors.New("invalid transfer size")
)

// Operation names used in TransferError.
const (
	OpRead  = "read"
	OpWrite = "write"
)

// TransferError reports a bulk transfer that stopped before completion.
// Transferred is the number of bytes moved across the transport, which is
// also the last progress count reported.
type TransferError struct {
	Err         error
	Op          string
	Transferred int
	Total       int
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s aborted after %d of %d bytes: %v", e.Op, e.Transferred, e.Total, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// Partial reports whether any bytes were moved before the abort.
func (e *TransferError) Partial() bool {
	return e.Transferred > 0
}

// SizePolicyError reports a write image rejected by the size policy before
// any I/O took place.
type SizePolicyError struct {
	Policy   SizePolicy
	Size     int
	Capacity int
}

func (e *SizePolicyError) Error() string {
	switch e.Policy {
	case SizeExact:
		return fmt.Sprintf("image is %d bytes, device requires exactly %d", e.Size, e.Capacity)
	default:
		return fmt.Sprintf("image is %d bytes, device capacity is %d", e.Size, e.Capacity)
	}
}

// ByteMismatchError reports a single-byte write whose read-back differs.
type ByteMismatchError struct {
	Address  int
	Expected byte
	Actual   byte
}

func (e *ByteMismatchError) Error() string {
	return fmt.Sprintf("write error at address %d [x%04X]: wrote x%02X, read back x%02X",
		e.Address, e.Address, e.Expected, e.Actual)
}

func connectionLost(err error) error {
	return fmt.Errorf("%w: %w", ErrConnectionLost, err)
}
