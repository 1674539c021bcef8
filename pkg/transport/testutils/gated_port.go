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

package testutils

import (
	"sync/atomic"

	"github.com/drvector/at28cprog/pkg/transport"
	"go.bug.st/serial"
)

// GatedPort is a MockPort whose next Read can be held open, so a test can
// act while the transport pump is blocked inside a port read.
type GatedPort struct {
	*MockPort
	entered chan struct{}
	release chan []byte
	armed   atomic.Bool
}

func NewGatedPort() *GatedPort {
	return &GatedPort{
		MockPort: NewMockPort(),
		entered:  make(chan struct{}, 1),
		release:  make(chan []byte),
	}
}

// Arm makes the next Read block until Release is called.
func (g *GatedPort) Arm() {
	g.armed.Store(true)
}

// Entered is signalled once the armed Read has started.
func (g *GatedPort) Entered() <-chan struct{} {
	return g.entered
}

// Release lets the held Read return data.
func (g *GatedPort) Release(data []byte) {
	g.release <- data
}

func (g *GatedPort) Read(p []byte) (int, error) {
	if g.armed.CompareAndSwap(true, false) {
		g.entered <- struct{}{}
		return copy(p, <-g.release), nil
	}
	return g.MockPort.Read(p)
}

// GatedFactory returns a PortFactory that hands out port.
func GatedFactory(port *GatedPort) transport.PortFactory {
	return func(_ string, _ *serial.Mode) (transport.Port, error) {
		return port, nil
	}
}
