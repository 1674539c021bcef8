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

// ProgressSink receives the cumulative byte count of a running bulk transfer.
// Calls are made synchronously from the transfer loop, so implementations
// must return quickly.
type ProgressSink interface {
	Progress(done, total int)
}

// ProgressFunc adapts a plain function to ProgressSink.
type ProgressFunc func(done, total int)

func (f ProgressFunc) Progress(done, total int) {
	f(done, total)
}

type discardProgress struct{}

func (discardProgress) Progress(int, int) {}

func sinkOrDiscard(sink ProgressSink) ProgressSink {
	if sink == nil {
		return discardProgress{}
	}
	return sink
}
