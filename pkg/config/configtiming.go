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

package config

import "time"

const (
	DefaultIdentifyTimeoutMs  = 5000
	DefaultSettleDelayMs      = 1000
	DefaultByteDelayMs        = 10
	DefaultPollIntervalMs     = 1
	DefaultReadStallTimeoutMs = 10000
	DefaultPageTimeoutMs      = 100
)

// Timing values are in milliseconds. A read stall timeout of zero waits
// for the device forever. The page timeout bounds the wait for each byte
// of a paged write echo; zero keeps the built-in default.
type Timing struct {
	IdentifyTimeoutMs  int `toml:"identify_timeout_ms" validate:"gt=0"`
	SettleDelayMs      int `toml:"settle_delay_ms" validate:"gte=0"`
	ByteDelayMs        int `toml:"byte_delay_ms" validate:"gte=0"`
	PollIntervalMs     int `toml:"poll_interval_ms" validate:"gt=0"`
	ReadStallTimeoutMs int `toml:"read_stall_timeout_ms" validate:"gte=0"`
	PageTimeoutMs      int `toml:"page_timeout_ms" validate:"gte=0"`
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func (c *Instance) IdentifyTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ms(c.vals.Timing.IdentifyTimeoutMs)
}

func (c *Instance) SettleDelay() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ms(c.vals.Timing.SettleDelayMs)
}

func (c *Instance) ByteDelay() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ms(c.vals.Timing.ByteDelayMs)
}

func (c *Instance) PollInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ms(c.vals.Timing.PollIntervalMs)
}

func (c *Instance) ReadStallTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ms(c.vals.Timing.ReadStallTimeoutMs)
}

func (c *Instance) PageTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ms(c.vals.Timing.PageTimeoutMs)
}
