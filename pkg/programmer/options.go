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
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// Protocol timing defaults.
const (
	DefaultIdentifyTimeout = 5 * time.Second
	DefaultSettleDelay     = 1 * time.Second
	DefaultByteDelay       = 10 * time.Millisecond
	DefaultPollInterval    = 1 * time.Millisecond
	// DefaultPageTimeout is how long a paged write waits for the next byte
	// of a block echo.
	DefaultPageTimeout = 100 * time.Millisecond
)

// SizePolicy decides how a write image is checked against device capacity.
type SizePolicy int

const (
	// SizeUnchecked sends any non-empty image.
	SizeUnchecked SizePolicy = iota
	// SizeAtMost rejects images larger than the capacity.
	SizeAtMost
	// SizeExact rejects images whose length differs from the capacity.
	SizeExact
)

var sizePolicyNames = map[SizePolicy]string{
	SizeUnchecked: "unchecked",
	SizeAtMost:    "at_most",
	SizeExact:     "exact",
}

func (p SizePolicy) String() string {
	if s, ok := sizePolicyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("SizePolicy(%d)", int(p))
}

// ParseSizePolicy maps a config value to a SizePolicy. Empty means unchecked.
func ParseSizePolicy(s string) (SizePolicy, error) {
	if s == "" {
		return SizeUnchecked, nil
	}
	for p, name := range sizePolicyNames {
		if strings.EqualFold(s, name) {
			return p, nil
		}
	}
	return SizeUnchecked, fmt.Errorf("unknown size policy: %s", s)
}

// Config holds session timing and policy settings.
type Config struct {
	Clock           clockwork.Clock
	IdentifyTimeout time.Duration
	SettleDelay     time.Duration
	ByteDelay       time.Duration
	PollInterval    time.Duration
	// ReadStallTimeout aborts a bulk read when no byte arrives for this
	// long. Zero waits forever; cancel through the context instead.
	ReadStallTimeout time.Duration
	SizePolicy       SizePolicy
	// PageSize switches bulk writes to paged mode when non-zero: the image
	// is sent in blocks of PageSize bytes and each block's echo is checked.
	PageSize    int
	PageTimeout time.Duration
	// Capacity is the selected device size in bytes, used by SizePolicy.
	// Zero disables the check regardless of policy.
	Capacity int
}

func defaultConfig() Config {
	return Config{
		Clock:           clockwork.NewRealClock(),
		IdentifyTimeout: DefaultIdentifyTimeout,
		SettleDelay:     DefaultSettleDelay,
		ByteDelay:       DefaultByteDelay,
		PollInterval:    DefaultPollInterval,
		PageTimeout:     DefaultPageTimeout,
		SizePolicy:      SizeUnchecked,
	}
}

// Option is a functional option for configuring a Session.
type Option func(*Config)

// WithClock replaces the clock used for every wait and deadline.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Config) {
		if clock != nil {
			c.Clock = clock
		}
	}
}

// WithIdentifyTimeout sets the reply window for identify and the single-byte
// commands.
func WithIdentifyTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.IdentifyTimeout = d
		}
	}
}

// WithSettleDelay sets the wait between opening the port and the first
// command.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.SettleDelay = d
		}
	}
}

// WithByteDelay sets the pause after every byte of a bulk write, or after
// every block in paged mode.
func WithByteDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.ByteDelay = d
		}
	}
}

// WithPollInterval sets the idle wait between two empty polls.
func WithPollInterval(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.PollInterval = d
		}
	}
}

// WithReadStallTimeout bounds how long a bulk read may go without receiving
// a byte. Zero keeps the unbounded wait.
func WithReadStallTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.ReadStallTimeout = d
		}
	}
}

// WithSizePolicy checks write images against capacity bytes.
func WithSizePolicy(policy SizePolicy, capacity int) Option {
	return func(c *Config) {
		c.SizePolicy = policy
		c.Capacity = capacity
	}
}

// WithPageSize enables paged writes with blocks of size bytes. Zero keeps
// the byte-at-a-time write.
func WithPageSize(size int) Option {
	return func(c *Config) {
		if size >= 0 {
			c.PageSize = size
		}
	}
}

// WithPageTimeout bounds the wait for each byte of a paged write echo.
func WithPageTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.PageTimeout = d
		}
	}
}
