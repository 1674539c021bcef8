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

const (
	SizePolicyUnchecked = "unchecked"
	SizePolicyAtMost    = "at_most"
	SizePolicyExact     = "exact"

	DefaultMinFirmware = "0.004"
)

type Policy struct {
	// Size is how a write image is checked against the device capacity.
	Size string `toml:"size" validate:"omitempty,oneof=unchecked at_most exact"`
	// MinFirmware is the oldest firmware accepted without a warning.
	MinFirmware string `toml:"min_firmware,omitempty" validate:"omitempty,firmware"`
}

func (c *Instance) SizePolicy() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Policy.Size == "" {
		return SizePolicyUnchecked
	}
	return c.vals.Policy.Size
}

func (c *Instance) MinFirmware() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Policy.MinFirmware
}
