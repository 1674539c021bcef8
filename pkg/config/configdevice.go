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

import (
	"github.com/drvector/at28cprog/pkg/devices"
)

type Device struct {
	Port string `toml:"port,omitempty"`
	Type string `toml:"type" validate:"required,devicetype"`
}

// DevicePort returns the configured serial port, empty for auto-detect.
func (c *Instance) DevicePort() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Device.Port
}

func (c *Instance) SetDevicePort(port string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Device.Port = port
}

func (c *Instance) DeviceType() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Device.Type == "" {
		return devices.DefaultType
	}
	return c.vals.Device.Type
}

// SetDeviceType changes the selected part. Unknown types are rejected.
func (c *Instance) SetDeviceType(name string) error {
	d, err := devices.Lookup(name)
	if err != nil {
		return err //nolint:wrapcheck // lookup error already names the type
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Device.Type = d.Name
	return nil
}
