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
	"fmt"
	"testing"

	"github.com/drvector/at28cprog/pkg/devices"
	"pgregory.net/rapid"
)

// TestPropertyTimingSignValidation verifies only non-negative delays pass and
// that the identify window and poll interval must be positive.
func TestPropertyTimingSignValidation(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		vals := BaseDefaults
		vals.Timing = Timing{
			IdentifyTimeoutMs:  rapid.IntRange(-10, 10).Draw(t, "identify"),
			SettleDelayMs:      rapid.IntRange(-10, 10).Draw(t, "settle"),
			ByteDelayMs:        rapid.IntRange(-10, 10).Draw(t, "byte"),
			PollIntervalMs:     rapid.IntRange(-10, 10).Draw(t, "poll"),
			ReadStallTimeoutMs: rapid.IntRange(-10, 10).Draw(t, "stall"),
			PageTimeoutMs:      rapid.IntRange(-10, 10).Draw(t, "page"),
		}

		tm := vals.Timing
		wantOK := tm.IdentifyTimeoutMs > 0 && tm.PollIntervalMs > 0 &&
			tm.SettleDelayMs >= 0 && tm.ByteDelayMs >= 0 && tm.ReadStallTimeoutMs >= 0 &&
			tm.PageTimeoutMs >= 0

		err := Validate(vals)
		if wantOK && err != nil {
			t.Fatalf("valid timing rejected: %+v: %v", tm, err)
		}
		if !wantOK && err == nil {
			t.Fatalf("invalid timing accepted: %+v", tm)
		}
	})
}

// TestPropertyDeviceTypeValidation verifies the device type check agrees
// with the catalog, ignoring case.
func TestPropertyDeviceTypeValidation(t *testing.T) {
	t.Parallel()
	names := append(devices.Names(), "AT28C512", "27C256", "at28c64", "x")
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.SampledFrom(names).Draw(t, "name")
		vals := BaseDefaults
		vals.Device.Type = name

		err := Validate(vals)
		if devices.IsKnown(name) != (err == nil) {
			t.Fatalf("type %q: known=%v err=%v", name, devices.IsKnown(name), err)
		}
	})
}

// TestPropertyMinFirmwareValidation verifies any dotted version passes.
func TestPropertyMinFirmwareValidation(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		major := rapid.IntRange(0, 9).Draw(t, "major")
		minor := rapid.IntRange(0, 999).Draw(t, "minor")
		vals := BaseDefaults
		vals.Policy.MinFirmware = fmt.Sprintf("%d.%03d", major, minor)

		if err := Validate(vals); err != nil {
			t.Fatalf("version %q rejected: %v", vals.Policy.MinFirmware, err)
		}
	})
}
