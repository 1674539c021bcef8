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

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/drvector/at28cprog/pkg/config"
	"github.com/drvector/at28cprog/pkg/devices"
	"github.com/drvector/at28cprog/pkg/helpers"
	"github.com/drvector/at28cprog/pkg/programmer"
	"github.com/drvector/at28cprog/pkg/protocol"
	"github.com/spf13/afero"
)

// Operations accepted by -op.
const (
	OpIdentify   = "identify"
	OpRead       = "read"
	OpWrite      = "write"
	OpVerify     = "verify"
	OpBlank      = "blank"
	OpSDPOn      = "sdp-on"
	OpSDPOff     = "sdp-off"
	OpReadByte   = "readbyte"
	OpWriteByte  = "writebyte"
	OpWritePaged = "writepaged"
)

var Operations = []string{
	OpIdentify, OpRead, OpWrite, OpWritePaged, OpVerify, OpBlank,
	OpSDPOn, OpSDPOff, OpReadByte, OpWriteByte,
}

var ErrUsage = errors.New("invalid usage")

// Options is a fully resolved request: flags merged over config.
type Options struct {
	Fs          afero.Fs
	Stdout      io.Writer
	Stderr      io.Writer
	Op          string
	Port        string
	File        string
	Report      string
	MinFirmware string
	Device      devices.Device
	Session     []programmer.Option
	Address     int
	Value       byte
}

// ParseNumber reads a decimal number or one prefixed with "x" or "0x" as
// hexadecimal.
func ParseNumber(s string) (int, error) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)

	var (
		v   int64
		err error
	)
	switch {
	case strings.HasPrefix(lower, "0x"):
		v, err = strconv.ParseInt(lower[2:], 16, 32)
	case strings.HasPrefix(lower, "x"):
		v, err = strconv.ParseInt(lower[1:], 16, 32)
	default:
		v, err = strconv.ParseInt(lower, 10, 32)
	}
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: invalid number %q", ErrUsage, s)
	}
	return int(v), nil
}

// Resolve merges flags over config values and validates the combination.
// The port is left empty when neither source names one.
func Resolve(cfg *config.Instance, f *Flags) (Options, error) {
	opts := Options{
		Fs:          afero.NewOsFs(),
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Op:          strings.ToLower(strings.TrimSpace(*f.Op)),
		Port:        cfg.DevicePort(),
		File:        *f.File,
		Report:      *f.Report,
		MinFirmware: cfg.MinFirmware(),
	}
	if *f.Port != "" {
		opts.Port = *f.Port
	}

	deviceType := cfg.DeviceType()
	if *f.Type != "" {
		deviceType = *f.Type
	}
	dev, err := devices.Lookup(deviceType)
	if err != nil {
		return Options{}, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	opts.Device = dev

	policy, err := programmer.ParseSizePolicy(cfg.SizePolicy())
	if err != nil {
		return Options{}, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	opts.Session = []programmer.Option{
		programmer.WithIdentifyTimeout(cfg.IdentifyTimeout()),
		programmer.WithSettleDelay(cfg.SettleDelay()),
		programmer.WithByteDelay(cfg.ByteDelay()),
		programmer.WithPollInterval(cfg.PollInterval()),
		programmer.WithReadStallTimeout(cfg.ReadStallTimeout()),
		programmer.WithSizePolicy(policy, dev.Capacity),
		programmer.WithPageTimeout(cfg.PageTimeout()),
	}
	if opts.Op == OpWritePaged {
		opts.Session = append(opts.Session, programmer.WithPageSize(protocol.PageSize))
	}

	if err := validateOp(&opts, f); err != nil {
		return Options{}, err
	}
	return opts, nil
}

func validateOp(opts *Options, f *Flags) error {
	switch opts.Op {
	case OpIdentify, OpRead, OpBlank:
	case OpWrite, OpVerify:
		if opts.File == "" {
			return fmt.Errorf("%w: -op %s requires -file", ErrUsage, opts.Op)
		}
		if opts.Op == OpWrite && !opts.Device.Writable() {
			return fmt.Errorf("%w: %s cannot be written", ErrUsage, opts.Device)
		}
	case OpWritePaged:
		if opts.File == "" {
			return fmt.Errorf("%w: -op %s requires -file", ErrUsage, opts.Op)
		}
		if !opts.Device.PagedWrite {
			return fmt.Errorf("%w: paged write is only supported by %s", ErrUsage, devices.AT28C256)
		}
	case OpSDPOn, OpSDPOff:
		if !opts.Device.SDP {
			return fmt.Errorf("%w: %s has no software data protection", ErrUsage, opts.Device.Name)
		}
	case OpReadByte, OpWriteByte:
		if *f.Addr == "" {
			return fmt.Errorf("%w: -op %s requires -addr", ErrUsage, opts.Op)
		}
		addr, err := ParseNumber(*f.Addr)
		if err != nil {
			return err
		}
		if addr > opts.Device.LastAddress() {
			return fmt.Errorf("%w: address x%04X is beyond %s", ErrUsage, addr, opts.Device)
		}
		opts.Address = addr

		if opts.Op == OpWriteByte {
			if !opts.Device.Writable() {
				return fmt.Errorf("%w: %s cannot be written", ErrUsage, opts.Device)
			}
			if *f.Value == "" {
				return fmt.Errorf("%w: -op writebyte requires -value", ErrUsage)
			}
			v, err := ParseNumber(*f.Value)
			if err != nil {
				return err
			}
			if v > 0xFF {
				return fmt.Errorf("%w: value %d does not fit in a byte", ErrUsage, v)
			}
			opts.Value = byte(v)
		}
	default:
		return fmt.Errorf("%w: unknown operation %q (valid: %s)",
			ErrUsage, opts.Op, strings.Join(Operations, ", "))
	}
	return nil
}

// ResolvePort returns opts.Port or, when empty, the single attached USB
// serial port.
func ResolvePort(opts Options) (string, error) {
	if opts.Port != "" {
		return opts.Port, nil
	}
	port, err := helpers.DetectSerialPort()
	if err != nil {
		return "", fmt.Errorf("no -port given and auto-detect failed: %w", err)
	}
	return port, nil
}
