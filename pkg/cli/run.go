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
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/drvector/at28cprog/internal/telemetry"
	"github.com/drvector/at28cprog/pkg/config"
	"github.com/drvector/at28cprog/pkg/image"
	"github.com/drvector/at28cprog/pkg/programmer"
	"github.com/drvector/at28cprog/pkg/protocol"
	"github.com/drvector/at28cprog/pkg/transport"
	"github.com/rs/zerolog/log"
)

var (
	ErrVerifyFailed = errors.New("verify failed")
	ErrNotBlank     = errors.New("device is not blank")
)

// percentProgress prints a percentage line whenever the value changes.
type percentProgress struct {
	w     io.Writer
	label string
	last  int
}

func newPercentProgress(w io.Writer, label string) *percentProgress {
	return &percentProgress{w: w, label: label, last: -1}
}

func (p *percentProgress) Progress(done, total int) {
	if total <= 0 {
		return
	}
	pct := done * 100 / total
	if pct == p.last {
		return
	}
	p.last = pct
	_, _ = fmt.Fprintf(p.w, "%s percent: %d%%\r", p.label, pct)
	if done == total {
		_, _ = fmt.Fprintln(p.w)
	}
}

// Execute resolves flags against cfg, opens the serial port and runs the
// requested operation. ctx cancels a running transfer.
func Execute(ctx context.Context, cfg *config.Instance, f *Flags) error {
	if *f.Debug {
		cfg.SetDebugLogging(true)
	}

	opts, err := Resolve(cfg, f)
	if err != nil {
		return err
	}

	port, err := ResolvePort(opts)
	if err != nil {
		return err
	}
	log.Info().Str("port", port).Str("op", opts.Op).Str("device", opts.Device.Name).Msg("starting")
	opts.Port = port

	return Run(ctx, opts, transport.NewSerial(port))
}

// Run opens a session on t, runs opts.Op and disconnects.
//
//nolint:gocritic // options struct copied for immutability
func Run(ctx context.Context, opts Options, t transport.Transport) error {
	s := programmer.New(t, opts.Session...)

	version, err := s.Open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open programmer: %w", err)
	}
	defer func() {
		if err := s.Disconnect(); err != nil {
			log.Warn().Err(err).Msg("failed to disconnect")
		}
	}()

	_, _ = fmt.Fprintf(opts.Stderr, "programmer firmware %s, device %s\n", version, opts.Device)
	checkFirmware(opts.Stderr, opts.MinFirmware, version)
	telemetry.SetSession(telemetry.Session{
		Op:       opts.Op,
		Device:   opts.Device.Name,
		ROMType:  opts.Device.ROMType,
		Firmware: version,
		Port:     opts.Port,
	})

	switch opts.Op {
	case OpIdentify:
		_, _ = fmt.Fprintln(opts.Stdout, version)
		return nil
	case OpRead:
		return runRead(ctx, s, opts)
	case OpWrite, OpWritePaged:
		return runWrite(ctx, s, opts)
	case OpVerify:
		return runVerify(ctx, s, opts)
	case OpBlank:
		return runBlank(ctx, s, opts)
	case OpSDPOn, OpSDPOff:
		enable := opts.Op == OpSDPOn
		if err := s.SetSDP(ctx, enable); err != nil {
			return fmt.Errorf("failed to set software data protection: %w", err)
		}
		state := "disabled"
		if enable {
			state = "enabled"
		}
		_, _ = fmt.Fprintf(opts.Stdout, "software data protection %s\n", state)
		return nil
	case OpReadByte:
		c, err := s.ReadByteAt(ctx, opts.Device.ROMType, opts.Address)
		if err != nil {
			return fmt.Errorf("failed to read byte: %w", err)
		}
		_, _ = fmt.Fprintf(opts.Stdout, "read byte %d [x%02X] at address %d [x%04X]\n",
			c, c, opts.Address, opts.Address)
		return nil
	case OpWriteByte:
		if err := s.WriteByteAt(ctx, opts.Address, opts.Value); err != nil {
			return fmt.Errorf("failed to write byte: %w", err)
		}
		_, _ = fmt.Fprintf(opts.Stdout, "written byte %d [x%02X] at address %d [x%04X]\n",
			opts.Value, opts.Value, opts.Address, opts.Address)
		return nil
	default:
		return fmt.Errorf("%w: unknown operation %q", ErrUsage, opts.Op)
	}
}

func checkFirmware(w io.Writer, minimum, version string) {
	if minimum == "" {
		return
	}
	minV, err := protocol.ParseFirmwareVersion(minimum)
	if err != nil {
		log.Warn().Err(err).Msg("invalid minimum firmware version")
		return
	}

	v, err := protocol.ParseFirmwareVersion(version)
	if err != nil {
		log.Warn().Err(err).Msg("unrecognised firmware version")
		_, _ = fmt.Fprintf(w, "warning: unrecognised firmware version %q\n", version)
		return
	}
	if v.Compare(minV) < 0 {
		log.Warn().Str("firmware", v.String()).Str("minimum", minV.String()).Msg("firmware too old")
		_, _ = fmt.Fprintf(w, "warning: firmware %s is older than %s, please upgrade\n", v, minV)
	}
}

//nolint:gocritic // options struct copied for immutability
func runRead(ctx context.Context, s *programmer.Session, opts Options) error {
	data, err := s.BulkRead(ctx, opts.Device.Capacity, newPercentProgress(opts.Stderr, "<- read"))
	if err != nil {
		if opts.File != "" && len(data) > 0 {
			if saveErr := image.Save(opts.Fs, opts.File, data); saveErr != nil {
				log.Error().Err(saveErr).Msg("failed to save partial dump")
			} else {
				_, _ = fmt.Fprintf(opts.Stderr, "partial dump of %d bytes saved to %s\n", len(data), opts.File)
			}
		}
		return fmt.Errorf("read failed: %w", err)
	}

	if opts.File == "" {
		if err := image.HexDump(opts.Stdout, data); err != nil {
			return fmt.Errorf("failed to print dump: %w", err)
		}
		return nil
	}

	if err := image.Save(opts.Fs, opts.File, data); err != nil {
		return err //nolint:wrapcheck // image errors carry context
	}
	_, _ = fmt.Fprintf(opts.Stdout, "read %d bytes to %s\n", len(data), opts.File)
	return nil
}

//nolint:gocritic // options struct copied for immutability
func runWrite(ctx context.Context, s *programmer.Session, opts Options) error {
	img, err := image.Load(opts.Fs, opts.File, 0)
	if err != nil {
		return err //nolint:wrapcheck // image errors carry context
	}

	if err := s.BulkWrite(ctx, img, newPercentProgress(opts.Stderr, "-> write")); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	_, _ = fmt.Fprintf(opts.Stdout, "wrote %d bytes from %s\n", len(img), opts.File)
	return nil
}

//nolint:gocritic // options struct copied for immutability
func runVerify(ctx context.Context, s *programmer.Session, opts Options) error {
	img, err := image.Load(opts.Fs, opts.File, opts.Device.Capacity)
	if err != nil {
		return err //nolint:wrapcheck // image errors carry context
	}

	data, err := s.BulkRead(ctx, len(img), newPercentProgress(opts.Stderr, "<- verify"))
	if err != nil {
		return fmt.Errorf("verify read failed: %w", err)
	}

	return report(opts, image.Compare(img, data), ErrVerifyFailed)
}

//nolint:gocritic // options struct copied for immutability
func runBlank(ctx context.Context, s *programmer.Session, opts Options) error {
	data, err := s.BulkRead(ctx, opts.Device.Capacity, newPercentProgress(opts.Stderr, "<- blank check"))
	if err != nil {
		return fmt.Errorf("blank check read failed: %w", err)
	}

	return report(opts, image.BlankCheck(data), ErrNotBlank)
}

//nolint:gocritic // options struct copied for immutability
func report(opts Options, res image.Result, failure error) error {
	if opts.Report != "" {
		if err := image.SaveReport(opts.Fs, opts.Report, res.Mismatches); err != nil {
			return err //nolint:wrapcheck // image errors carry context
		}
	}

	if res.OK() {
		_, _ = fmt.Fprintf(opts.Stdout, "OK: %d bytes checked\n", res.Compared)
		return nil
	}

	for _, m := range res.Shown(image.DisplayLimit) {
		_, _ = fmt.Fprintf(opts.Stdout, "-> %s\n", m)
	}
	if hidden := len(res.Mismatches) - image.DisplayLimit; hidden > 0 {
		_, _ = fmt.Fprintf(opts.Stdout, "... and %d more\n", hidden)
	}
	return fmt.Errorf("%w: %d of %d bytes differ", failure, len(res.Mismatches), res.Compared)
}
