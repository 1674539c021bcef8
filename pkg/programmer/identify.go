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
	"context"
	"fmt"

	"github.com/drvector/at28cprog/pkg/protocol"
)

const replyBufferSize = 256

// Identify asks the firmware for its version. It returns an empty string and
// ErrIdentifyTimeout when no "+VERSION" line arrives within the identify
// window, or ErrConnectionLost on a transport fault. Unrelated or malformed
// lines received meanwhile are ignored.
func (s *Session) Identify(ctx context.Context) (string, error) {
	resp, err := s.request(ctx, protocol.VersionQuery(), protocol.VerbVersion)
	if err != nil {
		s.logger.Warn().Err(err).Msg("device did not identify")
		return "", err
	}

	s.firmware = resp.Value
	s.logger.Info().Str("firmware", resp.Value).Msg("device identified")
	return resp.Value, nil
}

// SetSDP enables or disables software data protection. The firmware sends
// no reply to this command.
func (s *Session) SetSDP(ctx context.Context, enable bool) error {
	if s.state != Connected {
		return ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err //nolint:wrapcheck // context errors are returned as-is
	}

	if err := s.transport.Discard(); err != nil {
		return connectionLost(err)
	}
	s.lines.Reset()

	return s.send(protocol.EnableSDP(enable))
}

// ReadByteAt reads the byte stored at address. romType is the catalog index
// of the selected chip, which the firmware needs to pick its read timing.
func (s *Session) ReadByteAt(ctx context.Context, romType, address int) (byte, error) {
	if address < 0 {
		return 0, fmt.Errorf("invalid address: %d", address)
	}
	if romType < 0 {
		return 0, fmt.Errorf("invalid rom type: %d", romType)
	}

	resp, err := s.request(ctx, protocol.ReadByte(romType, address), protocol.VerbReadByte)
	if err != nil {
		return 0, err
	}
	return replyByte(resp)
}

// WriteByteAt stores value at address and checks the byte the firmware reads
// back. A differing read-back is reported as *ByteMismatchError.
func (s *Session) WriteByteAt(ctx context.Context, address int, value byte) error {
	if address < 0 {
		return fmt.Errorf("invalid address: %d", address)
	}

	resp, err := s.request(ctx, protocol.WriteByte(address, value), protocol.VerbWriteByte)
	if err != nil {
		return err
	}

	got, err := replyByte(resp)
	if err != nil {
		return err
	}
	if got != value {
		return &ByteMismatchError{Address: address, Expected: value, Actual: got}
	}
	return nil
}

func replyByte(resp protocol.Response) (byte, error) {
	v, err := resp.Int()
	if err != nil {
		return 0, fmt.Errorf("failed to parse reply: %w", err)
	}
	if v < 0 || v > 0xFF {
		return 0, fmt.Errorf("reply %s out of byte range: %d", resp.Key, v)
	}
	return byte(v), nil
}

// request writes cmd and polls for the reply line answering verb until the
// identify window, measured from the call, expires.
func (s *Session) request(
	ctx context.Context,
	cmd protocol.Command,
	verb string,
) (protocol.Response, error) {
	if s.state != Connected {
		return protocol.Response{}, ErrNotConnected
	}

	clock := s.cfg.Clock
	deadline := clock.Now().Add(s.cfg.IdentifyTimeout)
	s.lines.Reset()

	if err := s.send(cmd); err != nil {
		return protocol.Response{}, err
	}

	buf := make([]byte, replyBufferSize)
	for {
		available, err := s.transport.Available()
		if err != nil {
			return protocol.Response{}, connectionLost(err)
		}

		if available > 0 {
			n, err := s.transport.Read(buf[:min(available, len(buf))])
			if err != nil {
				return protocol.Response{}, connectionLost(err)
			}
			for _, line := range s.lines.Feed(buf[:n]) {
				resp, ok := protocol.ParseResponse(line)
				if !ok || !resp.Is(verb) {
					s.logger.Debug().Str("line", line).Str("waiting_for", verb).Msg("ignoring line")
					continue
				}
				return resp, nil
			}
		}

		if !clock.Now().Before(deadline) {
			return protocol.Response{}, fmt.Errorf("%w: %s after %s",
				ErrIdentifyTimeout, verb, s.cfg.IdentifyTimeout)
		}

		if available == 0 {
			if err := s.wait(ctx, s.cfg.PollInterval); err != nil {
				return protocol.Response{}, err
			}
		}
	}
}
