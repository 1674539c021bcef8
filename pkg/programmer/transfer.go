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

// BulkRead dumps size bytes from the device. There is no overall timeout:
// the read ends when size bytes have arrived, when ctx is done, or when the
// optional stall timeout trips. On failure the bytes received so far are
// returned together with a *TransferError.
func (s *Session) BulkRead(ctx context.Context, size int, sink ProgressSink) ([]byte, error) {
	if s.state != Connected {
		return nil, ErrNotConnected
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	sink = sinkOrDiscard(sink)
	logger := s.logger.With().Str("op", OpRead).Int("size", size).Logger()
	logger.Info().Msg("starting bulk read")

	fail := func(buf []byte, offset int, err error) ([]byte, error) {
		terr := &TransferError{Op: OpRead, Transferred: offset, Total: size, Err: err}
		logger.Error().Err(err).Int("transferred", offset).Msg("bulk read aborted")
		return buf[:offset], terr
	}

	buf := make([]byte, size)

	if err := s.transport.Discard(); err != nil {
		return fail(buf, 0, connectionLost(err))
	}
	s.lines.Reset()

	if err := s.send(protocol.ReadEEPROM(size)); err != nil {
		return fail(buf, 0, err)
	}

	clock := s.cfg.Clock
	lastByte := clock.Now()
	offset := 0
	for offset < size {
		if err := ctx.Err(); err != nil {
			return fail(buf, offset, err)
		}

		available, err := s.transport.Available()
		if err != nil {
			return fail(buf, offset, connectionLost(err))
		}

		if available > 0 {
			want := min(available, size-offset)
			n, err := s.transport.Read(buf[offset : offset+want])
			if n > 0 {
				offset += n
				lastByte = clock.Now()
				sink.Progress(offset, size)
			}
			if err != nil {
				return fail(buf, offset, connectionLost(err))
			}
			if n > 0 {
				continue
			}
		}

		if s.cfg.ReadStallTimeout > 0 && clock.Since(lastByte) >= s.cfg.ReadStallTimeout {
			return fail(buf, offset, fmt.Errorf("%w: no data for %s", ErrTransferStalled, s.cfg.ReadStallTimeout))
		}

		if err := s.wait(ctx, s.cfg.PollInterval); err != nil {
			return fail(buf, offset, err)
		}
	}

	logger.Info().Msg("bulk read complete")
	return buf, nil
}

// BulkWrite streams image into the device buffer one byte at a time,
// pausing the byte delay after each byte. The device sends no
// acknowledgement, so success means every byte was handed to the transport.
//
// With a page size configured the image is sent in blocks instead. After
// each block the firmware echoes the stored bytes, which are compared with
// what was sent before the delay and the next block. The image length must
// be a multiple of the page size.
func (s *Session) BulkWrite(ctx context.Context, image []byte, sink ProgressSink) error {
	if s.state != Connected {
		return ErrNotConnected
	}
	size := len(image)
	if size == 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	page := s.cfg.PageSize
	if page > 0 && size%page != 0 {
		return fmt.Errorf("%w: %d is not a multiple of the %d byte page", ErrInvalidSize, size, page)
	}
	if err := s.checkSize(size); err != nil {
		return err
	}

	sink = sinkOrDiscard(sink)
	logger := s.logger.With().Str("op", OpWrite).Int("size", size).Int("page", page).Logger()
	logger.Info().Msg("starting bulk write")

	fail := func(sent int, err error) error {
		logger.Error().Err(err).Int("transferred", sent).Msg("bulk write aborted")
		return &TransferError{Op: OpWrite, Transferred: sent, Total: size, Err: err}
	}

	if err := s.transport.Discard(); err != nil {
		return fail(0, connectionLost(err))
	}
	s.lines.Reset()

	cmd := protocol.WriteEEPROM(size)
	block := 1
	if page > 0 {
		cmd = protocol.WriteEEPROMPaged(size, page)
		block = page
	}
	if err := s.send(cmd); err != nil {
		return fail(0, err)
	}

	for offset := 0; offset < size; offset += block {
		if err := ctx.Err(); err != nil {
			return fail(offset, err)
		}

		chunk := image[offset : offset+block]
		if _, err := s.transport.Write(chunk); err != nil {
			return fail(offset, connectionLost(err))
		}
		if page > 0 {
			if err := s.awaitEcho(ctx, offset, chunk); err != nil {
				return fail(offset, err)
			}
		}
		sent := offset + block

		if err := s.wait(ctx, s.cfg.ByteDelay); err != nil {
			sink.Progress(sent, size)
			return fail(sent, err)
		}
		sink.Progress(sent, size)
	}

	logger.Info().Msg("bulk write complete")
	return nil
}

// awaitEcho collects the firmware's echo of a paged write block and checks
// it against the bytes sent. base is the block's address.
func (s *Session) awaitEcho(ctx context.Context, base int, sent []byte) error {
	clock := s.cfg.Clock
	echo := make([]byte, len(sent))
	got := 0
	lastByte := clock.Now()

	for got < len(sent) {
		available, err := s.transport.Available()
		if err != nil {
			return connectionLost(err)
		}

		if available > 0 {
			n, err := s.transport.Read(echo[got:min(len(sent), got+available)])
			if n > 0 {
				got += n
				lastByte = clock.Now()
			}
			if err != nil {
				return connectionLost(err)
			}
			if n > 0 {
				continue
			}
		}

		if clock.Since(lastByte) >= s.cfg.PageTimeout {
			return fmt.Errorf("%w: no echo for block at %d after %s",
				ErrTransferStalled, base, s.cfg.PageTimeout)
		}
		if err := s.wait(ctx, s.cfg.PollInterval); err != nil {
			return err
		}
	}

	for i := range sent {
		if echo[i] != sent[i] {
			return &ByteMismatchError{Address: base + i, Expected: sent[i], Actual: echo[i]}
		}
	}
	return nil
}

func (s *Session) checkSize(size int) error {
	capacity := s.cfg.Capacity
	if capacity <= 0 {
		return nil
	}

	switch s.cfg.SizePolicy {
	case SizeAtMost:
		if size > capacity {
			return &SizePolicyError{Policy: SizeAtMost, Size: size, Capacity: capacity}
		}
	case SizeExact:
		if size != capacity {
			return &SizePolicyError{Policy: SizeExact, Size: size, Capacity: capacity}
		}
	case SizeUnchecked:
	}
	return nil
}
