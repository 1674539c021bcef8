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

package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/drvector/at28cprog/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
	"golang.org/x/sync/errgroup"
)

const (
	// pumpReadTimeout bounds each blocking port read so the pump notices
	// Close promptly.
	pumpReadTimeout = 20 * time.Millisecond
	pumpBufferSize  = 4096
)

// SerialTransport implements Transport on top of a serial port. A background
// pump goroutine moves received bytes into an input queue, which is what
// Available and Read observe.
type SerialTransport struct {
	port    Port
	factory PortFactory
	mode    *serial.Mode
	cancel  context.CancelFunc
	group   *errgroup.Group
	readErr error
	path    string
	input   bytes.Buffer
	mu      syncutil.Mutex // protects input, readErr

	// readMu is held by the pump for the length of each port read, so
	// Discard can wait out a read in flight before clearing the queues.
	readMu syncutil.Mutex
	open   bool
}

// SerialOption customizes a SerialTransport.
type SerialOption func(*SerialTransport)

// WithPortFactory replaces the function used to open the port.
func WithPortFactory(f PortFactory) SerialOption {
	return func(t *SerialTransport) {
		t.factory = f
	}
}

// WithMode replaces the default line settings.
func WithMode(mode *serial.Mode) SerialOption {
	return func(t *SerialTransport) {
		t.mode = mode
	}
}

func NewSerial(path string, opts ...SerialOption) *SerialTransport {
	t := &SerialTransport{
		path:    path,
		factory: DefaultPortFactory,
		mode:    DefaultMode(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *SerialTransport) Path() string {
	return t.path
}

func (t *SerialTransport) Open() error {
	if t.open {
		return nil
	}

	if runtime.GOOS != "windows" {
		if _, err := os.Stat(t.path); err != nil {
			return fmt.Errorf("failed to stat device path %s: %w", t.path, err)
		}
	}

	port, err := t.factory(t.path, t.mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", t.path, err)
	}

	if err := port.SetReadTimeout(pumpReadTimeout); err != nil {
		_ = port.Close()
		return fmt.Errorf("failed to set read timeout on serial port: %w", err)
	}

	t.mu.Lock()
	t.input.Reset()
	t.readErr = nil
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)

	t.port = port
	t.cancel = cancel
	t.group = group
	t.open = true

	group.Go(func() error {
		return t.pump(ctx, port)
	})

	log.Debug().Str("path", t.path).Int("baud", t.mode.BaudRate).Msg("serial transport opened")
	return nil
}

func (t *SerialTransport) pump(ctx context.Context, port Port) error {
	buf := make([]byte, pumpBufferSize)
	for {
		if ctx.Err() != nil {
			return nil
		}

		t.readMu.Lock()
		n, err := port.Read(buf)
		if n > 0 {
			t.mu.Lock()
			_, _ = t.input.Write(buf[:n])
			t.mu.Unlock()
		}
		t.readMu.Unlock()
		if err != nil {
			if ctx.Err() != nil {
				// read failed because Close tore the port down
				return nil
			}
			log.Debug().Err(err).Str("path", t.path).Msg("serial read failed")
			t.mu.Lock()
			t.readErr = err
			t.mu.Unlock()
			return fmt.Errorf("serial read: %w", err)
		}
	}
}

func (t *SerialTransport) Close() error {
	if !t.open {
		return nil
	}

	t.cancel()
	closeErr := t.port.Close()
	waitErr := t.group.Wait()
	if waitErr != nil {
		log.Debug().Err(waitErr).Msg("serial pump exited with error")
	}

	t.open = false
	t.port = nil
	t.mu.Lock()
	t.input.Reset()
	t.mu.Unlock()

	if closeErr != nil {
		return fmt.Errorf("failed to close serial port: %w", closeErr)
	}
	log.Debug().Str("path", t.path).Msg("serial transport closed")
	return nil
}

func (t *SerialTransport) IsOpen() bool {
	return t.open
}

func (t *SerialTransport) Available() (int, error) {
	if !t.open {
		return 0, ErrNotOpen
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.input.Len() == 0 && t.readErr != nil {
		return 0, t.readErr
	}
	return t.input.Len(), nil
}

func (t *SerialTransport) Read(p []byte) (int, error) {
	if !t.open {
		return 0, ErrNotOpen
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.input.Len() == 0 {
		return 0, t.readErr
	}
	n, _ := t.input.Read(p)
	return n, nil
}

func (t *SerialTransport) Write(p []byte) (int, error) {
	if !t.open {
		return 0, ErrNotOpen
	}

	written := 0
	for written < len(p) {
		n, err := t.port.Write(p[written:])
		written += n
		if err != nil {
			return written, fmt.Errorf("failed to write to port: %w", err)
		}
		if n == 0 {
			return written, errors.New("failed to write to port: zero bytes written")
		}
	}
	return written, nil
}

// Discard waits for any port read in flight, then drops pending bytes in
// the port buffers and the input queue. Bytes from a read that started
// before Discard never reach the queue afterwards.
func (t *SerialTransport) Discard() error {
	if !t.open {
		return ErrNotOpen
	}

	t.readMu.Lock()
	defer t.readMu.Unlock()

	if err := t.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("failed to reset input buffer: %w", err)
	}
	if err := t.port.ResetOutputBuffer(); err != nil {
		return fmt.Errorf("failed to reset output buffer: %w", err)
	}

	t.mu.Lock()
	t.input.Reset()
	t.mu.Unlock()
	return nil
}
