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

// Package programmer implements the host side of the AT28C programmer
// protocol: connection state, identity query and bulk transfers.
//
// A Session is not safe for concurrent use. The protocol has no
// multiplexing, so callers must issue one operation at a time.
package programmer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/drvector/at28cprog/pkg/protocol"
	"github.com/drvector/at28cprog/pkg/transport"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ConnectionState is the session's view of the link.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("ConnectionState(%d)", int(s))
	}
}

// Session owns a Transport and drives the programmer protocol over it.
type Session struct {
	transport transport.Transport
	logger    zerolog.Logger
	id        string
	firmware  string
	lines     protocol.LineBuffer
	cfg       Config
	state     ConnectionState
}

// New creates a disconnected Session. The session takes exclusive ownership
// of t; nothing else may read or write it while the session exists.
func New(t transport.Transport, opts ...Option) *Session {
	if t == nil {
		panic("transport cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	id := uuid.New().String()
	return &Session{
		transport: t,
		cfg:       cfg,
		id:        id,
		logger:    log.With().Str("session", id).Logger(),
	}
}

// ID returns the identifier attached to this session's log lines.
func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() ConnectionState {
	return s.state
}

// Config returns the effective session settings.
func (s *Session) Config() Config {
	return s.cfg
}

// Firmware returns the version string from the last successful Identify.
func (s *Session) Firmware() string {
	return s.firmware
}

// Connect opens the transport. On failure the session stays Disconnected
// and the returned error wraps ErrConnectFailed.
func (s *Session) Connect() error {
	if s.state == Connected {
		return nil
	}

	if err := s.transport.Open(); err != nil {
		s.logger.Error().Err(err).Msg("failed to open transport")
		return fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}
	if !s.transport.IsOpen() {
		s.logger.Error().Msg("transport reports closed after open")
		if err := s.transport.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("error while closing half-open transport")
		}
		return fmt.Errorf("%w: transport not open after open", ErrConnectFailed)
	}

	s.lines.Reset()
	s.state = Connected
	s.logger.Info().Msg("programmer connected")
	return nil
}

// Disconnect closes the transport unconditionally. It is a no-op when the
// session is already disconnected.
func (s *Session) Disconnect() error {
	if s.state == Disconnected && !s.transport.IsOpen() {
		return nil
	}

	err := s.transport.Close()
	if s.transport.IsOpen() {
		if err == nil {
			err = errors.New("transport still open after close")
		}
		return fmt.Errorf("failed to disconnect: %w", err)
	}

	s.state = Disconnected
	s.firmware = ""
	if err != nil {
		s.logger.Warn().Err(err).Msg("error while closing transport")
	}
	s.logger.Info().Msg("programmer disconnected")
	return nil
}

// Settle waits for the device to finish the reset it performs whenever the
// port is opened.
func (s *Session) Settle(ctx context.Context) error {
	if s.state != Connected {
		return ErrNotConnected
	}
	return s.wait(ctx, s.cfg.SettleDelay)
}

// Open connects, waits for the device to settle and identifies it. When no
// identity can be obtained the session is disconnected again, so a returned
// error always leaves the session Disconnected.
func (s *Session) Open(ctx context.Context) (string, error) {
	if err := s.Connect(); err != nil {
		return "", err
	}

	if err := s.Settle(ctx); err != nil {
		s.closeAfterFailure()
		return "", err
	}

	version, err := s.Identify(ctx)
	if err != nil {
		s.closeAfterFailure()
		return "", err
	}

	return version, nil
}

func (s *Session) closeAfterFailure() {
	if err := s.Disconnect(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to disconnect after failed open")
	}
}

// wait blocks for d on the session clock, returning early with the context
// error when ctx is done.
func (s *Session) wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err //nolint:wrapcheck // context errors are returned as-is
	}
	if d <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err() //nolint:wrapcheck // context errors are returned as-is
	case <-s.cfg.Clock.After(d):
		return nil
	}
}

func (s *Session) send(cmd protocol.Command) error {
	s.logger.Debug().Str("command", cmd.String()).Msg("sending command")
	if _, err := s.transport.Write(cmd.Encode()); err != nil {
		return connectionLost(err)
	}
	return nil
}
