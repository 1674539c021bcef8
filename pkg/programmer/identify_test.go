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

package programmer_test

import (
	"context"
	"testing"
	"time"

	"github.com/drvector/at28cprog/pkg/programmer"
	"github.com/drvector/at28cprog/pkg/testing/mocks"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		firmware string
		preamble []string
		chunks   []int
	}{
		{
			name:     "direct reply",
			firmware: "1.2",
		},
		{
			name:     "skips unrelated reply",
			firmware: "2.0",
			preamble: []string{"+FOO=bar"},
		},
		{
			name:     "skips malformed lines",
			firmware: "0.004",
			preamble: []string{"AT28C programmer", "+VERSION", "=", ""},
		},
		{
			name:     "fragmented delivery",
			firmware: "0.004",
			chunks:   []int{1, 2, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, sim := connectedSim(t, 16)
			sim.Firmware = tt.firmware
			sim.Preamble = tt.preamble
			sim.Chunks = tt.chunks

			version, err := s.Identify(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.firmware, version)
			assert.Equal(t, tt.firmware, s.Firmware())
			assert.Equal(t, []string{"VERSION=?"}, sim.Commands())
		})
	}
}

func TestIdentifyTimeout(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	s, sim := connectedSim(t, 16,
		programmer.WithClock(clock),
		programmer.WithPollInterval(100*time.Millisecond),
	)
	sim.Silent = true

	start := clock.Now()
	stop := driveClock(clock, 100*time.Millisecond)
	version, err := s.Identify(context.Background())
	stop()

	require.ErrorIs(t, err, programmer.ErrIdentifyTimeout)
	assert.Empty(t, version)
	assert.Empty(t, s.Firmware())
	assert.Equal(t, programmer.DefaultIdentifyTimeout, clock.Since(start))
	// identify failure does not change the connection state
	assert.Equal(t, programmer.Connected, s.State())
}

func TestIdentifyTimeoutAfterOnlyUnrelatedLines(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	s, sim := connectedSim(t, 16,
		programmer.WithClock(clock),
		programmer.WithPollInterval(time.Second),
	)
	sim.Silent = true
	sim.Emit([]byte("+FOO=bar\r+READBYTE=1\r"))

	stop := driveClock(clock, time.Second)
	version, err := s.Identify(context.Background())
	stop()

	require.ErrorIs(t, err, programmer.ErrIdentifyTimeout)
	assert.Empty(t, version)
}

func TestIdentifyTransportFault(t *testing.T) {
	t.Parallel()

	s, sim := connectedSim(t, 16)
	sim.ReadFault = mocks.ErrSimulatedFault

	version, err := s.Identify(context.Background())
	require.ErrorIs(t, err, programmer.ErrConnectionLost)
	require.ErrorIs(t, err, mocks.ErrSimulatedFault)
	assert.Empty(t, version)
	assert.Equal(t, programmer.Connected, s.State())
}

func TestIdentifyCanceled(t *testing.T) {
	t.Parallel()

	s, sim := connectedSim(t, 16)
	sim.Silent = true

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	version, err := s.Identify(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, version)
}

func TestSetSDP(t *testing.T) {
	t.Parallel()

	s, sim := connectedSim(t, 16)
	ctx := context.Background()

	require.NoError(t, s.SetSDP(ctx, true))
	assert.True(t, sim.SDP)

	require.NoError(t, s.SetSDP(ctx, false))
	assert.False(t, sim.SDP)

	assert.Equal(t, []string{"ENABLESDP=1", "ENABLESDP=0"}, sim.Commands())
	assert.Equal(t, 2, sim.Discards())
}

func TestReadByte(t *testing.T) {
	t.Parallel()

	s, sim := connectedSim(t, 32)
	sim.Memory[0x10] = 0xAB

	got, err := s.ReadByteAt(context.Background(), 1, 0x10)
	require.NoError(t, err)
	assert.Equal(t, byte(0xAB), got)
	assert.Equal(t, []string{"READBYTE=1,16"}, sim.Commands())
}

func TestReadByteSendsROMTypeFirst(t *testing.T) {
	t.Parallel()

	s, sim := connectedSim(t, 32)
	sim.Memory[4] = 0x42
	sim.Memory[2] = 0x99

	// a device that took the first argument as the address would answer 0x99
	got, err := s.ReadByteAt(context.Background(), 2, 4)
	require.NoError(t, err)
	assert.Equal(t, byte(0x42), got)
	assert.Equal(t, []int{2}, sim.ReadByteROMTypes())
}

func TestReadByteInvalidAddress(t *testing.T) {
	t.Parallel()

	s, sim := connectedSim(t, 32)

	_, err := s.ReadByteAt(context.Background(), 0, -1)
	require.Error(t, err)
	_, err = s.ReadByteAt(context.Background(), -1, 0)
	require.Error(t, err)
	assert.Empty(t, sim.Commands())
}

func TestReadByteOutOfRangeReply(t *testing.T) {
	t.Parallel()

	s, sim := connectedSim(t, 32)
	sim.Silent = true
	sim.Emit([]byte("+READBYTE=300\r"))

	_, err := s.ReadByteAt(context.Background(), 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of byte range")
}

func TestWriteByte(t *testing.T) {
	t.Parallel()

	s, sim := connectedSim(t, 32)

	require.NoError(t, s.WriteByteAt(context.Background(), 0x10, 0xAB))
	assert.Equal(t, byte(0xAB), sim.Snapshot()[0x10])
	assert.Equal(t, []string{"WRITEBYTE=16,171"}, sim.Commands())
}

func TestWriteByteMismatch(t *testing.T) {
	t.Parallel()

	s, sim := connectedSim(t, 32)
	sim.ReadOnly = true

	err := s.WriteByteAt(context.Background(), 0x10, 0xAB)

	var mismatch *programmer.ByteMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 0x10, mismatch.Address)
	assert.Equal(t, byte(0xAB), mismatch.Expected)
	assert.Equal(t, byte(0xFF), mismatch.Actual)
	assert.Contains(t, err.Error(), "x0010")
}
