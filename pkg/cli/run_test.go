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
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/drvector/at28cprog/pkg/devices"
	"github.com/drvector/at28cprog/pkg/image"
	"github.com/drvector/at28cprog/pkg/programmer"
	"github.com/drvector/at28cprog/pkg/protocol"
	"github.com/drvector/at28cprog/pkg/testing/mocks"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runEnv struct {
	opts   Options
	sim    *mocks.DeviceSimulator
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newRunEnv(t *testing.T, op, deviceType string) *runEnv {
	t.Helper()

	dev, err := devices.Lookup(deviceType)
	require.NoError(t, err)

	env := &runEnv{
		sim:    mocks.NewDeviceSimulator("0.004", dev.Capacity),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	env.opts = Options{
		Fs:          afero.NewMemMapFs(),
		Stdout:      env.stdout,
		Stderr:      env.stderr,
		Op:          op,
		Device:      dev,
		MinFirmware: "0.004",
		Session: []programmer.Option{
			programmer.WithSettleDelay(0),
			programmer.WithByteDelay(0),
			programmer.WithIdentifyTimeout(100 * time.Millisecond),
			programmer.WithSizePolicy(programmer.SizeAtMost, dev.Capacity),
		},
	}
	return env
}

func (e *runEnv) run() error {
	return Run(context.Background(), e.opts, e.sim)
}

func TestRunIdentify(t *testing.T) {
	t.Parallel()

	env := newRunEnv(t, OpIdentify, devices.AT28C64)
	require.NoError(t, env.run())

	assert.Equal(t, "0.004\n", env.stdout.String())
	assert.Contains(t, env.stderr.String(), "programmer firmware 0.004, device AT28C64")
	assert.NotContains(t, env.stderr.String(), "warning")
	assert.False(t, env.sim.IsOpen(), "session is closed after the operation")
}

func TestRunOldFirmwareWarns(t *testing.T) {
	t.Parallel()

	env := newRunEnv(t, OpIdentify, devices.AT28C64)
	env.sim.Firmware = "0.003"
	require.NoError(t, env.run())
	assert.Contains(t, env.stderr.String(), "warning: firmware 0.003 is older than 0.004")

	env = newRunEnv(t, OpIdentify, devices.AT28C64)
	env.sim.Firmware = "beta"
	require.NoError(t, env.run())
	assert.Contains(t, env.stderr.String(), `unrecognised firmware version "beta"`)
}

func TestRunOpenFailure(t *testing.T) {
	t.Parallel()

	env := newRunEnv(t, OpRead, devices.AT28C64)
	env.sim.OpenErr = errors.New("permission denied")

	err := env.run()
	require.ErrorIs(t, err, programmer.ErrConnectFailed)
	assert.Empty(t, env.sim.Commands())
}

func TestRunNoIdentity(t *testing.T) {
	t.Parallel()

	env := newRunEnv(t, OpRead, devices.AT28C64)
	env.sim.Silent = true

	err := env.run()
	require.ErrorIs(t, err, programmer.ErrIdentifyTimeout)
	assert.Equal(t, []string{"VERSION=?"}, env.sim.Commands())
	assert.False(t, env.sim.IsOpen())
}

func TestRunReadToFile(t *testing.T) {
	t.Parallel()

	env := newRunEnv(t, OpRead, devices.AT28C64)
	for i := range env.sim.Memory {
		env.sim.Memory[i] = byte(i)
	}
	env.opts.File = "/dumps/rom.bin"

	require.NoError(t, env.run())

	got, err := afero.ReadFile(env.opts.Fs, "/dumps/rom.bin")
	require.NoError(t, err)
	assert.Equal(t, env.sim.Snapshot(), got)
	assert.Contains(t, env.stdout.String(), "read 8192 bytes to /dumps/rom.bin")
	assert.Contains(t, env.stderr.String(), "<- read percent: 100%")
}

func TestRunReadHexDump(t *testing.T) {
	t.Parallel()

	env := newRunEnv(t, OpRead, devices.AT28C64)
	require.NoError(t, env.run())

	lines := strings.Split(strings.TrimSpace(env.stdout.String()), "\n")
	assert.Len(t, lines, 8192/16)
	assert.True(t, strings.HasPrefix(lines[0], "x0000:  xFF xFF"))
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "x1FF0:"))
}

func TestRunReadPartialSaved(t *testing.T) {
	t.Parallel()

	env := newRunEnv(t, OpRead, devices.AT28C64)
	env.sim.ReadFault = mocks.ErrSimulatedFault
	env.sim.ReadFaultAfter = 100
	env.opts.File = "/rom.bin"

	err := env.run()
	require.ErrorIs(t, err, programmer.ErrConnectionLost)

	var terr *programmer.TransferError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, 100, terr.Transferred)

	got, readErr := afero.ReadFile(env.opts.Fs, "/rom.bin")
	require.NoError(t, readErr)
	assert.Len(t, got, 100)
	assert.Contains(t, env.stderr.String(), "partial dump of 100 bytes saved")
}

func TestRunWrite(t *testing.T) {
	t.Parallel()

	env := newRunEnv(t, OpWrite, devices.AT28C64)
	img := []byte("HELLO EEPROM")
	require.NoError(t, afero.WriteFile(env.opts.Fs, "/hello.bin", img, 0o600))
	env.opts.File = "/hello.bin"

	require.NoError(t, env.run())

	assert.Equal(t, img, env.sim.Snapshot()[:len(img)])
	assert.Contains(t, env.sim.Commands(), "WRITEEEPROM=12")
	assert.Contains(t, env.stdout.String(), "wrote 12 bytes from /hello.bin")
	assert.Contains(t, env.stderr.String(), "-> write percent: 100%")
}

func TestRunWritePaged(t *testing.T) {
	t.Parallel()

	env := newRunEnv(t, OpWritePaged, devices.AT28C256)
	env.opts.Session = append(env.opts.Session, programmer.WithPageSize(protocol.PageSize))
	img := make([]byte, 4*protocol.PageSize)
	for i := range img {
		img[i] = byte(i)
	}
	require.NoError(t, afero.WriteFile(env.opts.Fs, "/paged.bin", img, 0o600))
	env.opts.File = "/paged.bin"

	require.NoError(t, env.run())

	assert.Equal(t, img, env.sim.Snapshot()[:len(img)])
	assert.Contains(t, env.sim.Commands(), "WRITEEEPROM=256,64")
	assert.Contains(t, env.stdout.String(), "wrote 256 bytes from /paged.bin")
	assert.Contains(t, env.stderr.String(), "-> write percent: 100%")
}

func TestRunWriteTooLarge(t *testing.T) {
	t.Parallel()

	env := newRunEnv(t, OpWrite, devices.AT28C64)
	require.NoError(t, afero.WriteFile(env.opts.Fs, "/big.bin", make([]byte, 8193), 0o600))
	env.opts.File = "/big.bin"

	err := env.run()

	var perr *programmer.SizePolicyError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 8193, perr.Size)
	assert.Equal(t, []string{"VERSION=?"}, env.sim.Commands())
}

func TestRunWriteMissingFile(t *testing.T) {
	t.Parallel()

	env := newRunEnv(t, OpWrite, devices.AT28C64)
	env.opts.File = "/missing.bin"

	require.Error(t, env.run())
	assert.False(t, env.sim.IsOpen())
}

func TestRunVerify(t *testing.T) {
	t.Parallel()

	env := newRunEnv(t, OpVerify, devices.AT28C64)
	img := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	copy(env.sim.Memory, img)
	require.NoError(t, afero.WriteFile(env.opts.Fs, "/img.bin", img, 0o600))
	env.opts.File = "/img.bin"

	require.NoError(t, env.run())
	assert.Contains(t, env.stdout.String(), "OK: 8 bytes checked")
	assert.Contains(t, env.sim.Commands(), "READEEPROM=8")
}

func TestRunVerifyMismatchReport(t *testing.T) {
	t.Parallel()

	env := newRunEnv(t, OpVerify, devices.AT28C64)
	img := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	require.NoError(t, afero.WriteFile(env.opts.Fs, "/img.bin", img, 0o600))
	copy(env.sim.Memory, []byte{1, 2, 3})
	env.opts.File = "/img.bin"
	env.opts.Report = "/report.csv"

	err := env.run()
	require.ErrorIs(t, err, ErrVerifyFailed)
	assert.Contains(t, err.Error(), "5 of 8 bytes differ")

	out := env.stdout.String()
	assert.Contains(t, out, "-> address: 0x0003, device byte: 0xFF, expected: 0x04")
	assert.Contains(t, out, "... and 2 more")
	assert.Equal(t, image.DisplayLimit, strings.Count(out, "-> address"))

	rows, err := image.LoadReport(env.opts.Fs, "/report.csv")
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}

func TestRunBlank(t *testing.T) {
	t.Parallel()

	env := newRunEnv(t, OpBlank, devices.M2764)
	require.NoError(t, env.run())
	assert.Contains(t, env.stdout.String(), "OK: 8192 bytes checked")

	env = newRunEnv(t, OpBlank, devices.M2764)
	env.sim.Memory[0x100] = 0x00
	err := env.run()
	require.ErrorIs(t, err, ErrNotBlank)
	assert.Contains(t, env.stdout.String(), "-> address: 0x0100, device byte: 0x00, expected: 0xFF")
}

func TestRunSDP(t *testing.T) {
	t.Parallel()

	env := newRunEnv(t, OpSDPOn, devices.AT28C256)
	require.NoError(t, env.run())
	assert.True(t, env.sim.SDP)
	assert.Contains(t, env.stdout.String(), "software data protection enabled")

	env.opts.Op = OpSDPOff
	env.stdout.Reset()
	require.NoError(t, env.run())
	assert.False(t, env.sim.SDP)
	assert.Contains(t, env.stdout.String(), "software data protection disabled")
}

func TestRunSingleByte(t *testing.T) {
	t.Parallel()

	env := newRunEnv(t, OpWriteByte, devices.AT28C256)
	env.opts.Address = 0x10
	env.opts.Value = 0xAB
	require.NoError(t, env.run())
	assert.Equal(t, "written byte 171 [xAB] at address 16 [x0010]\n", env.stdout.String())

	env.opts.Op = OpReadByte
	env.stdout.Reset()
	require.NoError(t, env.run())
	assert.Equal(t, "read byte 171 [xAB] at address 16 [x0010]\n", env.stdout.String())
	assert.Equal(t, []int{env.opts.Device.ROMType}, env.sim.ReadByteROMTypes())
}

func TestRunWriteByteMismatch(t *testing.T) {
	t.Parallel()

	env := newRunEnv(t, OpWriteByte, devices.AT28C256)
	env.sim.ReadOnly = true
	env.opts.Address = 1
	env.opts.Value = 0x00

	err := env.run()
	var mismatch *programmer.ByteMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestRunCanceled(t *testing.T) {
	t.Parallel()

	env := newRunEnv(t, OpRead, devices.AT28C64)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, env.opts, env.sim)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPercentProgress(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := newPercentProgress(&buf, "<- read")

	p.Progress(1, 200)
	p.Progress(2, 200)
	p.Progress(100, 200)
	p.Progress(101, 200)
	p.Progress(200, 200)
	p.Progress(5, 0)

	assert.Equal(t, "<- read percent: 0%\r<- read percent: 1%\r<- read percent: 50%\r<- read percent: 100%\r\n",
		buf.String())
}
