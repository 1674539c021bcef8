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
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/drvector/at28cprog/internal/telemetry"
	"github.com/drvector/at28cprog/pkg/config"
	"github.com/drvector/at28cprog/pkg/devices"
	"github.com/drvector/at28cprog/pkg/helpers"
	"github.com/drvector/at28cprog/pkg/helpers/syncutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Flags struct {
	Port      *string
	Type      *string
	Op        *string
	File      *string
	Addr      *string
	Value     *string
	Report    *string
	ListPorts *bool
	Debug     *bool
	Verbose   *bool
	Version   *bool
	fs        *flag.FlagSet
}

// SetupFlags defines all CLI flags on the default flag set.
func SetupFlags() *Flags {
	return newFlags(flag.CommandLine)
}

func newFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		fs: fs,
		Port: fs.String(
			"port",
			"",
			"serial port of the programmer (default: config, then auto-detect)",
		),
		Type: fs.String(
			"type",
			"",
			"device type: "+strings.Join(devices.Names(), ", "),
		),
		Op: fs.String(
			"op",
			OpIdentify,
			"operation: "+strings.Join(Operations, ", "),
		),
		File: fs.String(
			"file",
			"",
			"image file to write, verify against, or save a dump to",
		),
		Addr: fs.String(
			"addr",
			"",
			"address for readbyte/writebyte, decimal or x-prefixed hex",
		),
		Value: fs.String(
			"value",
			"",
			"byte value for writebyte, decimal or x-prefixed hex",
		),
		Report: fs.String(
			"report",
			"",
			"write verify/blank mismatches to this CSV file",
		),
		ListPorts: fs.Bool(
			"list-ports",
			false,
			"list serial ports and exit",
		),
		Debug: fs.Bool(
			"debug",
			false,
			"enable debug logging",
		),
		Verbose: fs.Bool(
			"verbose",
			false,
			"also write log output to stderr",
		),
		Version: fs.Bool(
			"version",
			false,
			"print version and exit",
		),
	}
}

func (f *Flags) isFlagPassed(name string) bool {
	found := false
	f.fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

// Pre runs flag parsing and actions any immediate flags that don't
// require environment setup. Add any custom flags before running this.
func (f *Flags) Pre() {
	if !f.fs.Parsed() {
		_ = f.fs.Parse(os.Args[1:])
	}

	if *f.Version {
		_, _ = fmt.Printf("at28cprog v%s\n", config.AppVersion)
		os.Exit(0)
	}

	if *f.ListPorts {
		if err := PrintPorts(os.Stdout); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Error listing ports: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}
}

// LogWriters returns the extra log destinations requested by flags.
func (f *Flags) LogWriters() []io.Writer {
	if !*f.Verbose {
		return nil
	}
	return []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr}}
}

// PrintPorts writes one line per candidate serial port.
func PrintPorts(w io.Writer) error {
	ports, err := helpers.GetSerialDeviceList()
	if err != nil {
		return fmt.Errorf("failed to list serial ports: %w", err)
	}
	if len(ports) == 0 {
		_, _ = fmt.Fprintln(w, "no serial ports found")
		return nil
	}
	for _, p := range ports {
		_, _ = fmt.Fprintln(w, p.String())
	}
	return nil
}

// Setup initializes the user config and logging. Returns a user config object.
//
//nolint:gocritic // config struct copied for immutability
func Setup(
	dirs helpers.Dirs,
	defaultConfig config.Values,
	writers []io.Writer,
) *config.Instance {
	// Ensure directories exist before logging initialization
	err := helpers.EnsureDirectories(dirs)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error creating directories: %v\n", err)
		os.Exit(1)
	}

	err = helpers.InitLogging(dirs.LogDir, writers)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.NewConfig(dirs.ConfigDir, defaultConfig)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if syncutil.DeadlockEnabled {
		log.Debug().Msg("deadlock detection enabled")
	}

	// Initialize error reporting (opt-in)
	if err := telemetry.Init(telemetry.Settings{
		Enabled:   cfg.ErrorReporting(),
		DSN:       cfg.TelemetryDSN(),
		InstallID: cfg.DeviceID(),
		Version:   config.AppVersion,
	}); err != nil {
		log.Warn().Err(err).Msg("failed to initialize error reporting")
	}

	return cfg
}
