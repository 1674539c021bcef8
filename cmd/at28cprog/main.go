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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/drvector/at28cprog/internal/telemetry"
	"github.com/drvector/at28cprog/pkg/cli"
	"github.com/drvector/at28cprog/pkg/config"
	"github.com/drvector/at28cprog/pkg/helpers"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := cli.SetupFlags()
	flags.Pre()

	cfg := cli.Setup(
		helpers.DefaultDirs(),
		config.BaseDefaults,
		flags.LogWriters(),
	)
	defer telemetry.Close()

	defer func() {
		if err := recover(); err != nil {
			telemetry.Flush()
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %s\n", err)
			log.Fatal().Msgf("panic: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx, cfg, flags); err != nil {
		log.Error().Err(err).Msg("operation failed")
		return err //nolint:wrapcheck // cli errors carry context
	}
	return nil
}
