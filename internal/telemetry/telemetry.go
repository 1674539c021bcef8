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


// Package telemetry reports programmer failures to Sentry when the user has
// opted in. Reports never carry host names, user names, image file paths or
// USB serial numbers.
package telemetry

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/drvector/at28cprog/pkg/helpers"
	"github.com/getsentry/sentry-go"
	sentryzerolog "github.com/getsentry/sentry-go/zerolog"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const flushTimeout = 2 * time.Second

var ErrMissingDSN = errors.New("error reporting enabled without a dsn")

// Settings configures Init.
type Settings struct {
	DSN       string
	InstallID string
	Version   string
	Enabled   bool
}

// Session describes the programming run a report belongs to.
type Session struct {
	Op       string
	Device   string
	Firmware string
	Port     string
	ROMType  int
}

var (
	mu           sync.Mutex
	enabled      bool
	sentryWriter *sentryzerolog.Writer

	// image files the user passed on the command line
	imagePathRe = regexp.MustCompile(`(?i)(?:[a-z]:)?[\\/][^\s:"']*[\\/]([^\s\\/:"']+\.(?:bin|rom|hex|img|dump))\b`)
	homeDirRe   = regexp.MustCompile(`(?i)(/home/|/Users/|[a-z]:\\Users\\)[^/\\]+`)

	// device nodes that embed the adapter's USB serial number
	byIDPortRe = regexp.MustCompile(`/dev/serial/by-(?:id|path)/[^\s:"']+`)
	macUSBRe   = regexp.MustCompile(`/dev/(cu|tty)\.(usbserial|usbmodem|wchusbserial|SLAB_USBtoUART)[-_]?\w*`)
	winComRe   = regexp.MustCompile(`(?i)^(?:\\\\\.\\)?COM\d+$`)
	linuxTTYRe = regexp.MustCompile(`^/dev/tty(USB|ACM|S|AMA)\d+$`)

	portKindMap = map[string]string{
		"USB": "usb-serial",
		"ACM": "usb-cdc",
		"S":   "uart",
		"AMA": "uart",
	}
)

// Init starts Sentry and tees error level log events into it. It does
// nothing unless s.Enabled is set.
func Init(s Settings) error {
	if !s.Enabled {
		log.Debug().Msg("error reporting disabled")
		return nil
	}
	if s.DSN == "" {
		return ErrMissingDSN
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              s.DSN,
		Release:          "at28cprog@" + s.Version,
		Environment:      runtime.GOOS,
		AttachStacktrace: true,
		SendDefaultPII:   false,
		MaxBreadcrumbs:   0,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return scrubEvent(event)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize sentry: %w", err)
	}

	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetUser(sentry.User{ID: s.InstallID})
		scope.SetTag("os", runtime.GOOS)
		scope.SetTag("arch", runtime.GOARCH)
	})

	w, err := sentryzerolog.NewWithHub(sentry.CurrentHub(), sentryzerolog.Options{
		Levels:       []zerolog.Level{zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel},
		FlushTimeout: flushTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create sentry zerolog writer: %w", err)
	}

	log.Logger = log.Output(zerolog.MultiLevelWriter(
		helpers.LogWriter(),
		w,
	)).With().Timestamp().Caller().Logger()

	mu.Lock()
	sentryWriter = w
	enabled = true
	mu.Unlock()
	log.Info().Msg("error reporting enabled")
	return nil
}

// SetSession tags future reports with the run's operation and target part.
func SetSession(s Session) {
	if !Enabled() {
		return
	}
	tags := sessionTags(s)
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
	})
}

// Close flushes pending events and stops reporting. Later calls are no-ops.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if !enabled {
		return
	}
	_ = sentryWriter.Close()
	sentry.Flush(flushTimeout)
	enabled = false
}

// Flush blocks until queued reports are sent or the timeout passes.
func Flush() {
	if !Enabled() {
		return
	}
	sentry.Flush(flushTimeout)
}

func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

func sessionTags(s Session) map[string]string {
	tags := map[string]string{
		"op":        s.Op,
		"port_kind": portKind(s.Port),
		"port":      scrubPort(s.Port),
	}
	if s.Device != "" {
		tags["device_type"] = s.Device
		tags["rom_type"] = strconv.Itoa(s.ROMType)
	}
	if s.Firmware != "" {
		tags["firmware"] = s.Firmware
	}
	return tags
}

// portKind buckets a serial device name by adapter family.
func portKind(port string) string {
	switch {
	case port == "":
		return "auto"
	case winComRe.MatchString(port):
		return "com"
	case byIDPortRe.MatchString(port):
		return "usb-serial"
	case macUSBRe.MatchString(port):
		return "usb-serial"
	}
	if m := linuxTTYRe.FindStringSubmatch(port); m != nil {
		return portKindMap[m[1]]
	}
	return "other"
}

// scrubPort drops the adapter serial number from stable device links and
// macOS callout names. Plain ttyUSB and COM names pass through.
func scrubPort(s string) string {
	s = byIDPortRe.ReplaceAllString(s, "/dev/serial/<id>")
	return macUSBRe.ReplaceAllString(s, "/dev/$1.$2-<id>")
}

// scrubText rewrites free text that may mention local files or ports.
func scrubText(s string) string {
	if s == "" {
		return s
	}
	s = scrubPort(s)
	s = imagePathRe.ReplaceAllStringFunc(s, func(m string) string {
		return "<dir>/" + filepath.Base(strings.ReplaceAll(m, `\`, "/"))
	})
	return homeDirRe.ReplaceAllString(s, "$1<user>")
}

func scrubEvent(event *sentry.Event) *sentry.Event {
	// the SDK fills this in even when ServerName is unset
	event.ServerName = ""
	event.Message = scrubText(event.Message)

	for i := range event.Exception {
		ex := &event.Exception[i]
		ex.Value = scrubText(ex.Value)
		if ex.Stacktrace == nil {
			continue
		}
		for j := range ex.Stacktrace.Frames {
			f := &ex.Stacktrace.Frames[j]
			f.AbsPath = homeDirRe.ReplaceAllString(f.AbsPath, "$1<user>")
			f.Filename = homeDirRe.ReplaceAllString(f.Filename, "$1<user>")
		}
	}

	for k, v := range event.Extra {
		if s, ok := v.(string); ok {
			event.Extra[k] = scrubText(s)
		}
	}
	if p, ok := event.Tags["port"]; ok {
		event.Tags["port"] = scrubPort(p)
	}
	return event
}
