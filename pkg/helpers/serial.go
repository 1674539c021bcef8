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

package helpers

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial/enumerator"
)

var (
	ErrNoSerialPort        = errors.New("no serial port found")
	ErrMultipleSerialPorts = errors.New("more than one candidate serial port")
)

// SerialPort is one port reported by the OS.
type SerialPort struct {
	Name    string
	VID     string
	PID     string
	Serial  string
	Product string
	IsUSB   bool
}

func (p SerialPort) String() string {
	if !p.IsUSB {
		return p.Name
	}
	s := fmt.Sprintf("%s [%s:%s]", p.Name, strings.ToLower(p.VID), strings.ToLower(p.PID))
	if p.Product != "" {
		s += " " + p.Product
	}
	return s
}

var detailedPortsList = enumerator.GetDetailedPortsList

func candidatePort(goos, name string) bool {
	switch goos {
	case "linux":
		return strings.HasPrefix(name, "/dev/ttyUSB") || strings.HasPrefix(name, "/dev/ttyACM")
	case "darwin":
		return strings.HasPrefix(name, "/dev/tty.usbserial") ||
			strings.HasPrefix(name, "/dev/tty.usbmodem") ||
			strings.HasPrefix(name, "/dev/cu.usbserial")
	case "windows":
		return strings.HasPrefix(name, "COM")
	default:
		return true
	}
}

// GetSerialDeviceList returns every port that could be a programmer,
// sorted by name.
func GetSerialDeviceList() ([]SerialPort, error) {
	ports, err := detailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to get serial ports list: %w", err)
	}

	devices := make([]SerialPort, 0, len(ports))
	for _, p := range ports {
		if p == nil || !candidatePort(runtime.GOOS, p.Name) {
			continue
		}
		devices = append(devices, SerialPort{
			Name:    p.Name,
			IsUSB:   p.IsUSB,
			VID:     p.VID,
			PID:     p.PID,
			Serial:  p.SerialNumber,
			Product: p.Product,
		})
	}

	sort.Slice(devices, func(i, j int) bool {
		return devices[i].Name < devices[j].Name
	})
	return devices, nil
}

// DetectSerialPort picks the programmer port when exactly one USB serial
// port is attached.
func DetectSerialPort() (string, error) {
	ports, err := GetSerialDeviceList()
	if err != nil {
		return "", err
	}

	var usb []SerialPort
	for _, p := range ports {
		if p.IsUSB {
			usb = append(usb, p)
		}
	}

	switch len(usb) {
	case 0:
		return "", ErrNoSerialPort
	case 1:
		log.Debug().Str("port", usb[0].String()).Msg("detected serial port")
		return usb[0].Name, nil
	default:
		names := make([]string, 0, len(usb))
		for _, p := range usb {
			names = append(names, p.Name)
		}
		return "", fmt.Errorf("%w: %s", ErrMultipleSerialPorts, strings.Join(names, ", "))
	}
}
