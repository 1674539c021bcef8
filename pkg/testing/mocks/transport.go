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

package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockTransport is a testify mock for transport.Transport.
//
// Example:
//
//	tr := &mocks.MockTransport{}
//	tr.On("Open").Return(errors.New("busy"))
//	tr.On("IsOpen").Return(false)
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Open() error {
	args := m.Called()
	//nolint:wrapcheck // Mock returns are already wrapped by caller
	return args.Error(0)
}

func (m *MockTransport) Close() error {
	args := m.Called()
	//nolint:wrapcheck // Mock returns are already wrapped by caller
	return args.Error(0)
}

func (m *MockTransport) IsOpen() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockTransport) Available() (int, error) {
	args := m.Called()
	//nolint:wrapcheck // Mock returns are already wrapped by caller
	return args.Int(0), args.Error(1)
}

func (m *MockTransport) Read(p []byte) (int, error) {
	args := m.Called(p)
	//nolint:wrapcheck // Mock returns are already wrapped by caller
	return args.Int(0), args.Error(1)
}

func (m *MockTransport) Write(p []byte) (int, error) {
	args := m.Called(p)
	//nolint:wrapcheck // Mock returns are already wrapped by caller
	return args.Int(0), args.Error(1)
}

func (m *MockTransport) Discard() error {
	args := m.Called()
	//nolint:wrapcheck // Mock returns are already wrapped by caller
	return args.Error(0)
}

// MockProgressSink records progress reports through testify/mock.
type MockProgressSink struct {
	mock.Mock
}

func (m *MockProgressSink) Progress(done, total int) {
	m.Called(done, total)
}
