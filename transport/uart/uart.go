// go-swarmlink
// Copyright (c) 2025 The Swarmlink Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-swarmlink.
//
// go-swarmlink is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-swarmlink is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-swarmlink; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package uart provides the serial leg of the bridge on top of a
// platform serial port.
package uart

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"

	swarmlink "github.com/swarmlink/go-swarmlink"
)

// DefaultBaudRate matches the flight computer's UART configuration.
const DefaultBaudRate = 921600

const readBufferSize = 4096

// Transport is the serial leg: a byte pipe with no framing of its own.
// Frame recovery happens in the swarmlink.Deserializer the read pump
// feeds.
//
// Write may be called from the wireless receive context while the pump
// runs; writes are serialized internally.
type Transport struct {
	port     serial.Port
	portName string

	writeMu sync.Mutex

	closeMu sync.Mutex
	closed  bool
}

// New opens the serial port with 8N1 framing at the given baud rate.
func New(portName string, baudRate int) (*Transport, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}

	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, swarmlink.NewTransportError("open", portName,
			fmt.Errorf("opening serial port: %w", err), false)
	}

	// A finite read timeout keeps the pump responsive to Close.
	if err := port.SetReadTimeout(100 * time.Millisecond); err != nil {
		_ = port.Close()
		return nil, swarmlink.NewTransportError("open", portName,
			fmt.Errorf("setting read timeout: %w", err), false)
	}

	return &Transport{port: port, portName: portName}, nil
}

// Ports lists the serial ports available on this host.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerating serial ports: %w", err)
	}
	return ports, nil
}

// PortName returns the opened port's name.
func (t *Transport) PortName() string { return t.portName }

// Write sends raw frame bytes out the serial leg. A short write is
// reported as an error; the caller counts it and carries on.
func (t *Transport) Write(p []byte) (int, error) {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if t.isClosed() {
		return 0, swarmlink.ErrTransportClosed
	}

	n, err := t.port.Write(p)
	if err != nil {
		return n, swarmlink.NewTransportError("write", t.portName, err, true)
	}
	if n != len(p) {
		return n, swarmlink.NewTransportError("write", t.portName,
			fmt.Errorf("short write: %d of %d bytes", n, len(p)), true)
	}
	return n, nil
}

// Pump reads the port until Close and hands every chunk to sink,
// typically a swarmlink.Deserializer. It returns nil after Close and a
// TransportError if the port fails.
func (t *Transport) Pump(sink io.Writer) error {
	buf := make([]byte, readBufferSize)
	for {
		n, err := t.port.Read(buf)
		if err != nil {
			if t.isClosed() {
				return nil
			}
			return swarmlink.NewTransportError("read", t.portName, err, false)
		}
		if n == 0 {
			// Read timeout; lets us notice Close.
			if t.isClosed() {
				return nil
			}
			continue
		}
		if _, err := sink.Write(buf[:n]); err != nil {
			return fmt.Errorf("stream sink: %w", err)
		}
	}
}

// SetTimeout adjusts the pump's read timeout.
func (t *Transport) SetTimeout(timeout time.Duration) error {
	if err := t.port.SetReadTimeout(timeout); err != nil {
		return swarmlink.NewTransportError("set_timeout", t.portName, err, false)
	}
	return nil
}

// Close shuts the port down and stops the pump.
func (t *Transport) Close() error {
	t.closeMu.Lock()
	if t.closed {
		t.closeMu.Unlock()
		return nil
	}
	t.closed = true
	t.closeMu.Unlock()

	if err := t.port.Close(); err != nil {
		return swarmlink.NewTransportError("close", t.portName, err, false)
	}
	return nil
}

func (t *Transport) isClosed() bool {
	t.closeMu.Lock()
	defer t.closeMu.Unlock()
	return t.closed
}
