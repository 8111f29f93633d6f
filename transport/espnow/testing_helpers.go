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

package espnow

import (
	"errors"
	"sync"
)

var errSendTransient = errors.New("espnow: mock send failure")

// MockDriver is an in-memory Driver for tests. Each init step can be
// forced to fail, sends can fail a configurable number of times, and
// received datagrams are injected directly into the bound handler.
type MockDriver struct {
	OpenErr    error
	ChannelErr error
	TxPowerErr error
	AddPeerErr error
	SendErr    error

	// SendFailN makes the first N sends fail (with SendErr if set)
	// before succeeding. SendErr alone fails every send.
	SendFailN int

	mu      sync.Mutex
	handler ReceiveHandler
	sent    [][]byte
	peers   map[Addr]bool
	opened  bool
	closed  bool

	channel byte
	txPower byte
}

// NewMockDriver creates an empty mock radio.
func NewMockDriver() *MockDriver {
	return &MockDriver{peers: make(map[Addr]bool)}
}

// Open implements Driver.
func (d *MockDriver) Open() error {
	if d.OpenErr != nil {
		return d.OpenErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened = true
	return nil
}

// SetChannel implements Driver.
func (d *MockDriver) SetChannel(channel byte) error {
	if d.ChannelErr != nil {
		return d.ChannelErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.channel = channel
	return nil
}

// SetTxPower implements Driver.
func (d *MockDriver) SetTxPower(dbm byte) error {
	if d.TxPowerErr != nil {
		return d.TxPowerErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.txPower = dbm
	return nil
}

// Bind implements Driver.
func (d *MockDriver) Bind(handler ReceiveHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handler = handler
}

// AddPeer implements Driver.
func (d *MockDriver) AddPeer(addr Addr, _ byte, _ bool) error {
	if d.AddPeerErr != nil {
		return d.AddPeerErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.peers[addr] = true
	return nil
}

// RemovePeer implements Driver.
func (d *MockDriver) RemovePeer(addr Addr) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.peers, addr)
	return nil
}

// Send implements Driver, recording each successful transmit.
func (d *MockDriver) Send(_ Addr, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.SendFailN > 0 {
		d.SendFailN--
		if d.SendErr != nil {
			return d.SendErr
		}
		return errSendTransient
	}
	if d.SendErr != nil {
		return d.SendErr
	}
	d.sent = append(d.sent, append([]byte(nil), data...))
	return nil
}

// Close implements Driver.
func (d *MockDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// InjectReceive delivers a datagram to the bound handler the way the
// real driver would, on the caller's goroutine.
func (d *MockDriver) InjectReceive(src Addr, data []byte) {
	d.mu.Lock()
	handler := d.handler
	d.mu.Unlock()
	if handler != nil {
		handler(src, data)
	}
}

// Sent returns copies of all successfully transmitted datagrams.
func (d *MockDriver) Sent() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]byte, len(d.sent))
	for i, p := range d.sent {
		out[i] = append([]byte(nil), p...)
	}
	return out
}

// HasPeer reports whether addr is registered.
func (d *MockDriver) HasPeer(addr Addr) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.peers[addr]
}

// Closed reports whether Close was called.
func (d *MockDriver) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
