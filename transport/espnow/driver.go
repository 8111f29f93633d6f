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

// Package espnow provides the wireless leg of the bridge: a broadcast
// transport adapter in front of an ESP-NOW style radio driver.
package espnow

import "fmt"

// Addr is a radio peer address.
type Addr [6]byte

// Broadcast is the all-peers destination address.
var Broadcast = Addr{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

func (a Addr) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", a[0], a[1], a[2], a[3], a[4], a[5])
}

// ReceiveHandler runs on the driver's own execution context for every
// datagram the radio picks up. It must not block: the adapter's handler
// does bounded validation and either forwards bytes immediately or
// bumps counters.
type ReceiveHandler func(src Addr, data []byte)

// Driver is the low-level radio. The adapter owns exactly one driver
// and registers itself as the single receive handler at init time;
// drivers route all completions through that bound handler rather than
// any global state.
type Driver interface {
	// Open brings the radio up. It must be called before any other
	// method.
	Open() error

	// SetChannel tunes the radio channel.
	SetChannel(channel byte) error

	// SetTxPower sets the transmit power in dBm.
	SetTxPower(dbm byte) error

	// Bind registers the single receive handler.
	Bind(handler ReceiveHandler)

	// AddPeer registers a destination address.
	AddPeer(addr Addr, channel byte, encrypt bool) error

	// RemovePeer drops a previously registered destination.
	RemovePeer(addr Addr) error

	// Send transmits one datagram to addr. Success means the local
	// transmit was accepted, not that any peer received it.
	Send(addr Addr, data []byte) error

	// Close shuts the radio down.
	Close() error
}
