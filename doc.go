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

/*
Package swarmlink implements the binary packet protocol spoken between a
flight computer's serial link and an ESP-NOW style wireless broadcast
network, together with the stream deserializer that recovers frames from
a raw byte stream.

Every frame is a 5-byte header (preamble 0xAA55, payload size, packet
type, network id) followed by a payload whose last 2 bytes are a
CRC-16 computed over everything before them. Frames are best-effort:
there are no acknowledgments or sequence numbers, and a frame that fails
validation is dropped and counted, never retried.

Basic usage:

	import (
	    "github.com/swarmlink/go-swarmlink"
	    "github.com/swarmlink/go-swarmlink/transport/uart"
	)

	// Open the serial leg
	port, err := uart.New("/dev/ttyUSB0", 921600)
	if err != nil {
	    log.Fatal(err)
	}
	defer port.Close()

	// Recover frames from the byte stream
	des := swarmlink.NewDeserializer(func(f *swarmlink.Frame, raw []byte) {
	    fmt.Println(f.Type, len(f.Payload))
	})
	go port.Pump(des)

The bridge, storage, ota and transport/espnow packages build the full
serial-to-wireless bridge and the reboot-spanning firmware update flow
on top of this package.
*/
package swarmlink
