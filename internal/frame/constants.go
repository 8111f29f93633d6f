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

// Package frame provides the wire layout constants and the checksum
// engine shared by both transport legs.
package frame

// Preamble is the fixed 16-bit marker that starts every frame. It is
// transmitted little-endian, so the raw byte stream carries 0x55 0xAA.
const Preamble = 0xAA55

// Preamble bytes as they appear on the wire.
const (
	PreambleByte0 = 0x55
	PreambleByte1 = 0xAA
)

// Header layout. The header is 5 bytes with fixed offsets; the trailing
// 2-byte checksum is the last 2 bytes of the payload region.
const (
	HeaderSize = 5

	OffsetPreamble    = 0
	OffsetPayloadSize = 2
	OffsetPacketType  = 3
	OffsetNetworkID   = 4
)

// Payload bounds. The declared payload size includes the trailing
// checksum, so the smallest legal payload is the checksum alone.
const (
	MinPayloadSize = 2
	MaxPayloadSize = 128

	ChecksumSize = 2

	// MaxFrameSize is the largest frame either leg will carry.
	MaxFrameSize = HeaderSize + MaxPayloadSize
)
