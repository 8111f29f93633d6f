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

package frame

import (
	"encoding/binary"

	"github.com/howeyc/crc16"
)

// crcTable holds the reflected 0xA001 (IBM) polynomial table. Combined
// with the 0xFFFF seed and no final XOR this matches the peer firmware's
// checksum bit for bit.
var crcTable = crc16.MakeTableNoXOR(crc16.IBM)

// Checksum computes the wire checksum over data.
func Checksum(data []byte) uint16 {
	return crc16.Update(0xFFFF, crcTable, data)
}

// StampChecksum computes the checksum over everything but the trailing
// checksum field and writes it into the last 2 bytes of buf, which must
// hold a complete frame.
func StampChecksum(buf []byte) {
	if len(buf) < ChecksumSize {
		return
	}
	binary.LittleEndian.PutUint16(buf[len(buf)-ChecksumSize:], Checksum(buf[:len(buf)-ChecksumSize]))
}

// VerifyChecksum reports whether the trailing 2 bytes of buf match the
// checksum computed over everything before them.
func VerifyChecksum(buf []byte) bool {
	if len(buf) < ChecksumSize+1 {
		return false
	}
	want := binary.LittleEndian.Uint16(buf[len(buf)-ChecksumSize:])
	return Checksum(buf[:len(buf)-ChecksumSize]) == want
}
