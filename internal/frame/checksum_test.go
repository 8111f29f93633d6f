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

import "testing"

func TestChecksum(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		data []byte
		want uint16
	}{
		{
			name: "empty data is the seed",
			data: []byte{},
			want: 0xFFFF,
		},
		{
			name: "single byte",
			data: []byte{0x42},
			want: 0x713F,
		},
		{
			name: "zero byte",
			data: []byte{0x00},
			want: 0x40BF,
		},
		{
			name: "check string 123456789",
			data: []byte("123456789"),
			want: 0x4B37,
		},
		{
			name: "frame header bytes",
			data: []byte{0x55, 0xAA, 0x05, 0x01, 0x12},
			want: 0x4898,
		},
		{
			name: "sixteen ascending bytes",
			data: []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
			want: 0xE7B4,
		},
	}

	for _, tt := range tests {
		tt := tt // capture loop variable
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Checksum(tt.data); got != tt.want {
				t.Errorf("Checksum() = 0x%04X, want 0x%04X", got, tt.want)
			}
		})
	}
}

func TestChecksumBitFlipSensitivity(t *testing.T) {
	t.Parallel()
	data := []byte{0x55, 0xAA, 0x08, 0x02, 0x12, 0xDE, 0xAD, 0xBE, 0xEF}
	want := Checksum(data)

	for i := range data {
		for bit := 0; bit < 8; bit++ {
			flipped := make([]byte, len(data))
			copy(flipped, data)
			flipped[i] ^= 1 << bit
			if Checksum(flipped) == want {
				t.Errorf("flipping byte %d bit %d did not change the checksum", i, bit)
			}
		}
	}
}

func TestStampAndVerifyChecksum(t *testing.T) {
	t.Parallel()
	buf := []byte{0x55, 0xAA, 0x04, 0x07, 0x12, 0x33, 0x44, 0x00, 0x00}
	StampChecksum(buf)

	if !VerifyChecksum(buf) {
		t.Fatal("VerifyChecksum() = false for a freshly stamped frame")
	}

	buf[5] ^= 0x01
	if VerifyChecksum(buf) {
		t.Error("VerifyChecksum() = true after payload corruption")
	}
}

func TestVerifyChecksumShortInput(t *testing.T) {
	t.Parallel()
	if VerifyChecksum(nil) {
		t.Error("VerifyChecksum(nil) = true")
	}
	if VerifyChecksum([]byte{0x01, 0x02}) {
		t.Error("VerifyChecksum() = true for checksum-only input")
	}
}
