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

package swarmlink

import (
	"fmt"

	"github.com/swarmlink/go-swarmlink/internal/frame"
)

// PacketType identifies the kind of traffic a frame carries.
type PacketType byte

// Wire packet types. The values are fixed by the peer firmware.
const (
	PacketTelemetry     PacketType = 1
	PacketCommand       PacketType = 2
	PacketStatus        PacketType = 3
	PacketSensorData    PacketType = 4
	PacketConfig        PacketType = 5
	PacketBulkData      PacketType = 6
	PacketPing          PacketType = 7
	PacketAck           PacketType = 8
	PacketCustomMessage PacketType = 9
	PacketOTAConfig     PacketType = 10

	// MaxPacketType is the highest assigned packet type value.
	MaxPacketType = PacketOTAConfig
)

func (t PacketType) String() string {
	switch t {
	case PacketTelemetry:
		return "telemetry"
	case PacketCommand:
		return "command"
	case PacketStatus:
		return "status"
	case PacketSensorData:
		return "sensor_data"
	case PacketConfig:
		return "config"
	case PacketBulkData:
		return "bulk_data"
	case PacketPing:
		return "ping"
	case PacketAck:
		return "ack"
	case PacketCustomMessage:
		return "custom_message"
	case PacketOTAConfig:
		return "ota_config"
	default:
		return fmt.Sprintf("unknown(%d)", byte(t))
	}
}

// Re-exported wire limits so callers do not need the internal package.
const (
	// HeaderSize is the fixed frame header length in bytes.
	HeaderSize = frame.HeaderSize
	// MinPayloadSize is the smallest declarable payload (checksum only).
	MinPayloadSize = frame.MinPayloadSize
	// MaxPayloadSize is the largest declarable payload including checksum.
	MaxPayloadSize = frame.MaxPayloadSize
	// MaxFrameSize is the largest complete frame either leg will carry.
	MaxFrameSize = frame.MaxFrameSize
)

// Frame is one header+payload+checksum unit exchanged over either
// transport. Payload holds the application bytes only; the trailing
// checksum is computed on encode and verified on decode.
//
// Frame values are built per send/receive event and are not retained.
type Frame struct {
	Payload   []byte
	Type      PacketType
	NetworkID byte
}

// Header is the decoded fixed header of a frame.
type Header struct {
	PayloadSize byte
	Type        PacketType
	NetworkID   byte
}

// wireSize returns the encoded frame length, or 0 if the payload cannot
// be declared within the size bounds.
func (f *Frame) wireSize() int {
	declared := len(f.Payload) + frame.ChecksumSize
	if declared < frame.MinPayloadSize || declared > frame.MaxPayloadSize {
		return 0
	}
	return frame.HeaderSize + declared
}

// Encode serializes the frame into its wire form and stamps the
// trailing checksum.
func (f *Frame) Encode() ([]byte, error) {
	size := f.wireSize()
	if size == 0 {
		return nil, fmt.Errorf("%w: %d application bytes", ErrInvalidPayloadSize, len(f.Payload))
	}

	buf := make([]byte, size)
	buf[frame.OffsetPreamble] = frame.PreambleByte0
	buf[frame.OffsetPreamble+1] = frame.PreambleByte1
	buf[frame.OffsetPayloadSize] = byte(len(f.Payload) + frame.ChecksumSize)
	buf[frame.OffsetPacketType] = byte(f.Type)
	buf[frame.OffsetNetworkID] = f.NetworkID
	copy(buf[frame.HeaderSize:], f.Payload)

	frame.StampChecksum(buf)
	return buf, nil
}

// InspectHeader decodes the fixed header without touching payload or
// checksum. It validates the preamble and the payload size bounds.
func InspectHeader(data []byte) (Header, error) {
	if len(data) < frame.HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrFrameTooShort, len(data))
	}
	if data[frame.OffsetPreamble] != frame.PreambleByte0 ||
		data[frame.OffsetPreamble+1] != frame.PreambleByte1 {
		return Header{}, ErrInvalidPreamble
	}

	size := data[frame.OffsetPayloadSize]
	if size < frame.MinPayloadSize || size > frame.MaxPayloadSize {
		return Header{}, fmt.Errorf("%w: %d", ErrInvalidPayloadSize, size)
	}

	return Header{
		PayloadSize: size,
		Type:        PacketType(data[frame.OffsetPacketType]),
		NetworkID:   data[frame.OffsetNetworkID],
	}, nil
}

// ValidateShape checks header validity and that the buffer length
// matches the declared payload size. It does not verify the checksum;
// the wireless leg trusts the radio's own framing for most types.
func ValidateShape(data []byte) (Header, error) {
	hdr, err := InspectHeader(data)
	if err != nil {
		return Header{}, err
	}
	if len(data) != frame.HeaderSize+int(hdr.PayloadSize) {
		return Header{}, fmt.Errorf("%w: have %d bytes, declared %d",
			ErrLengthMismatch, len(data), frame.HeaderSize+int(hdr.PayloadSize))
	}
	return hdr, nil
}

// DecodeFrame fully validates data (shape and checksum) and returns the
// contained frame. The payload is copied out of data.
func DecodeFrame(data []byte) (*Frame, error) {
	hdr, err := ValidateShape(data)
	if err != nil {
		return nil, err
	}
	if !frame.VerifyChecksum(data) {
		return nil, ErrChecksumMismatch
	}

	payload := make([]byte, int(hdr.PayloadSize)-frame.ChecksumSize)
	copy(payload, data[frame.HeaderSize:])

	return &Frame{
		Payload:   payload,
		Type:      hdr.Type,
		NetworkID: hdr.NetworkID,
	}, nil
}
