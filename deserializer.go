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
	log "github.com/sirupsen/logrus"

	"github.com/swarmlink/go-swarmlink/internal/frame"
)

// FrameHandler receives every validated frame recovered from the byte
// stream. raw is the complete wire form (header, payload and checksum)
// for byte-identical forwarding; it is only valid for the duration of
// the call.
type FrameHandler func(f *Frame, raw []byte)

// Deserializer is a resynchronizing byte-at-a-time parser that turns a
// raw serial byte stream into validated frames.
//
// The parser has three states: searching for the preamble with a 2-byte
// sliding window, accumulating the rest of the header, and accumulating
// the declared payload. A bound violation or checksum mismatch drops
// the frame, counts it as corrupted and returns to preamble search. The
// preamble pattern can occur inside payload bytes by coincidence and
// cause a false resync; this is a known, accepted limitation. There is
// no inter-frame timeout: a stalled stream leaves a partial frame
// pending indefinitely.
//
// Deserializer is not safe for concurrent use. Feed all bytes from a
// single goroutine; the counters may be read from elsewhere without
// synchronization for reporting only.
type Deserializer struct {
	onFrame    FrameHandler
	header     [frame.HeaderSize]byte
	payload    [frame.MaxPayloadSize]byte
	raw        [frame.MaxFrameSize]byte
	headerPos  int
	payloadPos int
	searching  bool

	received  uint64
	corrupted uint64
	bytesIn   uint64
}

// NewDeserializer creates a Deserializer delivering frames to onFrame.
func NewDeserializer(onFrame FrameHandler) *Deserializer {
	return &Deserializer{
		onFrame:   onFrame,
		searching: true,
	}
}

// Reset discards any partial frame and returns to preamble search. The
// counters are preserved.
func (d *Deserializer) Reset() {
	d.searching = true
	d.headerPos = 0
	d.payloadPos = 0
}

// Received returns the number of frames delivered so far.
func (d *Deserializer) Received() uint64 { return d.received }

// Corrupted returns the number of frames dropped for bad size or
// checksum so far.
func (d *Deserializer) Corrupted() uint64 { return d.corrupted }

// BytesDelivered returns the total wire bytes of delivered frames.
func (d *Deserializer) BytesDelivered() uint64 { return d.bytesIn }

// Write feeds a chunk of stream bytes. It never fails; it exists so a
// read pump can hand buffers over directly.
func (d *Deserializer) Write(p []byte) (int, error) {
	for _, b := range p {
		d.Feed(b)
	}
	return len(p), nil
}

// Feed advances the parser by one stream byte.
func (d *Deserializer) Feed(b byte) {
	if d.searching {
		d.feedPreamble(b)
		return
	}
	if d.headerPos < frame.HeaderSize {
		d.feedHeader(b)
		return
	}
	d.feedPayload(b)
}

// feedPreamble maintains the 2-byte sliding window.
func (d *Deserializer) feedPreamble(b byte) {
	d.header[d.headerPos] = b
	d.headerPos++

	if d.headerPos < 2 {
		return
	}
	if d.header[0] == frame.PreambleByte0 && d.header[1] == frame.PreambleByte1 {
		d.searching = false
		return
	}

	// Slide the window by one byte.
	d.header[0] = d.header[1]
	d.headerPos = 1
}

// feedHeader accumulates the remaining header bytes and bounds-checks
// the declared payload size once the header is complete.
func (d *Deserializer) feedHeader(b byte) {
	d.header[d.headerPos] = b
	d.headerPos++

	if d.headerPos < frame.HeaderSize {
		return
	}

	size := d.header[frame.OffsetPayloadSize]
	if size < frame.MinPayloadSize || size > frame.MaxPayloadSize {
		d.corrupted++
		log.WithFields(log.Fields{
			"payload_size": size,
		}).Warn("Dropping serial frame with invalid payload size")
		d.Reset()
		return
	}
	d.payloadPos = 0
}

// feedPayload accumulates payload bytes and finishes the frame once the
// declared size is reached.
func (d *Deserializer) feedPayload(b byte) {
	size := int(d.header[frame.OffsetPayloadSize])

	if d.payloadPos >= len(d.payload) {
		// Unreachable while the header bound check holds; reset
		// defensively instead of corrupting memory.
		d.corrupted++
		log.Warn("Serial receive buffer overflow, resetting parser")
		d.Reset()
		return
	}

	d.payload[d.payloadPos] = b
	d.payloadPos++
	if d.payloadPos < size {
		return
	}

	d.finishFrame(size)
	d.Reset()
}

// finishFrame reassembles header+payload, verifies the trailing
// checksum and delivers the frame.
func (d *Deserializer) finishFrame(size int) {
	total := frame.HeaderSize + size
	raw := d.raw[:total]
	copy(raw, d.header[:])
	copy(raw[frame.HeaderSize:], d.payload[:size])

	if !frame.VerifyChecksum(raw) {
		d.corrupted++
		log.WithFields(log.Fields{
			"packet_type": PacketType(d.header[frame.OffsetPacketType]),
		}).Warn("Dropping serial frame with checksum mismatch")
		return
	}

	d.received++
	d.bytesIn += uint64(total)

	if d.onFrame == nil {
		return
	}
	f := &Frame{
		Payload:   append([]byte(nil), raw[frame.HeaderSize:total-frame.ChecksumSize]...),
		Type:      PacketType(d.header[frame.OffsetPacketType]),
		NetworkID: d.header[frame.OffsetNetworkID],
	}
	d.onFrame(f, raw)
}
