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
	"bytes"
	"fmt"
)

// UpdateFlags is the flag bitset carried by an OTA configuration frame.
type UpdateFlags byte

// OTA configuration flag bits.
const (
	FlagOTA UpdateFlags = 1 << iota
	FlagWiFi
	FlagRestart
)

// Has reports whether all bits in mask are set.
func (f UpdateFlags) Has(mask UpdateFlags) bool { return f&mask == mask }

// ConfigPayload is the application payload of a PacketConfig frame. It
// reconfigures the wireless network parameters of the bridge.
type ConfigPayload struct {
	NetworkID byte
	Channel   byte
	TxPower   byte
}

// ConfigPayload byte layout (checksum excluded).
const (
	configOffNetworkID = 0
	configOffChannel   = 1
	configOffTxPower   = 2

	configPayloadLen = 3
)

// Encode serializes the payload into its fixed layout.
func (p *ConfigPayload) Encode() []byte {
	buf := make([]byte, configPayloadLen)
	buf[configOffNetworkID] = p.NetworkID
	buf[configOffChannel] = p.Channel
	buf[configOffTxPower] = p.TxPower
	return buf
}

// DecodeConfigPayload parses a PacketConfig application payload.
func DecodeConfigPayload(data []byte) (*ConfigPayload, error) {
	if len(data) < configPayloadLen {
		return nil, fmt.Errorf("%w: config needs %d bytes, have %d",
			ErrPayloadTooShort, configPayloadLen, len(data))
	}
	return &ConfigPayload{
		NetworkID: data[configOffNetworkID],
		Channel:   data[configOffChannel],
		TxPower:   data[configOffTxPower],
	}, nil
}

// OTAConfigPayload is the application payload of a PacketOTAConfig
// frame: the remote trigger that starts the firmware update flow. The
// three string fields occupy fixed-width NUL-terminated slots.
type OTAConfigPayload struct {
	SSID      string
	Password  string
	SourceURL string
	TargetID  byte
	Flags     UpdateFlags
}

// OTAConfigPayload byte layout (checksum excluded).
const (
	otaOffTargetID = 0
	otaOffFlags    = 1
	otaOffSSID     = 2
	otaOffPassword = otaOffSSID + otaSSIDWidth
	otaOffURL      = otaOffPassword + otaPasswordWidth

	otaSSIDWidth     = 24
	otaPasswordWidth = 32
	otaURLWidth      = 48

	otaPayloadLen = otaOffURL + otaURLWidth
)

// Field limits. One byte of every string slot is reserved for the NUL
// terminator, matching the peer firmware's bounds.
const (
	MaxSSIDLen     = otaSSIDWidth - 1
	MaxPasswordLen = otaPasswordWidth - 1
	MaxURLLen      = otaURLWidth - 1
)

// putCString copies s into the fixed-width slot, NUL padding the rest.
func putCString(dst []byte, s string) error {
	if len(s) >= len(dst) {
		return fmt.Errorf("%w: %q needs %d bytes, slot holds %d",
			ErrFieldTooLong, s, len(s)+1, len(dst))
	}
	copy(dst, s)
	for i := len(s); i < len(dst); i++ {
		dst[i] = 0
	}
	return nil
}

// cString reads a NUL-terminated string from a fixed-width slot.
func cString(src []byte) string {
	if i := bytes.IndexByte(src, 0); i >= 0 {
		return string(src[:i])
	}
	return string(src)
}

// Encode serializes the payload into its fixed layout.
func (p *OTAConfigPayload) Encode() ([]byte, error) {
	buf := make([]byte, otaPayloadLen)
	buf[otaOffTargetID] = p.TargetID
	buf[otaOffFlags] = byte(p.Flags)

	if err := putCString(buf[otaOffSSID:otaOffSSID+otaSSIDWidth], p.SSID); err != nil {
		return nil, fmt.Errorf("ssid: %w", err)
	}
	if err := putCString(buf[otaOffPassword:otaOffPassword+otaPasswordWidth], p.Password); err != nil {
		return nil, fmt.Errorf("password: %w", err)
	}
	if err := putCString(buf[otaOffURL:otaOffURL+otaURLWidth], p.SourceURL); err != nil {
		return nil, fmt.Errorf("source url: %w", err)
	}
	return buf, nil
}

// DecodeOTAConfigPayload parses a PacketOTAConfig application payload.
func DecodeOTAConfigPayload(data []byte) (*OTAConfigPayload, error) {
	if len(data) < otaPayloadLen {
		return nil, fmt.Errorf("%w: ota config needs %d bytes, have %d",
			ErrPayloadTooShort, otaPayloadLen, len(data))
	}
	return &OTAConfigPayload{
		TargetID:  data[otaOffTargetID],
		Flags:     UpdateFlags(data[otaOffFlags]),
		SSID:      cString(data[otaOffSSID : otaOffSSID+otaSSIDWidth]),
		Password:  cString(data[otaOffPassword : otaOffPassword+otaPasswordWidth]),
		SourceURL: cString(data[otaOffURL : otaOffURL+otaURLWidth]),
	}, nil
}
