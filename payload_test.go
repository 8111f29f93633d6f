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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOTAConfigPayloadLayout(t *testing.T) {
	t.Parallel()

	p := &OTAConfigPayload{
		TargetID:  3,
		Flags:     FlagOTA | FlagRestart,
		SSID:      "Net",
		Password:  "pw",
		SourceURL: "http://h/f.bin",
	}

	buf, err := p.Encode()
	require.NoError(t, err)
	require.Len(t, buf, 106)

	assert.Equal(t, byte(3), buf[0])
	assert.Equal(t, byte(0x05), buf[1])
	// SSID slot starts at 2, NUL terminated.
	assert.Equal(t, byte('N'), buf[2])
	assert.Equal(t, byte(0), buf[5])
	// Password slot starts at 26, URL slot at 58.
	assert.Equal(t, byte('p'), buf[26])
	assert.Equal(t, byte('h'), buf[58])

	got, err := DecodeOTAConfigPayload(buf)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestOTAConfigPayloadFieldBounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*OTAConfigPayload)
		wantErr bool
	}{
		{
			name:   "ssid at limit",
			mutate: func(p *OTAConfigPayload) { p.SSID = strings.Repeat("a", MaxSSIDLen) },
		},
		{
			name:    "ssid over limit",
			mutate:  func(p *OTAConfigPayload) { p.SSID = strings.Repeat("a", MaxSSIDLen+1) },
			wantErr: true,
		},
		{
			name:    "password over limit",
			mutate:  func(p *OTAConfigPayload) { p.Password = strings.Repeat("b", MaxPasswordLen+1) },
			wantErr: true,
		},
		{
			name:    "url over limit",
			mutate:  func(p *OTAConfigPayload) { p.SourceURL = strings.Repeat("c", MaxURLLen+1) },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := &OTAConfigPayload{SSID: "net", SourceURL: "http://h/f"}
			tt.mutate(p)
			_, err := p.Encode()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrFieldTooLong)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDecodeOTAConfigPayloadTooShort(t *testing.T) {
	t.Parallel()

	_, err := DecodeOTAConfigPayload(make([]byte, 50))
	assert.ErrorIs(t, err, ErrPayloadTooShort)
}

func TestUpdateFlags(t *testing.T) {
	t.Parallel()

	f := FlagOTA | FlagWiFi
	assert.True(t, f.Has(FlagOTA))
	assert.True(t, f.Has(FlagWiFi))
	assert.False(t, f.Has(FlagRestart))
	assert.True(t, f.Has(FlagOTA|FlagWiFi))
}

func TestConfigPayloadTooShort(t *testing.T) {
	t.Parallel()

	_, err := DecodeConfigPayload([]byte{0x12, 0x06})
	assert.ErrorIs(t, err, ErrPayloadTooShort)
}
