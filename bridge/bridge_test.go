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

package bridge

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	swarmlink "github.com/swarmlink/go-swarmlink"
	"github.com/swarmlink/go-swarmlink/storage"
)

type fakeSerial struct {
	bytes.Buffer
	writeErr error
	closed   bool
}

func (s *fakeSerial) Write(p []byte) (int, error) {
	if s.writeErr != nil {
		return 0, s.writeErr
	}
	return s.Buffer.Write(p)
}

func (s *fakeSerial) Close() error {
	s.closed = true
	return nil
}

type fakeWireless struct {
	sent     [][]byte
	sendErr  error
	closed   bool
	closeErr error
}

func (w *fakeWireless) Send(raw []byte) error {
	if w.sendErr != nil {
		return w.sendErr
	}
	w.sent = append(w.sent, append([]byte(nil), raw...))
	return nil
}

func (w *fakeWireless) Close() error {
	w.closed = true
	return w.closeErr
}

type fakeOTA struct {
	triggers []*swarmlink.OTAConfigPayload
	err      error
}

func (o *fakeOTA) HandleTrigger(p *swarmlink.OTAConfigPayload) error {
	o.triggers = append(o.triggers, p)
	return o.err
}

func encodeFrame(t *testing.T, f *swarmlink.Frame) []byte {
	t.Helper()
	raw, err := f.Encode()
	require.NoError(t, err)
	return raw
}

// TestSerialFrameRelayedToWireless follows a telemetry frame from raw
// serial bytes out the wireless leg: reassembled, verified, relayed
// unchanged, counted on both legs.
func TestSerialFrameRelayedToWireless(t *testing.T) {
	t.Parallel()

	serial := &fakeSerial{}
	wireless := &fakeWireless{}
	stats := swarmlink.NewStats()
	b := New(serial, wireless, WithStats(stats))

	raw := encodeFrame(t, &swarmlink.Frame{Type: swarmlink.PacketTelemetry, NetworkID: 0x12, Payload: []byte{1, 2, 3, 4}})

	// Leading line noise before the frame.
	_, err := b.SerialSink().Write(append([]byte{0x00, 0x13, 0x37}, raw...))
	require.NoError(t, err)

	require.Len(t, wireless.sent, 1)
	assert.Equal(t, raw, wireless.sent[0])
	assert.Equal(t, uint64(1), stats.Serial.PacketsReceived)
	assert.Equal(t, uint64(len(raw)), stats.Serial.BytesReceived)
}

func TestSerialOTATriggerConsumedNotRelayed(t *testing.T) {
	t.Parallel()

	serial := &fakeSerial{}
	wireless := &fakeWireless{}
	ota := &fakeOTA{}
	b := New(serial, wireless, WithOTA(ota))

	payload, err := (&swarmlink.OTAConfigPayload{
		TargetID:  3,
		Flags:     swarmlink.FlagOTA | swarmlink.FlagWiFi,
		SSID:      "SwarmOTA",
		Password:  "s3cret",
		SourceURL: "http://192.168.4.1/fw.bin",
	}).Encode()
	require.NoError(t, err)

	raw := encodeFrame(t, &swarmlink.Frame{Type: swarmlink.PacketOTAConfig, NetworkID: 0x12, Payload: payload})
	_, err = b.SerialSink().Write(raw)
	require.NoError(t, err)

	require.Len(t, ota.triggers, 1)
	assert.Equal(t, "SwarmOTA", ota.triggers[0].SSID)
	assert.Equal(t, "http://192.168.4.1/fw.bin", ota.triggers[0].SourceURL)
	assert.Empty(t, wireless.sent)
}

// TestSerialRadioConfigPersistsAndRestarts: a radio reconfiguration
// frame from the flight controller is consumed, persisted and answered
// with a restart so the radio comes back up on the new parameters.
func TestSerialRadioConfigPersistsAndRestarts(t *testing.T) {
	t.Parallel()

	store, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	restarts := 0
	serial := &fakeSerial{}
	wireless := &fakeWireless{}
	b := New(serial, wireless, WithRadioConfig(store, func() { restarts++ }))

	payload := (&swarmlink.ConfigPayload{NetworkID: 0x12, Channel: 6, TxPower: 10}).Encode()
	raw := encodeFrame(t, &swarmlink.Frame{Type: swarmlink.PacketConfig, NetworkID: 0x12, Payload: payload})
	_, err = b.SerialSink().Write(raw)
	require.NoError(t, err)

	assert.Equal(t, 1, restarts)
	assert.Empty(t, wireless.sent)

	// What the next start loads is exactly what was persisted.
	var rc storage.RadioConfig
	require.NoError(t, store.Load(storage.RecordRadioConfig, &rc))
	assert.Equal(t, byte(0x12), rc.NetworkID)
	assert.Equal(t, byte(6), rc.Channel)
	assert.Equal(t, byte(10), rc.TxPower)
}

func TestWirelessSendFailureDoesNotStall(t *testing.T) {
	t.Parallel()

	serial := &fakeSerial{}
	wireless := &fakeWireless{sendErr: errors.New("radio down")}
	stats := swarmlink.NewStats()
	b := New(serial, wireless, WithStats(stats))

	first := encodeFrame(t, &swarmlink.Frame{Type: swarmlink.PacketCommand, NetworkID: 0x12, Payload: []byte{9}})
	_, err := b.SerialSink().Write(first)
	require.NoError(t, err)

	// The next frame still flows once the leg recovers.
	wireless.sendErr = nil
	second := encodeFrame(t, &swarmlink.Frame{Type: swarmlink.PacketStatus, NetworkID: 0x12, Payload: []byte{1}})
	_, err = b.SerialSink().Write(second)
	require.NoError(t, err)

	require.Len(t, wireless.sent, 1)
	assert.Equal(t, second, wireless.sent[0])
	assert.Equal(t, uint64(2), stats.Serial.PacketsReceived)
}

func TestForwardWriterCountsSerialSends(t *testing.T) {
	t.Parallel()

	serial := &fakeSerial{}
	wireless := &fakeWireless{}
	stats := swarmlink.NewStats()
	b := New(serial, wireless, WithStats(stats))

	raw := encodeFrame(t, &swarmlink.Frame{Type: swarmlink.PacketSensorData, NetworkID: 0x12, Payload: []byte{5, 5}})
	n, err := b.ForwardWriter().Write(raw)
	require.NoError(t, err)
	assert.Equal(t, len(raw), n)
	assert.Equal(t, raw, serial.Bytes())
	assert.Equal(t, uint64(1), stats.Serial.PacketsSent)
	assert.Equal(t, uint64(len(raw)), stats.Serial.BytesSent)
}

func TestForwardWriterCountsFailures(t *testing.T) {
	t.Parallel()

	serial := &fakeSerial{writeErr: errors.New("port gone")}
	stats := swarmlink.NewStats()
	b := New(serial, &fakeWireless{}, WithStats(stats))

	raw := encodeFrame(t, &swarmlink.Frame{Type: swarmlink.PacketAck, NetworkID: 0x12, Payload: []byte{0}})
	_, err := b.ForwardWriter().Write(raw)
	require.Error(t, err)
	assert.Equal(t, uint64(1), stats.Serial.SendFailures)
	assert.Equal(t, uint64(0), stats.Serial.PacketsSent)
}

func TestCorruptedSerialPayloadCounted(t *testing.T) {
	t.Parallel()

	serial := &fakeSerial{}
	wireless := &fakeWireless{}
	ota := &fakeOTA{}
	stats := swarmlink.NewStats()
	b := New(serial, wireless, WithOTA(ota), WithStats(stats))

	// A checksum-valid OTA frame whose payload is too short to hold
	// the trigger fields.
	raw := encodeFrame(t, &swarmlink.Frame{Type: swarmlink.PacketOTAConfig, NetworkID: 0x12, Payload: []byte{1, 2, 3}})
	_, err := b.SerialSink().Write(raw)
	require.NoError(t, err)

	assert.Empty(t, ota.triggers)
	assert.Empty(t, wireless.sent)
	assert.Equal(t, uint64(1), stats.Serial.PacketsCorrupted)
}

func TestCloseClosesBothLegsOnce(t *testing.T) {
	t.Parallel()

	serial := &fakeSerial{}
	wireless := &fakeWireless{closeErr: errors.New("driver close failed")}
	b := New(serial, wireless)

	err := b.Close()
	require.Error(t, err)
	assert.True(t, wireless.closed)
	assert.True(t, serial.closed)

	// Second close returns the same result without re-closing.
	assert.Equal(t, err, b.Close())
}
