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

// Package bridge dispatches frames between the serial and wireless
// legs. Serial bytes are reassembled into frames and routed by packet
// type: the OTA trigger and the radio reconfiguration frame are
// consumed locally, everything else is relayed to the wireless leg.
// Wireless frames arrive pre-validated from the adapter and are written
// back out the serial port.
package bridge

import (
	"io"
	"sync"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	swarmlink "github.com/swarmlink/go-swarmlink"
	"github.com/swarmlink/go-swarmlink/storage"
)

// WirelessLeg is the slice of the wireless adapter the bridge uses.
type WirelessLeg interface {
	Send(raw []byte) error
	Close() error
}

// OTATrigger consumes a decoded OTA trigger received on either leg.
type OTATrigger interface {
	HandleTrigger(p *swarmlink.OTAConfigPayload) error
}

// RadioStore persists the radio configuration record.
type RadioStore interface {
	Save(name string, v interface{}) error
}

// Bridge routes frames between one serial port and one wireless leg.
// It is safe for the two legs to deliver concurrently: serial frames
// arrive on the pump goroutine, wireless frames on the driver's.
type Bridge struct {
	serial   io.WriteCloser
	wireless WirelessLeg
	deser    *swarmlink.Deserializer
	stats    *swarmlink.Stats
	ota      OTATrigger
	store    RadioStore
	restart  func()

	serialWriteMu sync.Mutex
	closeOnce     sync.Once
	closeErr      error
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithStats attaches bridge counters.
func WithStats(s *swarmlink.Stats) Option {
	return func(b *Bridge) { b.stats = s }
}

// WithOTA routes OTA triggers from the serial leg into the update flow.
func WithOTA(t OTATrigger) Option {
	return func(b *Bridge) { b.ota = t }
}

// WithRadioConfig makes the bridge consume radio reconfiguration
// frames from the serial leg: the new parameters are persisted and
// restart is invoked so the next start brings the radio up with them.
func WithRadioConfig(store RadioStore, restart func()) Option {
	return func(b *Bridge) {
		b.store = store
		b.restart = restart
	}
}

// New wires a bridge between the serial port and the wireless leg.
func New(serial io.WriteCloser, wireless WirelessLeg, opts ...Option) *Bridge {
	b := &Bridge{
		serial:   serial,
		wireless: wireless,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.deser = swarmlink.NewDeserializer(b.handleSerialFrame)
	return b
}

// SerialSink returns the writer the serial pump feeds raw bytes into.
func (b *Bridge) SerialSink() io.Writer { return b.deser }

// ForwardWriter returns the writer the wireless adapter forwards
// received frames through. Writes go out the serial port and are
// counted on the serial leg.
func (b *Bridge) ForwardWriter() io.Writer {
	return writerFunc(b.writeSerial)
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

func (b *Bridge) writeSerial(raw []byte) (int, error) {
	b.serialWriteMu.Lock()
	n, err := b.serial.Write(raw)
	b.serialWriteMu.Unlock()
	if err != nil {
		if b.stats != nil {
			b.stats.SendFailure(swarmlink.LegSerial)
		}
		return n, err
	}
	if b.stats != nil {
		hdr, hdrErr := swarmlink.InspectHeader(raw)
		if hdrErr == nil {
			b.stats.Increment(swarmlink.LegSerial, hdr.Type, swarmlink.DirSent, len(raw))
		}
	}
	return n, nil
}

// handleSerialFrame routes one reassembled, checksum-verified serial
// frame.
func (b *Bridge) handleSerialFrame(f *swarmlink.Frame, raw []byte) {
	if b.stats != nil {
		b.stats.Increment(swarmlink.LegSerial, f.Type, swarmlink.DirReceived, len(raw))
	}

	switch f.Type {
	case swarmlink.PacketOTAConfig:
		b.consumeOTA(f)
	case swarmlink.PacketConfig:
		b.consumeRadioConfig(f)
	default:
		if err := b.wireless.Send(raw); err != nil {
			log.WithFields(log.Fields{
				"packet_type": f.Type,
				"error":       err,
			}).Error("Failed to relay serial frame to wireless leg")
		}
	}
}

func (b *Bridge) consumeOTA(f *swarmlink.Frame) {
	payload, err := swarmlink.DecodeOTAConfigPayload(f.Payload)
	if err != nil {
		log.WithError(err).Warn("Dropping OTA trigger with truncated payload")
		if b.stats != nil {
			b.stats.Corrupted(swarmlink.LegSerial)
		}
		return
	}
	if b.ota == nil {
		log.Warn("OTA trigger received but no update flow configured")
		return
	}
	if err := b.ota.HandleTrigger(payload); err != nil {
		log.WithError(err).Warn("OTA trigger rejected")
	}
}

func (b *Bridge) consumeRadioConfig(f *swarmlink.Frame) {
	payload, err := swarmlink.DecodeConfigPayload(f.Payload)
	if err != nil {
		log.WithError(err).Warn("Dropping radio configuration with truncated payload")
		if b.stats != nil {
			b.stats.Corrupted(swarmlink.LegSerial)
		}
		return
	}
	if b.store == nil {
		log.Warn("Radio configuration received but no store configured")
		return
	}

	log.WithFields(log.Fields{
		"network_id": payload.NetworkID,
		"channel":    payload.Channel,
		"tx_power":   payload.TxPower,
	}).Info("Persisting radio configuration")

	if err := b.store.Save(storage.RecordRadioConfig, &storage.RadioConfig{
		NetworkID: payload.NetworkID,
		Channel:   payload.Channel,
		TxPower:   payload.TxPower,
	}); err != nil {
		log.WithError(err).Error("Cannot persist radio configuration")
		return
	}
	if b.restart != nil {
		log.Info("Radio configuration persisted, restarting")
		b.restart()
	}
}

// Deserializer exposes the serial reassembly counters.
func (b *Bridge) Deserializer() *swarmlink.Deserializer { return b.deser }

// Close shuts both legs down. Safe to call more than once.
func (b *Bridge) Close() error {
	b.closeOnce.Do(func() {
		var result *multierror.Error
		if err := b.wireless.Close(); err != nil {
			result = multierror.Append(result, err)
		}
		if err := b.serial.Close(); err != nil {
			result = multierror.Append(result, err)
		}
		b.closeErr = result.ErrorOrNil()
	})
	return b.closeErr
}
