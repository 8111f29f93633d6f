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

package espnow

import (
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"

	swarmlink "github.com/swarmlink/go-swarmlink"
	"github.com/swarmlink/go-swarmlink/internal/frame"
	"github.com/swarmlink/go-swarmlink/internal/retry"
)

// Config holds the wireless network parameters.
type Config struct {
	Channel   byte
	TxPower   byte
	NetworkID byte
	Encrypt   bool

	// SendRetries and RetryDelay bound the broadcast send path.
	SendRetries int
	RetryDelay  time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Channel:     1,
		TxPower:     11,
		NetworkID:   0x12,
		Encrypt:     false,
		SendRetries: 3,
		RetryDelay:  10 * time.Millisecond,
	}
}

// Validate checks the radio parameter ranges.
func (c *Config) Validate() error {
	if c.Channel < 1 || c.Channel > 13 {
		return fmt.Errorf("%w: channel %d, must be 1-13", ErrInvalidConfig, c.Channel)
	}
	if c.TxPower > 20 {
		return fmt.Errorf("%w: tx power %d, must be 0-20 dBm", ErrInvalidConfig, c.TxPower)
	}
	if c.NetworkID == 0 {
		return fmt.Errorf("%w: network id must be non-zero", ErrInvalidConfig)
	}
	return nil
}

// OTAHandler receives the decoded payload of a validated OTA trigger
// frame. It runs on the driver's receive context.
type OTAHandler func(p *swarmlink.OTAConfigPayload)

// Adapter is the wireless transport leg: broadcast send with bounded
// retry, and a filtering receive path that forwards frames to the
// serial leg or routes the OTA trigger to its handler.
//
// Init failures leave the adapter unusable; the bridge then runs
// degraded, serial-only.
type Adapter struct {
	driver      Driver
	cfg         Config
	forward     io.Writer
	otaHandler  OTAHandler
	stats       *swarmlink.Stats
	initialized bool
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithStats wires the counter sink.
func WithStats(s *swarmlink.Stats) Option {
	return func(a *Adapter) { a.stats = s }
}

// WithForwarder sets the writer receiving valid non-OTA frames,
// normally the serial leg.
func WithForwarder(w io.Writer) Option {
	return func(a *Adapter) { a.forward = w }
}

// WithOTAHandler sets the OTA trigger handler.
func WithOTAHandler(h OTAHandler) Option {
	return func(a *Adapter) { a.otaHandler = h }
}

// New creates an Adapter for the given driver. Call Init before use.
func New(driver Driver, cfg Config, opts ...Option) *Adapter {
	a := &Adapter{driver: driver, cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Config returns the adapter's active configuration.
func (a *Adapter) Config() Config { return a.cfg }

// Init brings the radio up: bring-up, channel and power, receive
// handler registration, broadcast peer registration. Any step failing
// is fatal to this leg and reported up; the caller may retry a bounded
// number of times before accepting degraded serial-only operation.
func (a *Adapter) Init() error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	if err := a.driver.Open(); err != nil {
		return fmt.Errorf("%w: radio bring-up: %w", ErrInitFailed, err)
	}
	if err := a.driver.SetChannel(a.cfg.Channel); err != nil {
		return fmt.Errorf("%w: set channel %d: %w", ErrInitFailed, a.cfg.Channel, err)
	}
	if err := a.driver.SetTxPower(a.cfg.TxPower); err != nil {
		return fmt.Errorf("%w: set tx power %d: %w", ErrInitFailed, a.cfg.TxPower, err)
	}

	a.driver.Bind(a.handleReceive)

	if err := a.driver.AddPeer(Broadcast, a.cfg.Channel, a.cfg.Encrypt); err != nil {
		return fmt.Errorf("%w: register broadcast peer: %w", ErrInitFailed, err)
	}

	a.initialized = true
	log.WithFields(log.Fields{
		"channel":    a.cfg.Channel,
		"tx_power":   a.cfg.TxPower,
		"network_id": fmt.Sprintf("0x%02X", a.cfg.NetworkID),
	}).Info("Wireless leg initialized")
	return nil
}

// AddPeer registers a directed (non-broadcast) destination. Unused by
// the default bridging flow.
func (a *Adapter) AddPeer(addr Addr) error {
	if !a.initialized {
		return swarmlink.ErrNotInitialized
	}
	if err := a.driver.AddPeer(addr, 0, false); err != nil {
		return fmt.Errorf("adding peer %s: %w", addr, err)
	}
	return nil
}

// RemovePeer drops a directed destination.
func (a *Adapter) RemovePeer(addr Addr) error {
	if !a.initialized {
		return swarmlink.ErrNotInitialized
	}
	if err := a.driver.RemovePeer(addr); err != nil {
		return fmt.Errorf("removing peer %s: %w", addr, err)
	}
	return nil
}

// Send validates the frame's declared shape and broadcasts it, trying
// up to Config.SendRetries times with a fixed delay between attempts.
// There is no application-level acknowledgment: success means one local
// transmit was accepted.
func (a *Adapter) Send(raw []byte) error {
	if !a.initialized {
		a.countSendFailure()
		return swarmlink.ErrNotInitialized
	}
	if _, err := swarmlink.ValidateShape(raw); err != nil {
		a.countSendFailure()
		return fmt.Errorf("rejecting malformed frame: %w", err)
	}

	retries := a.cfg.SendRetries
	if retries < 1 {
		retries = 1
	}

	err := retry.Fixed(retries, a.cfg.RetryDelay, func() error {
		return a.driver.Send(Broadcast, raw)
	})
	if err == nil {
		if a.stats != nil {
			hdr, _ := swarmlink.InspectHeader(raw)
			a.stats.Increment(swarmlink.LegWireless, hdr.Type, swarmlink.DirSent, len(raw))
		}
		return nil
	}

	a.countSendFailure()
	log.WithFields(log.Fields{
		"retries": retries,
		"error":   err,
	}).Error("Wireless send failed after retries")
	return fmt.Errorf("broadcast send after %d attempts: %w", retries, err)
}

// Close shuts the radio down.
func (a *Adapter) Close() error {
	a.initialized = false
	if err := a.driver.Close(); err != nil {
		return fmt.Errorf("closing radio driver: %w", err)
	}
	return nil
}

// handleReceive is the single receive completion handler, running on
// the driver's context. Bounded validation only; it forwards bytes or
// bumps counters and returns.
func (a *Adapter) handleReceive(src Addr, data []byte) {
	if len(data) < frame.HeaderSize {
		a.countCorrupted()
		return
	}
	if data[frame.OffsetPreamble] != frame.PreambleByte0 ||
		data[frame.OffsetPreamble+1] != frame.PreambleByte1 {
		a.countCorrupted()
		return
	}

	// Foreign traffic is not corruption: silent drop, no counters.
	if data[frame.OffsetNetworkID] != a.cfg.NetworkID {
		log.WithFields(log.Fields{
			"network_id": fmt.Sprintf("0x%02X", data[frame.OffsetNetworkID]),
			"source":     src,
		}).Debug("Dropping frame from foreign network")
		return
	}

	hdr, err := swarmlink.ValidateShape(data)
	if err != nil {
		a.countCorrupted()
		log.WithFields(log.Fields{
			"source": src,
			"error":  err,
		}).Warn("Dropping malformed wireless frame")
		return
	}

	// Only the OTA trigger gets checksum validation here; other types
	// are trusted to the radio's own framing.
	if hdr.Type == swarmlink.PacketOTAConfig {
		a.receiveOTA(src, data)
		return
	}

	if a.stats != nil {
		a.stats.Increment(swarmlink.LegWireless, hdr.Type, swarmlink.DirReceived, len(data))
	}
	if a.forward == nil {
		return
	}
	if _, err := a.forward.Write(data); err != nil {
		a.countSendFailure()
		log.WithFields(log.Fields{
			"packet_type": hdr.Type,
			"error":       err,
		}).Error("Failed to forward wireless frame to serial leg")
	}
}

// receiveOTA validates and routes the OTA trigger; it is never
// forwarded to the serial leg.
func (a *Adapter) receiveOTA(src Addr, data []byte) {
	f, err := swarmlink.DecodeFrame(data)
	if err != nil {
		a.countCorrupted()
		log.WithFields(log.Fields{
			"source": src,
			"error":  err,
		}).Warn("Dropping OTA trigger with bad checksum")
		return
	}

	payload, err := swarmlink.DecodeOTAConfigPayload(f.Payload)
	if err != nil {
		a.countCorrupted()
		log.WithFields(log.Fields{
			"source": src,
			"error":  err,
		}).Warn("Dropping OTA trigger with truncated payload")
		return
	}

	if a.stats != nil {
		a.stats.Increment(swarmlink.LegWireless, swarmlink.PacketOTAConfig, swarmlink.DirReceived, len(data))
	}

	log.WithFields(log.Fields{
		"target_id": payload.TargetID,
		"flags":     fmt.Sprintf("0x%02X", byte(payload.Flags)),
		"ssid":      payload.SSID,
		"source":    src,
	}).Info("Received OTA trigger")

	if a.otaHandler != nil {
		a.otaHandler(payload)
	}
}

func (a *Adapter) countCorrupted() {
	if a.stats != nil {
		a.stats.Corrupted(swarmlink.LegWireless)
	}
}

func (a *Adapter) countSendFailure() {
	if a.stats != nil {
		a.stats.SendFailure(swarmlink.LegWireless)
	}
}
