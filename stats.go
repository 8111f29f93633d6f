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
)

// Leg names a transport side of the bridge.
type Leg string

// The two bridge legs.
const (
	LegSerial   Leg = "uart"
	LegWireless Leg = "espnow"
)

// Direction of a counted packet event.
type Direction int

// Packet event directions.
const (
	DirSent Direction = iota
	DirReceived
)

// StatsSink receives one increment per counted packet event. It is the
// seam for an external statistics aggregator; Stats is the built-in
// implementation.
type StatsSink interface {
	Increment(leg Leg, t PacketType, dir Direction, bytes int)
}

// TypeStats holds per-packet-type counters for one leg.
type TypeStats struct {
	PacketsSent     uint64
	PacketsReceived uint64
	BytesSent       uint64
	BytesReceived   uint64
}

// LegStats holds the counters of one transport leg.
type LegStats struct {
	ByType [MaxPacketType + 1]TypeStats

	PacketsSent      uint64
	PacketsReceived  uint64
	PacketsCorrupted uint64
	SendFailures     uint64
	BytesSent        uint64
	BytesReceived    uint64
}

// Stats counts packet events per leg, type and direction.
//
// Each direction of each leg is written from a single goroutine; reads
// for periodic reporting are unsynchronized by design. A torn read
// skews one log line, nothing else depends on these values.
type Stats struct {
	Serial   LegStats
	Wireless LegStats
}

// NewStats creates an empty counter set.
func NewStats() *Stats { return &Stats{} }

func (s *Stats) leg(l Leg) *LegStats {
	if l == LegWireless {
		return &s.Wireless
	}
	return &s.Serial
}

// Increment implements StatsSink.
func (s *Stats) Increment(l Leg, t PacketType, dir Direction, bytes int) {
	ls := s.leg(l)
	var ts *TypeStats
	if int(t) < len(ls.ByType) {
		ts = &ls.ByType[t]
	}

	switch dir {
	case DirSent:
		ls.PacketsSent++
		ls.BytesSent += uint64(bytes)
		if ts != nil {
			ts.PacketsSent++
			ts.BytesSent += uint64(bytes)
		}
	case DirReceived:
		ls.PacketsReceived++
		ls.BytesReceived += uint64(bytes)
		if ts != nil {
			ts.PacketsReceived++
			ts.BytesReceived += uint64(bytes)
		}
	}
}

// Corrupted counts one dropped frame on the given leg.
func (s *Stats) Corrupted(l Leg) {
	s.leg(l).PacketsCorrupted++
}

// SendFailure counts one exhausted or partial send on the given leg.
func (s *Stats) SendFailure(l Leg) {
	s.leg(l).SendFailures++
}

// Fields renders the counters of one leg for a structured log line.
func (ls *LegStats) Fields() log.Fields {
	return log.Fields{
		"sent":          ls.PacketsSent,
		"received":      ls.PacketsReceived,
		"corrupted":     ls.PacketsCorrupted,
		"send_failures": ls.SendFailures,
		"bytes_sent":    ls.BytesSent,
		"bytes_recv":    ls.BytesReceived,
	}
}

// Log emits one periodic report line per leg.
func (s *Stats) Log() {
	log.WithFields(s.Serial.Fields()).Info("Bridge statistics: uart")
	log.WithFields(s.Wireless.Fields()).Info("Bridge statistics: espnow")
}
