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
	"net"
	"sync"

	log "github.com/sirupsen/logrus"
)

// DefaultBasePort is the UDP port for radio channel 0; channel n maps
// to DefaultBasePort+n so co-channel devices share a socket.
const DefaultBasePort = 17550

const udpReadBufferSize = 1500

// UDPDriver emulates the broadcast radio over UDP broadcast datagrams
// on a LAN: every transmission reaches all peers listening on the same
// channel port, with no per-peer acknowledgment. Transmit power and the
// encrypt flag are accepted and ignored; they have no UDP equivalent.
//
// Received datagrams are dispatched to the bound handler on the
// driver's own read goroutine.
type UDPDriver struct {
	// BasePort is the channel-0 port. Zero means DefaultBasePort.
	BasePort int

	// BroadcastIP overrides the destination broadcast address.
	BroadcastIP net.IP

	mu      sync.Mutex
	conn    *net.UDPConn
	handler ReceiveHandler
	channel byte
	opened  bool
	closed  bool
}

func (d *UDPDriver) basePort() int {
	if d.BasePort == 0 {
		return DefaultBasePort
	}
	return d.BasePort
}

func (d *UDPDriver) broadcastIP() net.IP {
	if d.BroadcastIP != nil {
		return d.BroadcastIP
	}
	return net.IPv4bcast
}

// Open implements Driver. The socket is bound once a channel is set.
func (d *UDPDriver) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return fmt.Errorf("udp radio: already closed")
	}
	d.opened = true
	return nil
}

// SetChannel implements Driver by rebinding the channel's UDP port.
func (d *UDPDriver) SetChannel(channel byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.opened {
		return fmt.Errorf("udp radio: not opened")
	}

	if d.conn != nil {
		_ = d.conn.Close()
	}

	port := d.basePort() + int(channel)
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: port})
	if err != nil {
		return fmt.Errorf("udp radio: binding port %d: %w", port, err)
	}

	d.conn = conn
	d.channel = channel
	go d.readLoop(conn)

	log.WithFields(log.Fields{
		"channel": channel,
		"port":    port,
	}).Debug("UDP radio channel bound")
	return nil
}

// SetTxPower implements Driver. No UDP equivalent; recorded for logs.
func (d *UDPDriver) SetTxPower(dbm byte) error {
	log.WithFields(log.Fields{"tx_power": dbm}).Debug("UDP radio ignoring tx power")
	return nil
}

// Bind implements Driver.
func (d *UDPDriver) Bind(handler ReceiveHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handler = handler
}

// AddPeer implements Driver. Broadcast reaches everyone; the peer table
// only gates directed sends.
func (d *UDPDriver) AddPeer(Addr, byte, bool) error { return nil }

// RemovePeer implements Driver.
func (d *UDPDriver) RemovePeer(Addr) error { return nil }

// Send implements Driver. On a broadcast medium every transmission goes
// over the air regardless of the nominal destination, so all sends are
// broadcast datagrams on the channel port.
func (d *UDPDriver) Send(_ Addr, data []byte) error {
	d.mu.Lock()
	conn := d.conn
	port := d.basePort() + int(d.channel)
	d.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("udp radio: no channel bound")
	}

	dst := &net.UDPAddr{IP: d.broadcastIP(), Port: port}
	n, err := conn.WriteToUDP(data, dst)
	if err != nil {
		return fmt.Errorf("udp radio: send: %w", err)
	}
	if n != len(data) {
		return fmt.Errorf("udp radio: short send: %d of %d bytes", n, len(data))
	}
	return nil
}

// Close implements Driver.
func (d *UDPDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.opened = false
	if d.conn != nil {
		err := d.conn.Close()
		d.conn = nil
		if err != nil {
			return fmt.Errorf("udp radio: close: %w", err)
		}
	}
	return nil
}

// readLoop dispatches incoming datagrams until the socket closes. Own
// broadcasts come back on the same socket and are skipped.
func (d *UDPDriver) readLoop(conn *net.UDPConn) {
	local, _ := conn.LocalAddr().(*net.UDPAddr)
	buf := make([]byte, udpReadBufferSize)

	for {
		n, src, err := conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		if local != nil && src.Port == local.Port && isLocalIP(src.IP) {
			continue
		}

		d.mu.Lock()
		handler := d.handler
		d.mu.Unlock()
		if handler == nil {
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		handler(pseudoAddr(src), data)
	}
}

// pseudoAddr derives a stable 6-byte source address from IPv4:port.
func pseudoAddr(src *net.UDPAddr) Addr {
	var a Addr
	if ip4 := src.IP.To4(); ip4 != nil {
		copy(a[:4], ip4)
	}
	a[4] = byte(src.Port >> 8)
	a[5] = byte(src.Port)
	return a
}

// isLocalIP reports whether ip belongs to one of this host's
// interfaces.
func isLocalIP(ip net.IP) bool {
	if ip.IsLoopback() {
		return true
	}
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return false
	}
	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok && ipNet.IP.Equal(ip) {
			return true
		}
	}
	return false
}
