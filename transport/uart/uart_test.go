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

package uart

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	swarmlink "github.com/swarmlink/go-swarmlink"
)

// fakePort implements serial.Port against in-memory buffers.
type fakePort struct {
	mu       sync.Mutex
	toRead   [][]byte
	written  []byte
	writeCap int // max bytes accepted per Write, 0 = unlimited
	closed   bool
}

func (p *fakePort) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	if len(p.toRead) == 0 {
		return 0, nil // behaves like a read timeout
	}
	chunk := p.toRead[0]
	p.toRead = p.toRead[1:]
	n := copy(buf, chunk)
	return n, nil
}

func (p *fakePort) Write(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(buf)
	if p.writeCap > 0 && n > p.writeCap {
		n = p.writeCap
	}
	p.written = append(p.written, buf[:n]...)
	return n, nil
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (*fakePort) SetMode(*serial.Mode) error                         { return nil }
func (*fakePort) Drain() error                                       { return nil }
func (*fakePort) ResetInputBuffer() error                            { return nil }
func (*fakePort) ResetOutputBuffer() error                           { return nil }
func (*fakePort) SetDTR(bool) error                                  { return nil }
func (*fakePort) SetRTS(bool) error                                  { return nil }
func (*fakePort) GetModemStatusBits() (*serial.ModemStatusBits, error) { return nil, nil }
func (*fakePort) SetReadTimeout(time.Duration) error                 { return nil }
func (*fakePort) Break(time.Duration) error                          { return nil }

func newTestTransport(p serial.Port) *Transport {
	return &Transport{port: p, portName: "fake"}
}

func TestPumpFeedsSink(t *testing.T) {
	t.Parallel()

	raw, err := (&swarmlink.Frame{Type: swarmlink.PacketPing, NetworkID: 0x12, Payload: []byte{1, 2}}).Encode()
	require.NoError(t, err)

	port := &fakePort{toRead: [][]byte{raw[:4], raw[4:]}}
	tr := newTestTransport(port)

	var got []*swarmlink.Frame
	des := swarmlink.NewDeserializer(func(f *swarmlink.Frame, _ []byte) {
		got = append(got, f)
		_ = tr.Close()
	})

	err = tr.Pump(des)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, swarmlink.PacketPing, got[0].Type)
}

func TestWriteShortWriteIsError(t *testing.T) {
	t.Parallel()

	port := &fakePort{writeCap: 3}
	tr := newTestTransport(port)

	n, err := tr.Write([]byte{1, 2, 3, 4, 5})
	assert.Equal(t, 3, n)
	require.Error(t, err)
	assert.True(t, swarmlink.IsTemporary(err))
}

func TestWriteAfterClose(t *testing.T) {
	t.Parallel()

	tr := newTestTransport(&fakePort{})
	require.NoError(t, tr.Close())

	_, err := tr.Write([]byte{1})
	assert.ErrorIs(t, err, swarmlink.ErrTransportClosed)

	// Closing twice is fine.
	assert.NoError(t, tr.Close())
}
