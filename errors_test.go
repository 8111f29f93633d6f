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
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("device gone")
	err := NewTransportError("write", "/dev/ttyUSB0", cause, true)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "write")
	assert.Contains(t, err.Error(), "/dev/ttyUSB0")
}

func TestIsTemporary(t *testing.T) {
	t.Parallel()

	cause := errors.New("buffer full")
	temp := NewTransportError("write", "/dev/ttyUSB0", cause, true)
	perm := NewTransportError("read", "/dev/ttyUSB0", cause, false)

	assert.True(t, IsTemporary(temp))
	assert.False(t, IsTemporary(perm))
	assert.False(t, IsTemporary(cause))

	// Temporary survives wrapping.
	assert.True(t, IsTemporary(fmt.Errorf("retrying: %w", temp)))
}

func TestSentinelsAreDistinct(t *testing.T) {
	t.Parallel()

	sentinels := []error{
		ErrFrameTooShort,
		ErrInvalidPreamble,
		ErrInvalidPayloadSize,
		ErrLengthMismatch,
		ErrChecksumMismatch,
		ErrNetworkMismatch,
		ErrPayloadTooShort,
		ErrFieldTooLong,
		ErrTransportClosed,
		ErrNotInitialized,
	}
	for i, a := range sentinels {
		require.NotNil(t, a)
		for _, b := range sentinels[i+1:] {
			assert.NotErrorIs(t, a, b)
		}
	}
}
