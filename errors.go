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
)

// Frame validation errors. All of them mark the frame as lost; none of
// them is ever retried.
var (
	ErrFrameTooShort      = errors.New("frame shorter than header")
	ErrInvalidPreamble    = errors.New("invalid preamble")
	ErrInvalidPayloadSize = errors.New("payload size out of bounds")
	ErrLengthMismatch     = errors.New("frame length does not match declared payload size")
	ErrChecksumMismatch   = errors.New("checksum mismatch")

	// ErrNetworkMismatch marks foreign traffic, not corruption. Frames
	// carrying it are dropped silently and never counted as errors.
	ErrNetworkMismatch = errors.New("frame belongs to a different network")
)

// Payload codec errors.
var (
	ErrPayloadTooShort = errors.New("payload shorter than expected layout")
	ErrFieldTooLong    = errors.New("payload field exceeds its fixed width")
)

// Transport errors.
var (
	ErrTransportClosed = errors.New("transport closed")
	ErrNotInitialized  = errors.New("transport not initialized")
)

// TransportError wraps a failure from one of the two transport legs
// with the operation and port that produced it.
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Temporary bool
}

// Error returns the formatted error message.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Port, e.Err)
}

// Unwrap returns the underlying error for errors.Is / errors.As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a TransportError for the given operation.
func NewTransportError(op, port string, err error, temporary bool) *TransportError {
	return &TransportError{Op: op, Port: port, Err: err, Temporary: temporary}
}

// IsTemporary reports whether err is a transport error worth retrying.
func IsTemporary(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Temporary
	}
	return false
}
