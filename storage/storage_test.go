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

package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)

	in := Credentials{SSID: "SwarmOTA", Password: "s3cret-pass"}
	require.NoError(t, s.Save(RecordCredentials, &in))

	var out Credentials
	require.NoError(t, s.Load(RecordCredentials, &out))
	assert.Equal(t, in, out)
}

func TestLoadMissingRecord(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)

	var c Credentials
	assert.ErrorIs(t, s.Load(RecordCredentials, &c), ErrNotFound)
}

func TestExistsAndRemove(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)

	assert.False(t, s.Exists(RecordPendingUpdate))
	require.NoError(t, s.Save(RecordPendingUpdate, &PendingUpdate{Pending: true, Timestamp: 1756400000}))
	assert.True(t, s.Exists(RecordPendingUpdate))

	require.NoError(t, s.Remove(RecordPendingUpdate))
	assert.False(t, s.Exists(RecordPendingUpdate))

	// Removing again is a no-op.
	require.NoError(t, s.Remove(RecordPendingUpdate))
}

func TestSaveReplacesAtomically(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)

	require.NoError(t, s.Save(RecordUpdateSource, &UpdateSource{URL: "http://old/fw.bin"}))
	require.NoError(t, s.Save(RecordUpdateSource, &UpdateSource{URL: "http://new/fw.bin"}))

	var src UpdateSource
	require.NoError(t, s.Load(RecordUpdateSource, &src))
	assert.Equal(t, "http://new/fw.bin", src.URL)

	// No staging leftovers after a commit.
	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, ".tmp", filepath.Ext(e.Name()))
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "state")
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save(RecordRadioConfig, &RadioConfig{NetworkID: 0x12, Channel: 1, TxPower: 11}))

	var rc RadioConfig
	require.NoError(t, s.Load(RecordRadioConfig, &rc))
	assert.Equal(t, byte(0x12), rc.NetworkID)
	assert.Equal(t, byte(1), rc.Channel)
	assert.Equal(t, byte(11), rc.TxPower)
}

func TestRecordsAreIndependent(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)

	require.NoError(t, s.Save(RecordCredentials, &Credentials{SSID: "Net"}))
	require.NoError(t, s.Save(RecordUpdateSource, &UpdateSource{URL: "http://h/f.bin"}))

	require.NoError(t, s.Remove(RecordCredentials))
	assert.False(t, s.Exists(RecordCredentials))
	assert.True(t, s.Exists(RecordUpdateSource))
}
