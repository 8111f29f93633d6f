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

// Package storage persists the bridge's small named records under one
// directory, each as its own TOML document. A record either exists
// completely or not at all: writes go to a temporary file in the same
// directory and are renamed over the target, so a crash mid-write never
// leaves a torn record behind.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

// ErrNotFound is returned by Load when the named record does not exist.
var ErrNotFound = errors.New("storage: record not found")

// Record names used by the bridge.
const (
	RecordCredentials   = "credentials"
	RecordUpdateSource  = "update_source"
	RecordRadioConfig   = "radio"
	RecordPendingUpdate = "pending_update"
)

// Credentials holds the network credentials an update run connects with.
// This record is a one-time secret: it is written when an update is
// triggered and removed once the update finishes.
type Credentials struct {
	SSID     string `toml:"ssid"`
	Password string `toml:"password"`
}

// UpdateSource holds the location the firmware image is fetched from.
type UpdateSource struct {
	URL string `toml:"url"`
}

// RadioConfig holds the wireless leg's operating parameters.
type RadioConfig struct {
	NetworkID byte `toml:"network_id"`
	Channel   byte `toml:"channel"`
	TxPower   byte `toml:"tx_power"`
	Encrypt   bool `toml:"encrypt"`
}

// PendingUpdate is the reboot-crossing marker. Its presence, not its
// content, is what arms the update path on the next start.
type PendingUpdate struct {
	Pending   bool  `toml:"pending"`
	Timestamp int64 `toml:"timestamp"`
}

// Store reads and writes named records under a single directory. All
// operations are serialized by an internal mutex; a Save observed by a
// later Load is always complete.
type Store struct {
	mu  sync.Mutex
	dir string
}

// Open prepares a store rooted at dir, creating the directory if
// needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating state directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory this store is rooted at.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".toml")
}

// Save writes the record under name, replacing any previous version
// atomically.
func (s *Store) Save(name string, v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("staging record %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(v); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding record %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing record %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing staged record %s: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return fmt.Errorf("committing record %s: %w", name, err)
	}
	return nil
}

// Load reads the record stored under name into v. Returns ErrNotFound
// when no such record exists.
func (s *Store) Load(name string, v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := toml.DecodeFile(s.path(name), v); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("reading record %s: %w", name, err)
	}
	return nil
}

// Exists reports whether a record is stored under name.
func (s *Store) Exists(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := os.Stat(s.path(name))
	return err == nil
}

// Remove deletes the record stored under name. Removing a record that
// does not exist is not an error.
func (s *Store) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing record %s: %w", name, err)
	}
	return nil
}
