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

// Package ota drives firmware updates across a restart. A trigger frame
// received over the wireless leg persists the network credentials and
// firmware source, arms a marker and restarts the process; the next
// start consumes the marker, connects, fetches the image and restarts
// again. The marker is removed before anything else happens on the
// armed path, so a failing update can never loop.
package ota

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	swarmlink "github.com/swarmlink/go-swarmlink"
	"github.com/swarmlink/go-swarmlink/internal/retry"
	"github.com/swarmlink/go-swarmlink/storage"
)

// Store is the slice of the persistence layer the update flow needs.
// *storage.Store satisfies it.
type Store interface {
	Save(name string, v interface{}) error
	Load(name string, v interface{}) error
	Exists(name string) bool
	Remove(name string) error
}

// RestartFunc hands control back to the supervisor. It does not return.
type RestartFunc func()

// Config bounds the armed update run.
type Config struct {
	// ConnectRetries is the number of connection attempts before the
	// run is abandoned.
	ConnectRetries int
	// ConnectTimeout bounds a single connection attempt.
	ConnectTimeout time.Duration
	// ConnectRetryDelay is the pause between connection attempts.
	ConnectRetryDelay time.Duration
	// DownloadTimeout bounds the whole fetch-and-stage step.
	DownloadTimeout time.Duration
}

// DefaultConfig returns the bounds used when none are configured.
func DefaultConfig() Config {
	return Config{
		ConnectRetries:    3,
		ConnectTimeout:    15 * time.Second,
		ConnectRetryDelay: 2 * time.Second,
		DownloadTimeout:   2 * time.Minute,
	}
}

// Manager owns the two halves of the update flow: HandleTrigger on the
// running bridge, RunPending at process start.
type Manager struct {
	store     Store
	connector Connector
	executor  Executor
	restart   RestartFunc
	cfg       Config
}

// NewManager wires the update flow together.
func NewManager(store Store, connector Connector, executor Executor, restart RestartFunc, cfg Config) *Manager {
	if cfg.ConnectRetries < 1 {
		cfg.ConnectRetries = 1
	}
	return &Manager{
		store:     store,
		connector: connector,
		executor:  executor,
		restart:   restart,
		cfg:       cfg,
	}
}

// HandleTrigger processes a received update trigger: validate, persist
// credentials and source, arm the marker, restart. The marker is only
// written after both records committed; a partial persist leaves the
// system un-armed.
func (m *Manager) HandleTrigger(p *swarmlink.OTAConfigPayload) error {
	if err := validateTrigger(p); err != nil {
		log.WithError(err).Warn("Rejecting OTA trigger")
		return err
	}

	log.WithFields(log.Fields{
		"ssid":   p.SSID,
		"source": p.SourceURL,
		"target": p.TargetID,
	}).Info("OTA trigger accepted, persisting update state")

	if err := m.store.Save(storage.RecordCredentials, &storage.Credentials{
		SSID:     p.SSID,
		Password: p.Password,
	}); err != nil {
		return fmt.Errorf("persisting credentials: %w", err)
	}
	if err := m.store.Save(storage.RecordUpdateSource, &storage.UpdateSource{
		URL: p.SourceURL,
	}); err != nil {
		return fmt.Errorf("persisting update source: %w", err)
	}
	if err := m.store.Save(storage.RecordPendingUpdate, &storage.PendingUpdate{
		Pending:   true,
		Timestamp: time.Now().Unix(),
	}); err != nil {
		return fmt.Errorf("arming update marker: %w", err)
	}

	log.Info("Update armed, restarting")
	m.restart()
	return nil
}

func validateTrigger(p *swarmlink.OTAConfigPayload) error {
	if p.SSID == "" {
		return errors.New("empty network name")
	}
	if len(p.SSID) > swarmlink.MaxSSIDLen {
		return fmt.Errorf("%w: network name %q", swarmlink.ErrFieldTooLong, p.SSID)
	}
	if len(p.Password) > swarmlink.MaxPasswordLen {
		return fmt.Errorf("%w: network password", swarmlink.ErrFieldTooLong)
	}
	if p.SourceURL == "" {
		return errors.New("empty firmware source")
	}
	return nil
}

// RunPending consumes an armed update marker. Call it once at process
// start, before the bridge comes up. When no marker exists it returns
// immediately. When one does, it is removed first: whatever happens
// afterwards, the next start boots normally.
func (m *Manager) RunPending(ctx context.Context) {
	if !m.store.Exists(storage.RecordPendingUpdate) {
		return
	}

	var marker storage.PendingUpdate
	if err := m.store.Load(storage.RecordPendingUpdate, &marker); err != nil {
		log.WithError(err).Warn("Unreadable update marker, discarding")
	}
	if err := m.store.Remove(storage.RecordPendingUpdate); err != nil {
		log.WithError(err).Error("Cannot remove update marker, refusing to run update")
		return
	}

	log.WithField("armed_at", time.Unix(marker.Timestamp, 0)).Info("Armed update found")

	var creds storage.Credentials
	if err := m.store.Load(storage.RecordCredentials, &creds); err != nil {
		log.WithError(err).Error("Update credentials missing, abandoning update")
		return
	}
	var source storage.UpdateSource
	if err := m.store.Load(storage.RecordUpdateSource, &source); err != nil {
		log.WithError(err).Error("Update source missing, abandoning update")
		return
	}

	if err := m.connect(ctx, &creds); err != nil {
		log.WithError(err).Error("Update connection failed, restarting")
		m.restart()
		return
	}

	dlCtx := ctx
	if m.cfg.DownloadTimeout > 0 {
		var cancel context.CancelFunc
		dlCtx, cancel = context.WithTimeout(ctx, m.cfg.DownloadTimeout)
		defer cancel()
	}
	if err := m.executor.Execute(dlCtx, source.URL); err != nil {
		log.WithError(err).Error("Update failed, restarting")
		m.restart()
		return
	}

	// One-time secrets, gone on success.
	if err := m.store.Remove(storage.RecordCredentials); err != nil {
		log.WithError(err).Warn("Cannot remove update credentials")
	}
	if err := m.store.Remove(storage.RecordUpdateSource); err != nil {
		log.WithError(err).Warn("Cannot remove update source")
	}

	log.Info("Update applied, restarting")
	m.restart()
}

func (m *Manager) connect(ctx context.Context, creds *storage.Credentials) error {
	attempt := 0
	err := retry.FixedContext(ctx, m.cfg.ConnectRetries, m.cfg.ConnectRetryDelay, func(ctx context.Context) error {
		attempt++
		if m.cfg.ConnectTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, m.cfg.ConnectTimeout)
			defer cancel()
		}
		if err := m.connector.Connect(ctx, creds.SSID, creds.Password); err != nil {
			log.WithError(err).WithField("attempt", attempt).Warn("Update connection attempt failed")
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("connecting to %q after %d attempts: %w", creds.SSID, m.cfg.ConnectRetries, err)
	}
	log.WithField("ssid", creds.SSID).Info("Connected for update")
	return nil
}
