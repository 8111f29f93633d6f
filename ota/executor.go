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

package ota

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// Executor fetches and applies one firmware image.
type Executor interface {
	Execute(ctx context.Context, url string) error
}

// DefaultSizeLimit caps a fetched image at 16 MiB.
const DefaultSizeLimit = 16 << 20

// HTTPExecutor downloads a firmware image over HTTP and stages it at a
// target path. The image is written to a temporary file and renamed
// into place, the same commit discipline the state store uses: the
// target path never holds a partial image.
type HTTPExecutor struct {
	// TargetPath is where the finished image lands.
	TargetPath string
	// SizeLimit caps the accepted image size in bytes. Zero means
	// DefaultSizeLimit.
	SizeLimit int64
	// Client optionally overrides the HTTP client.
	Client *http.Client
}

// Execute implements Executor.
func (e *HTTPExecutor) Execute(ctx context.Context, url string) error {
	limit := e.SizeLimit
	if limit <= 0 {
		limit = DefaultSizeLimit
	}
	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}

	log.WithFields(log.Fields{
		"url":    url,
		"target": e.TargetPath,
	}).Info("Fetching firmware image")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building firmware request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching firmware: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching firmware: unexpected status %s", resp.Status)
	}
	if resp.ContentLength > limit {
		return fmt.Errorf("firmware image too large: %d bytes, limit %d", resp.ContentLength, limit)
	}

	dir := filepath.Dir(e.TargetPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating firmware directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "firmware.*.part")
	if err != nil {
		return fmt.Errorf("staging firmware image: %w", err)
	}
	defer os.Remove(tmp.Name())

	// Read one byte past the limit so an unsized stream that exceeds
	// it is detected rather than silently truncated.
	n, err := io.Copy(tmp, io.LimitReader(resp.Body, limit+1))
	if err != nil {
		tmp.Close()
		return fmt.Errorf("downloading firmware: %w", err)
	}
	if n > limit {
		tmp.Close()
		return fmt.Errorf("firmware image too large: exceeds limit %d", limit)
	}
	if n == 0 {
		tmp.Close()
		return fmt.Errorf("downloading firmware: empty image")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing firmware image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing staged firmware image: %w", err)
	}

	if err := os.Rename(tmp.Name(), e.TargetPath); err != nil {
		return fmt.Errorf("committing firmware image: %w", err)
	}

	log.WithField("bytes", n).Info("Firmware image staged")
	return nil
}
