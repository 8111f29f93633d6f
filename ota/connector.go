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
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Connector brings network connectivity up for the update run.
type Connector interface {
	Connect(ctx context.Context, ssid, password string) error
}

// ConnectorFunc adapts a function to the Connector interface.
type ConnectorFunc func(ctx context.Context, ssid, password string) error

// Connect implements Connector.
func (f ConnectorFunc) Connect(ctx context.Context, ssid, password string) error {
	return f(ctx, ssid, password)
}

// NMCLIConnector joins a Wi-Fi network through NetworkManager's command
// line client.
type NMCLIConnector struct {
	// Interface optionally pins the connection to one wireless
	// interface.
	Interface string
}

// Connect implements Connector, shelling out to nmcli. The context
// bounds the whole attempt; nmcli is killed when it expires.
func (c *NMCLIConnector) Connect(ctx context.Context, ssid, password string) error {
	args := []string{"device", "wifi", "connect", ssid}
	if password != "" {
		args = append(args, "password", password)
	}
	if c.Interface != "" {
		args = append(args, "ifname", c.Interface)
	}

	log.WithFields(log.Fields{
		"ssid":    ssid,
		"ifname":  c.Interface,
		"command": "nmcli",
	}).Debug("Joining update network")

	cmd := exec.CommandContext(ctx, "nmcli", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("nmcli connect %q: %w: %s", ssid, err, strings.TrimSpace(string(out)))
	}
	return nil
}
