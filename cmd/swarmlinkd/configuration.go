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

package main

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"

	"github.com/swarmlink/go-swarmlink/transport/espnow"
	"github.com/swarmlink/go-swarmlink/transport/uart"
)

// Configuration is the daemon's TOML configuration file.
type Configuration struct {
	Core     coreConfig     `toml:"core"`
	Serial   serialConfig   `toml:"serial"`
	Wireless wirelessConfig `toml:"wireless"`
	Update   updateConfig   `toml:"update"`
}

type coreConfig struct {
	// StateDir holds the persisted records crossing restarts.
	StateDir string `toml:"state-dir"`
	LogLevel string `toml:"log-level"`
	// StatsInterval between periodic counter reports; zero disables
	// them.
	StatsInterval duration `toml:"stats-interval"`
}

type serialConfig struct {
	Port     string `toml:"port"`
	BaudRate int    `toml:"baud-rate"`
}

type wirelessConfig struct {
	NetworkID   byte     `toml:"network-id"`
	Channel     byte     `toml:"channel"`
	TxPower     byte     `toml:"tx-power"`
	SendRetries int      `toml:"send-retries"`
	RetryDelay  duration `toml:"retry-delay"`
	// InitRetries bounds radio bring-up attempts before the daemon
	// continues serial-only.
	InitRetries int      `toml:"init-retries"`
	InitDelay   duration `toml:"init-delay"`
	// BasePort is the UDP port the channel offsets from.
	BasePort int `toml:"base-port"`
}

type updateConfig struct {
	FirmwarePath    string   `toml:"firmware-path"`
	SizeLimit       int64    `toml:"size-limit"`
	ConnectRetries  int      `toml:"connect-retries"`
	ConnectTimeout  duration `toml:"connect-timeout"`
	DownloadTimeout duration `toml:"download-timeout"`
	// WifiInterface optionally pins the update connection to one
	// interface.
	WifiInterface string `toml:"wifi-interface"`
}

// duration is a time.Duration with TOML string support, e.g. "30s".
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", text, err)
	}
	*d = duration(parsed)
	return nil
}

func defaultConfiguration() Configuration {
	return Configuration{
		Core: coreConfig{
			StateDir:      "/var/lib/swarmlinkd",
			LogLevel:      "info",
			StatsInterval: duration(30 * time.Second),
		},
		Serial: serialConfig{
			Port:     "/dev/ttyUSB0",
			BaudRate: uart.DefaultBaudRate,
		},
		Wireless: wirelessConfig{
			NetworkID:   0x12,
			Channel:     1,
			TxPower:     11,
			SendRetries: 3,
			RetryDelay:  duration(10 * time.Millisecond),
			InitRetries: 3,
			InitDelay:   duration(time.Second),
			BasePort:    espnow.DefaultBasePort,
		},
		Update: updateConfig{
			FirmwarePath:    "/var/lib/swarmlinkd/firmware.bin",
			ConnectRetries:  3,
			ConnectTimeout:  duration(15 * time.Second),
			DownloadTimeout: duration(2 * time.Minute),
		},
	}
}

// loadConfiguration reads the configuration file at path over the
// defaults. An empty path keeps the defaults.
func loadConfiguration(path string) (Configuration, error) {
	conf := defaultConfiguration()
	if path == "" {
		return conf, nil
	}
	meta, err := toml.DecodeFile(path, &conf)
	if err != nil {
		return conf, fmt.Errorf("parsing configuration %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		log.WithField("keys", undecoded).Warn("Unknown configuration keys ignored")
	}
	return conf, nil
}

func (c *Configuration) applyLogLevel() error {
	level, err := log.ParseLevel(c.Core.LogLevel)
	if err != nil {
		return fmt.Errorf("parsing log level %q: %w", c.Core.LogLevel, err)
	}
	log.SetLevel(level)
	return nil
}
