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

// swarmlinkd bridges a flight controller on a serial port to the swarm
// broadcast network, and runs the restart-crossing firmware update
// flow.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	swarmlink "github.com/swarmlink/go-swarmlink"
	"github.com/swarmlink/go-swarmlink/bridge"
	"github.com/swarmlink/go-swarmlink/ota"
	"github.com/swarmlink/go-swarmlink/storage"
	"github.com/swarmlink/go-swarmlink/transport/espnow"
	"github.com/swarmlink/go-swarmlink/transport/uart"
)

// exitRestart asks the supervisor for a restart rather than a stop.
const exitRestart = 7

// lateWriter defers to a writer bound after construction. The wireless
// forwarder needs the bridge, which needs the adapter.
type lateWriter struct{ w io.Writer }

func (l *lateWriter) Write(p []byte) (int, error) { return l.w.Write(p) }

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "Path to the TOML configuration file")
	listPorts := flag.Bool("list-ports", false, "List available serial ports and exit")
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if *listPorts {
		ports, err := uart.Ports()
		if err != nil {
			log.WithError(err).Error("Cannot enumerate serial ports")
			return 1
		}
		for _, p := range ports {
			log.WithField("port", p).Info("Serial port")
		}
		return 0
	}

	conf, err := loadConfiguration(*configPath)
	if err != nil {
		log.WithError(err).Error("Cannot load configuration")
		return 1
	}
	if err := conf.applyLogLevel(); err != nil {
		log.WithError(err).Error("Invalid log level")
		return 1
	}

	store, err := storage.Open(conf.Core.StateDir)
	if err != nil {
		log.WithError(err).Error("Cannot open state store")
		return 1
	}

	restart := func() {
		log.Info("Restart requested, exiting for supervisor")
		os.Exit(exitRestart)
	}

	manager := ota.NewManager(
		store,
		&ota.NMCLIConnector{Interface: conf.Update.WifiInterface},
		&ota.HTTPExecutor{
			TargetPath: conf.Update.FirmwarePath,
			SizeLimit:  conf.Update.SizeLimit,
		},
		restart,
		ota.Config{
			ConnectRetries:    conf.Update.ConnectRetries,
			ConnectTimeout:    time.Duration(conf.Update.ConnectTimeout),
			ConnectRetryDelay: 2 * time.Second,
			DownloadTimeout:   time.Duration(conf.Update.DownloadTimeout),
		},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.WithField("signal", sig).Info("Shutting down")
		cancel()
	}()

	// An armed update runs before the bridge comes up; on the armed
	// path this call does not return.
	manager.RunPending(ctx)

	radio := radioConfig(store, &conf)

	serial, err := uart.New(conf.Serial.Port, conf.Serial.BaudRate)
	if err != nil {
		log.WithError(err).WithField("port", conf.Serial.Port).Error("Cannot open serial port")
		return 1
	}

	stats := swarmlink.NewStats()
	forward := &lateWriter{}
	adapter := espnow.New(
		&espnow.UDPDriver{BasePort: conf.Wireless.BasePort},
		espnow.Config{
			Channel:     radio.Channel,
			TxPower:     radio.TxPower,
			NetworkID:   radio.NetworkID,
			Encrypt:     radio.Encrypt,
			SendRetries: conf.Wireless.SendRetries,
			RetryDelay:  time.Duration(conf.Wireless.RetryDelay),
		},
		espnow.WithStats(stats),
		espnow.WithForwarder(forward),
		espnow.WithOTAHandler(func(p *swarmlink.OTAConfigPayload) {
			if err := manager.HandleTrigger(p); err != nil {
				log.WithError(err).Warn("Wireless OTA trigger rejected")
			}
		}),
	)

	b := bridge.New(serial, adapter,
		bridge.WithStats(stats),
		bridge.WithOTA(manager),
		bridge.WithRadioConfig(store, restart),
	)
	forward.w = b.ForwardWriter()
	defer func() {
		if err := b.Close(); err != nil {
			log.WithError(err).Warn("Bridge shutdown reported errors")
		}
	}()

	if !bringUpWireless(ctx, adapter, &conf) {
		log.Warn("Wireless leg unavailable, bridging serial-only")
	}

	pumpDone := make(chan error, 1)
	go func() {
		pumpDone <- serial.Pump(b.SerialSink())
	}()

	log.WithFields(log.Fields{
		"port":       conf.Serial.Port,
		"baud_rate":  conf.Serial.BaudRate,
		"network_id": radio.NetworkID,
		"channel":    radio.Channel,
	}).Info("Bridge running")

	if interval := time.Duration(conf.Core.StatsInterval); interval > 0 {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					stats.Log()
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	select {
	case <-ctx.Done():
		return 0
	case err := <-pumpDone:
		if err != nil && !errors.Is(err, swarmlink.ErrTransportClosed) {
			log.WithError(err).Error("Serial pump failed")
			return 1
		}
		return 0
	}
}

// radioConfig loads the persisted radio parameters, seeding them from
// the configuration file on first start.
func radioConfig(store *storage.Store, conf *Configuration) storage.RadioConfig {
	var radio storage.RadioConfig
	err := store.Load(storage.RecordRadioConfig, &radio)
	if err == nil {
		log.WithFields(log.Fields{
			"network_id": radio.NetworkID,
			"channel":    radio.Channel,
			"tx_power":   radio.TxPower,
		}).Info("Loaded persisted radio configuration")
		return radio
	}
	if !errors.Is(err, storage.ErrNotFound) {
		log.WithError(err).Warn("Unreadable radio configuration, using configured defaults")
	}

	radio = storage.RadioConfig{
		NetworkID: conf.Wireless.NetworkID,
		Channel:   conf.Wireless.Channel,
		TxPower:   conf.Wireless.TxPower,
	}
	if err := store.Save(storage.RecordRadioConfig, &radio); err != nil {
		log.WithError(err).Warn("Cannot persist initial radio configuration")
	}
	return radio
}

// bringUpWireless initializes the radio with bounded retries. A radio
// that will not come up degrades the daemon to serial-only bridging
// instead of stopping it.
func bringUpWireless(ctx context.Context, adapter *espnow.Adapter, conf *Configuration) bool {
	retries := conf.Wireless.InitRetries
	if retries < 1 {
		retries = 1
	}

	for attempt := 1; attempt <= retries; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(time.Duration(conf.Wireless.InitDelay)):
			case <-ctx.Done():
				return false
			}
		}
		if err := adapter.Init(); err != nil {
			log.WithError(err).WithField("attempt", attempt).Warn("Radio bring-up failed")
			continue
		}
		return true
	}
	return false
}
