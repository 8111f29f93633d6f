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

// fwserver serves firmware images to updating bridge nodes. Point the
// OTA trigger's source URL at it.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

func main() {
	os.Exit(run())
}

func run() int {
	listen := flag.String("listen", ":8070", "Listen address")
	dir := flag.String("dir", ".", "Directory holding firmware images")
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	absDir, err := filepath.Abs(*dir)
	if err != nil {
		log.WithError(err).Error("Cannot resolve image directory")
		return 1
	}

	r := mux.NewRouter()
	r.Use(requestLogger)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(absDir))).Methods(http.MethodGet, http.MethodHead)

	srv := &http.Server{
		Addr:              *listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.WithField("signal", sig).Info("Shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("Forced shutdown")
		}
	}()

	log.WithFields(log.Fields{
		"listen": *listen,
		"dir":    absDir,
	}).Info("Serving firmware images")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("Server failed")
		return 1
	}
	return 0
}

// requestLogger logs one line per request, the way updating nodes show
// up in the journal.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"remote":   r.RemoteAddr,
			"duration": time.Since(start),
		}).Info("Request served")
	})
}
