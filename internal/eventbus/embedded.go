// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package eventbus

import (
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

// EmbeddedServer wraps an in-process NATS JetStream server, for single-host
// deployments that don't want a separate NATS process to operate.
type EmbeddedServer struct {
	server    *server.Server
	clientURL string
}

// NewEmbeddedServer starts an embedded NATS server with JetStream enabled,
// persisting stream state under storeDir. Returns an error if the server
// isn't ready for connections within 30 seconds.
func NewEmbeddedServer(storeDir string) (*EmbeddedServer, error) {
	if storeDir == "" {
		storeDir = "./data/nats"
	}

	opts := &server.Options{
		ServerName: "newsclust-events",
		Host:       "127.0.0.1",
		Port:       -1, // let the OS pick a free port; ClientURL() reports it
		JetStream:  true,
		StoreDir:   storeDir,
		DontListen: false,
		MaxPayload: 8 * 1024 * 1024,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("eventbus: create embedded nats server: %w", err)
	}

	ns.ConfigureLogger()
	go ns.Start()

	if !ns.ReadyForConnections(30 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("eventbus: embedded nats server not ready within timeout")
	}

	return &EmbeddedServer{server: ns, clientURL: ns.ClientURL()}, nil
}

// ClientURL returns the connection URL publishers and subscribers dial.
func (s *EmbeddedServer) ClientURL() string {
	return s.clientURL
}

// Shutdown stops the embedded server and blocks until it fully drains.
func (s *EmbeddedServer) Shutdown() {
	s.server.Shutdown()
	s.server.WaitForShutdown()
}
