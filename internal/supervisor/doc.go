// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

/*
Package supervisor provides process supervision for the pipeline using
suture v4.

This package implements a hierarchical supervisor tree that manages the
lifecycle of every long-running service in the process. It provides
Erlang/OTP-style supervision with automatic restart, failure isolation, and
graceful shutdown.

# Overview

The supervisor tree organizes services into three layers for failure
isolation:

	RootSupervisor ("newsclust")
	├── EventBusSupervisor ("eventbus-layer")
	│   ├── EventBusService (one per subscribed topic)
	│   └── AutoRetryWorker (dead-letter queue auto-retry)
	├── WorkersSupervisor ("workers-layer")
	│   └── SchedulerService (wraps internal/scheduler's tick loop)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

This hierarchy ensures that:
  - A crash in the event-bus subscriber doesn't affect the HTTP API
  - A hung scheduled job doesn't take down story reads
  - Each layer can restart independently

# Key Features

Automatic Restart:
  - Crashed services are automatically restarted
  - A fixed FailureBackoff pause once failures pass FailureThreshold prevents restart storms
  - Configurable failure thresholds and decay rates

Failure Isolation:
  - Services are organized into logical groups
  - Child supervisor failures don't propagate upward
  - Each layer has independent failure counting

Graceful Shutdown:
  - Context cancellation triggers orderly shutdown
  - Configurable shutdown timeout per service
  - UnstoppedServiceReport for debugging hangs

Structured Logging:
  - Integration with slog for structured events
  - Logs service starts, stops, failures, and restarts
  - Event hooks via sutureslog adapter

# Usage Example

Basic setup in main.go:

	import (
	    "log/slog"
	    "github.com/tomtom215/newsclust/internal/supervisor"
	)

	func main() {
	    logger := slog.Default()
	    config := supervisor.DefaultTreeConfig()

	    tree, err := supervisor.NewSupervisorTree(logger, config)
	    if err != nil {
	        log.Fatal(err)
	    }

	    tree.AddAPIService(httpServerService)
	    tree.AddEventBusService(eventBusSubscriberService)
	    tree.AddWorkerService(schedulerService)

	    ctx := context.Background()
	    if err := tree.Serve(ctx); err != nil {
	        log.Printf("Supervisor stopped: %v", err)
	    }
	}

# Configuration

The TreeConfig controls restart behavior:

	config := supervisor.TreeConfig{
	    FailureThreshold: 5.0,             // Failures before backoff
	    FailureDecay:     30.0,            // Seconds for failures to decay
	    FailureBackoff:   15 * time.Second, // Backoff duration
	    ShutdownTimeout:  10 * time.Second, // Per-service shutdown timeout
	}

Default values match suture's production-ready defaults.

# Service Interface

All services must implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Return behavior:
  - Return nil: service stopped cleanly, will not be restarted
  - Return error: service crashed, will be restarted
  - Context canceled: shutdown requested, return promptly

# Debugging Shutdown Issues

If services don't stop within the timeout:

	report, err := tree.UnstoppedServiceReport()
	for _, svc := range report {
	    log.Printf("service didn't stop: %v", svc)
	}

# Thread Safety

The SupervisorTree is safe for concurrent use: services can be added from
any goroutine and remove operations are synchronized.
*/
package supervisor
