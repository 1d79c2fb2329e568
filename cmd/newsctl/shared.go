// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/newsclust/internal/config"
	"github.com/tomtom215/newsclust/internal/store/pgstore"
)

// openStore loads configuration the same way cmd/server does and opens a
// connection pool against it. Every subcommand here only reads through the
// resulting store.
func openStore(ctx context.Context) (*pgstore.Store, *config.Config, error) {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	st, err := pgstore.New(ctx, pgstore.Config{
		DSN:             cfg.Store.DSN,
		MaxConns:        cfg.Store.MaxConns,
		MinConns:        cfg.Store.MinConns,
		MaxConnLifetime: cfg.Store.ConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return st, cfg, nil
}

// writeSnapshot marshals result as indented JSON to out/<name>-<stamp>.json
// and refreshes out/<name>-latest.json to point at the same content, so an
// operator (or a CI diff step) can always read the latest run under a
// fixed name while keeping history under the timestamped one.
func writeSnapshot(out, name string, stamp time.Time, result any) (string, error) {
	if err := os.MkdirAll(out, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	payload = append(payload, '\n')

	timestamped := filepath.Join(out, fmt.Sprintf("%s-%s.json", name, stamp.UTC().Format("20060102T150405Z")))
	if err := os.WriteFile(timestamped, payload, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	latest := filepath.Join(out, name+"-latest.json")
	if err := os.WriteFile(latest, payload, 0o644); err != nil {
		return "", fmt.Errorf("write latest pointer: %w", err)
	}

	return timestamped, nil
}

// flagInt/flagString read a flag already declared on the root command's
// persistent flag set, which every subcommand here inherits.
func flagInt(cmd *cobra.Command, name string) int {
	v, _ := cmd.Flags().GetInt(name)
	return v
}

func flagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}
