// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Command catctl is the console client of the catadmin backend. It prints and
// edits the category hierarchy and opens an interactive cascading selector.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env if present (development)
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd(remoteRepository).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
