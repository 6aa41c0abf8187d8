// SPDX-FileCopyrightText: Copyright 2025 The sitesec Authors
// SPDX-License-Identifier: Apache-2.0

// Command sitesec checks link URLs, prints the effective security header
// set and serves a static directory behind the header policy.
package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/cri-st/sitesec/env"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, &env.OSReader{}))
}
