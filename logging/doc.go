// SPDX-FileCopyrightText: Copyright 2026 The sitesec Authors
// SPDX-License-Identifier: Apache-2.0

/*
Package logging provides a pre-configured [log/slog.Logger] factory shared by
the sitesec packages and the sitesec command.

# Defaults

  - Format: JSON ([FormatJSON])
  - Level: INFO
  - Output: [os.Stderr]
  - Timestamps: [time.RFC3339]

# Usage

	logger := logging.New(
		logging.WithEnv(&env.OSReader{}),
		logging.WithFormat(logging.FormatText),
	)
	logger.Info("policy loaded", "path", path)

Options apply in order, so WithEnv placed first lets later options win and
placed last lets the environment win.

Inject a buffer to capture output in tests:

	var buf bytes.Buffer
	logger := logging.New(logging.WithOutput(&buf))
*/
package logging
