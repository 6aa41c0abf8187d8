// SPDX-FileCopyrightText: Copyright 2025 The sitesec Authors
// SPDX-License-Identifier: Apache-2.0

/*
Package http validates HTTP header names and values before they are placed
into a response header policy.

A policy file is operator input. A value containing CRLF would let it smuggle
extra headers into every response, so every configured header goes through:

	if err := http.ValidateHeader("X-Robots-Tag", "noindex"); err != nil {
		// reject the policy
	}

The validators check for:
  - CRLF and other control characters
  - RFC 7230 token compliance for names
  - length limits (256 bytes for names, 8192 for values)
  - connection-level names such as Connection or Transfer-Encoding, which
    belong to the server and not to a static policy
*/
package http
