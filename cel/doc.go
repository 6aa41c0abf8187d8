// SPDX-FileCopyrightText: Copyright 2025 The sitesec Authors
// SPDX-License-Identifier: Apache-2.0

/*
Package cel compiles boolean CEL conditions that decide whether an optional
header rule applies to a request.

Conditions see a single variable, request, a map of strings with the keys
scheme, host, method and path:

	engine := cel.NewEngine()
	cond, err := engine.Compile(`request.path.startsWith("/drafts/")`)
	if err != nil {
		// *cel.ParseError or *cel.CheckError
	}
	ok, err := cond.Match(map[string]string{
		"scheme": "https", "host": "cri.st", "method": "GET", "path": "/drafts/a",
	})

Expressions longer than DefaultMaxExpressionLength are rejected at compile
time and evaluation is bounded by DefaultCostLimit. Engine and Condition are
safe for concurrent use.
*/
package cel
