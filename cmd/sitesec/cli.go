// SPDX-FileCopyrightText: Copyright 2025 The sitesec Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/cri-st/sitesec/env"
	"github.com/cri-st/sitesec/headers"
	"github.com/cri-st/sitesec/logging"
	"github.com/cri-st/sitesec/urlguard"
)

// Exit codes.
const (
	exitOK       = 0
	exitRejected = 1
	exitUsage    = 2
	exitError    = 3
)

const usage = `usage: sitesec <command> [arguments]

commands:
  check URL...      report whether each URL may be rendered as a link
  display URL...    print each URL with credentials removed
  headers [flags]   print the header set a request would receive
  serve [flags]     serve a directory behind the header policy
`

func run(args []string, stdout, stderr io.Writer, r env.Reader) int {
	if len(args) == 0 {
		_, _ = io.WriteString(stderr, usage)
		return exitUsage
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "check":
		return runCheck(rest, stdout, stderr)
	case "display":
		return runDisplay(rest, stdout, stderr)
	case "headers":
		return runHeaders(rest, stdout, stderr, r)
	case "serve":
		return runServe(rest, stderr, r)
	case "help", "-h", "-help", "--help":
		_, _ = io.WriteString(stdout, usage)
		return exitOK
	default:
		_, _ = fmt.Fprintf(stderr, "sitesec: unknown command %q\n\n%s", cmd, usage)
		return exitUsage
	}
}

func runCheck(urls []string, stdout, stderr io.Writer) int {
	if len(urls) == 0 {
		_, _ = io.WriteString(stderr, "usage: sitesec check URL...\n")
		return exitUsage
	}

	code := exitOK
	for _, u := range urls {
		result := "ok"
		if err := urlguard.Check(u); err != nil {
			result = urlguard.Reason(err)
			code = exitRejected
		}
		_, _ = fmt.Fprintf(stdout, "%s\t%s\n", result, u)
	}
	return code
}

func runDisplay(urls []string, stdout, stderr io.Writer) int {
	if len(urls) == 0 {
		_, _ = io.WriteString(stderr, "usage: sitesec display URL...\n")
		return exitUsage
	}
	for _, u := range urls {
		_, _ = fmt.Fprintln(stdout, urlguard.SanitizeDisplay(u))
	}
	return exitOK
}

func runHeaders(args []string, stdout, stderr io.Writer, r env.Reader) int {
	fset := flag.NewFlagSet("headers", flag.ContinueOnError)
	fset.SetOutput(stderr)
	scheme := fset.String("scheme", "https", "request scheme")
	host := fset.String("host", "", "request host")
	method := fset.String("method", "GET", "request method")
	path := fset.String("path", "/", "request path")
	policyFile := fset.String("policy", "", "policy file (default $"+env.PolicyFile+" or the XDG config path)")
	if err := fset.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	logger := logging.New(logging.WithEnv(r), logging.WithOutput(stderr))
	src, err := headers.NewSource(resolvePolicyPath(*policyFile, r), headers.WithSourceLogger(logger))
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "sitesec: %v\n", err)
		return exitError
	}

	matched, err := src.Policy().Matching(headers.Request{
		Scheme: strings.ToLower(*scheme),
		Host:   *host,
		Method: *method,
		Path:   *path,
	})
	if err != nil {
		logger.Warn("skipped conditional header rules", "error", err)
	}
	for _, rule := range matched {
		_, _ = fmt.Fprintf(stdout, "%s: %s\n", rule.Name, rule.Value)
	}
	return exitOK
}

func resolvePolicyPath(flagValue string, r env.Reader) string {
	if flagValue != "" {
		return flagValue
	}
	return env.String(r, env.PolicyFile, headers.DefaultPolicyPath())
}
