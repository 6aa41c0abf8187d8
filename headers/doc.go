// SPDX-FileCopyrightText: Copyright 2025 The sitesec Authors
// SPDX-License-Identifier: Apache-2.0

/*
Package headers sets a security header policy on HTTP responses.

A Policy is an ordered list of rules. Each rule sets one header and may be
restricted to a request scheme or guarded by a CEL condition. The default
policy sets Content-Security-Policy, X-Frame-Options,
X-Content-Type-Options, Referrer-Policy, Permissions-Policy and
X-XSS-Protection on every response, and Strict-Transport-Security on https
requests only. Values are set, not appended, so applying a policy twice
leaves the same header set.

# Usage

As net/http middleware:

	mux := http.NewServeMux()
	handler := headers.Middleware(mux)

The policy is applied when the wrapped handler commits its response, so it
wins over values the handler set itself. For a policy file that is reloaded
on change:

	src, err := headers.NewSource(headers.DefaultPolicyPath())
	if err != nil {
		return err
	}
	go src.Watch(ctx)
	handler := headers.NewMiddleware(headers.WithSource(src))(mux)

As a response hook around any function that produces a response:

	resp, err := headers.Intercept(headers.Request{Scheme: "https"}, next)

and as httputil.ReverseProxy.ModifyResponse through Policy.ModifyResponse.

# Policy files

	inherit_defaults: true
	headers:
	  - name: Cross-Origin-Opener-Policy
	    value: same-origin
	  - name: X-Robots-Tag
	    value: noindex
	    when: request.path.startsWith("/drafts/")

Documents are validated against an embedded JSON schema, then each header
against RFC 7230, then each condition is compiled.
*/
package headers
