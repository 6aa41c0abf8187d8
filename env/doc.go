// SPDX-FileCopyrightText: Copyright 2025 The sitesec Authors
// SPDX-License-Identifier: Apache-2.0

/*
Package env provides an interface-based abstraction for environment variable
access, plus the names of the variables sitesec understands.

# Basic Usage

	reader := &env.OSReader{}
	path := env.String(reader, env.PolicyFile, headers.DefaultPolicyPath())
	trust := env.Bool(reader, env.TrustForwardedProto, false)

# Testing

Production code accepts an env.Reader so tests can inject the generated
mock from the mocks sub-package:

	ctrl := gomock.NewController(t)
	mock := mocks.NewMockReader(ctrl)
	mock.EXPECT().Getenv(env.LogLevel).Return("debug")
*/
package env
