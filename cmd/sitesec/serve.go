// SPDX-FileCopyrightText: Copyright 2025 The sitesec Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/cri-st/sitesec/env"
	"github.com/cri-st/sitesec/headers"
	"github.com/cri-st/sitesec/logging"
	"github.com/cri-st/sitesec/metrics"
	"github.com/cri-st/sitesec/recovery"
)

const shutdownTimeout = 10 * time.Second

func runServe(args []string, stderr io.Writer, r env.Reader) int {
	fset := flag.NewFlagSet("serve", flag.ContinueOnError)
	fset.SetOutput(stderr)
	addr := fset.String("addr", ":8080", "listen address")
	dir := fset.String("dir", ".", "directory to serve")
	policyFile := fset.String("policy", "", "policy file (default $"+env.PolicyFile+" or the XDG config path)")
	if err := fset.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	logger := logging.New(logging.WithEnv(r), logging.WithOutput(stderr))
	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		logger.Error("failed to listen", "addr", *addr, "error", err)
		return exitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, logger, r, ln, *dir, resolvePolicyPath(*policyFile, r)); err != nil {
		logger.Error("server failed", "error", err)
		return exitError
	}
	return exitOK
}

// serve runs the site on ln until ctx is done, then shuts the server down
// gracefully. It owns ln and closes it on return.
func serve(ctx context.Context, logger *slog.Logger, r env.Reader, ln net.Listener, dir, policyPath string) error {
	registry := prometheus.NewRegistry()
	collector := metrics.New(registry)

	src, err := headers.NewSource(policyPath,
		headers.WithSourceLogger(logger),
		headers.WithReloadRecorder(collector),
	)
	if err != nil {
		_ = ln.Close()
		return err
	}

	srv := &http.Server{
		Handler:           newRouter(src, collector, registry, logger, env.Bool(r, env.TrustForwardedProto, false), dir),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := src.Watch(ctx); err != nil {
			logger.Warn("policy hot reload disabled", "path", src.Path(), "error", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("serving", "addr", ln.Addr().String(), "dir", dir, "policy", src.Path())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newRouter(
	src *headers.Source,
	collector *metrics.Collector,
	gatherer prometheus.Gatherer,
	logger *slog.Logger,
	trustForwarded bool,
	dir string,
) http.Handler {
	router := chi.NewRouter()
	router.Use(headers.NewMiddleware(
		headers.WithSource(src),
		headers.WithTrustForwardedProto(trustForwarded),
		headers.WithLogger(logger),
		headers.WithRecorder(collector),
	))
	router.Use(recovery.NewMiddleware(recovery.WithLogger(logger)))

	router.Get("/api/check", checkHandler(collector))
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	router.Handle("/*", http.FileServer(http.Dir(dir)))
	return router
}
