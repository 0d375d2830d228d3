/*
 * MIT License
 *
 * Copyright (c) 2026 chenwaichung
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/chenwaichung/ser2net/config"
	"github.com/chenwaichung/ser2net/control"
	"github.com/chenwaichung/ser2net/device"
	"github.com/chenwaichung/ser2net/logging"
	"github.com/chenwaichung/ser2net/metrics"
	"github.com/chenwaichung/ser2net/port"
	"github.com/chenwaichung/ser2net/registry"
	"github.com/chenwaichung/ser2net/rotator"
)

var metricsAddr string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the gateway until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			return runServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address to expose Prometheus metrics on (disabled if empty)")
	return cmd
}

// deviceFactory resolves a devname to a backend the way spec.md §6's
// "sol.* devname prefix" convention describes: the sol. prefix selects
// the in-band management stub, everything else is a real tty.
func deviceFactory(devname string) device.IO {
	if strings.HasPrefix(devname, "sol.") {
		return device.NewSOL()
	}
	return device.NewTermios()
}

func runServe(ctx context.Context) error {
	base := logrus.New()
	log := logging.New(base)

	loader, err := config.New(configPath, log)
	if err != nil {
		return err
	}
	file, gen, err := loader.Load()
	if err != nil {
		return err
	}

	reg := registry.New(deviceFactory, nil, log)
	if err := config.Apply(reg, file, gen, log); err != nil {
		return err
	}
	config.WatchAndApply(loader, reg, log)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	for _, name := range reg.Names() {
		name := name
		ln, err := net.Listen("tcp", name)
		if err != nil {
			return fmt.Errorf("listen on port %s: %w", name, err)
		}
		g.Go(func() error { return servePort(gctx, reg, name, ln, log) })
	}

	for _, rs := range file.Rotators {
		rs := rs
		ln, err := net.Listen("tcp", rs.Addr)
		if err != nil {
			return fmt.Errorf("listen on rotator %s: %w", rs.Addr, err)
		}
		rot := rotator.New(rs.Ports, reg.Get, func(n string) bool {
			p, ok := reg.Get(n)
			return ok && !p.InUse()
		}, log)
		g.Go(func() error { return rot.Serve(gctx, ln) })
	}

	if file.ControlAddr != "" {
		ln, err := net.Listen("tcp", file.ControlAddr)
		if err != nil {
			return fmt.Errorf("listen on control address %s: %w", file.ControlAddr, err)
		}
		ctrl := control.New(reg, log)
		g.Go(func() error { return ctrl.Serve(gctx, ln) })
	}

	if metricsAddr != "" {
		ln, err := net.Listen("tcp", metricsAddr)
		if err != nil {
			return fmt.Errorf("listen on metrics address %s: %w", metricsAddr, err)
		}
		srv := metrics.NewServerForRegistry(reg, "/metrics")
		g.Go(func() error { return srv.Serve(gctx, ln) })
	}

	g.Go(func() error {
		return waitForSignal(gctx, cancel, reg, log)
	})

	return g.Wait()
}

func waitForSignal(ctx context.Context, cancel context.CancelFunc, reg *registry.Registry, log logging.FuncLog) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
		if entry := logEntry(log); entry != nil {
			entry.Entry(logrus.InfoLevel, "received shutdown signal, draining ports").Log()
		}
		reg.ShutdownAll(port.ReasonLocalShutdown)
		cancel()
	case <-ctx.Done():
	}
	return nil
}

func logEntry(log logging.FuncLog) logging.Logger {
	if log == nil {
		return nil
	}
	return log()
}

// servePort runs one port's TCP accept loop, handing every accepted
// connection to the registry's Accept path (spec.md §4.6).
func servePort(ctx context.Context, reg *registry.Registry, name string, ln net.Listener, log logging.FuncLog) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go func() {
			if err := reg.Accept(ctx, name, conn); err != nil {
				if entry := logEntry(log); entry != nil {
					entry.Entry(logrus.WarnLevel, "accept rejected on port %s", name).ErrorAdd(true, err).Log()
				}
			}
		}()
	}
}
