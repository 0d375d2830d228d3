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

// Package rotator implements the first-free-port dispatch listener
// (spec.md §4.7): a single listening address that hands each accepted
// connection to the first currently-free port in an ordered list,
// advancing a rotating cursor past the hit.
package rotator

import (
	"context"
	"net"
	"sync"

	"github.com/chenwaichung/ser2net/logging"
	"github.com/chenwaichung/ser2net/port"
	"github.com/sirupsen/logrus"
)

const rejectNoFreePort = "No free port found\r\n"

// Lookup resolves a portname to its Port, mirroring the subset of
// registry.Registry the rotator needs without importing it directly
// (avoids a registry<->rotator import cycle, since a future registry
// feature could reasonably want to enumerate rotators).
type Lookup func(name string) (*port.Port, bool)

// IsFree reports whether name's Port can currently accept a new
// connection: idle and its device not claimed by another port
// (spec.md §4.7 "is_port_free").
type IsFree func(name string) bool

// Rotator dispatches accepted connections to the first free port in an
// ordered list, rotating the starting point forward on each successful
// dispatch (spec.md §3 "curr_port rotates strictly forward").
type Rotator struct {
	mu       sync.Mutex
	portv    []string
	currPort int

	lookup Lookup
	isFree IsFree
	log    logging.FuncLog

	ln net.Listener
}

// New builds a Rotator over portv (evaluated in the given order,
// wrapping around), using lookup to resolve names to ports and isFree to
// test port/device availability.
func New(portv []string, lookup Lookup, isFree IsFree, log logging.FuncLog) *Rotator {
	cp := make([]string, len(portv))
	copy(cp, portv)
	return &Rotator{portv: cp, lookup: lookup, isFree: isFree, log: log}
}

func (r *Rotator) logEntry(level logrus.Level, msg string, args ...interface{}) logging.Logger {
	if r.log == nil {
		return nil
	}
	return r.log().Entry(level, msg, args...)
}

func logDone(l logging.Logger) {
	if l != nil {
		l.Log()
	}
}

// Serve accepts connections on ln until ctx is done or Accept returns a
// fatal error.
func (r *Rotator) Serve(ctx context.Context, ln net.Listener) error {
	r.mu.Lock()
	r.ln = ln
	r.mu.Unlock()

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
		go r.dispatch(ctx, conn)
	}
}

// dispatch implements the accept-time scan of spec.md §4.7: walk portv
// starting at curr_port, find the first free hit, advance curr_port past
// it, and hand the connection to that port's Accept.
func (r *Rotator) dispatch(ctx context.Context, conn net.Conn) {
	name, ok := r.next()
	if !ok {
		_, _ = conn.Write([]byte(rejectNoFreePort))
		_ = conn.Close()
		logDone(r.logEntry(logrus.WarnLevel, "rotator: no free port for %s", conn.RemoteAddr()))
		return
	}

	p, ok := r.lookup(name)
	if !ok {
		_, _ = conn.Write([]byte(rejectNoFreePort))
		_ = conn.Close()
		return
	}

	if err := p.Accept(ctx, conn, false); err != nil {
		logDone(r.logEntry(logrus.WarnLevel, "rotator: dispatch to %s failed", name).ErrorAdd(true, err))
	}
}

// next finds the first free port starting at curr_port and advances the
// cursor past it; ok is false if none is currently free.
func (r *Rotator) next() (name string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.portv)
	if n == 0 {
		return "", false
	}

	for i := 0; i < n; i++ {
		idx := (r.currPort + i) % n
		candidate := r.portv[idx]
		if r.isFree(candidate) {
			r.currPort = (idx + 1) % n
			return candidate, true
		}
	}
	return "", false
}

// CurrPort returns the current rotation cursor, for tests and the
// control plane's diagnostics.
func (r *Rotator) CurrPort() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currPort
}

// Close stops accepting new connections.
func (r *Rotator) Close() error {
	r.mu.Lock()
	ln := r.ln
	r.mu.Unlock()
	if ln == nil {
		return nil
	}
	return ln.Close()
}
