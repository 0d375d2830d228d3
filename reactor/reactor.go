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

// Package reactor is the event-source abstraction the port state machine
// runs on: readable/writable/except callbacks per registered source, plus
// one-shot and periodic timers (spec.md §6 "Reactor/IO"). The original
// select(2)-based event loop is replaced with one goroutine per registered
// source, since Go has no portable single-threaded multiplexer over mixed
// file descriptors and channels the way the C original does.
package reactor

import (
	"context"
	"sync"
	"time"
)

// Readable is implemented by anything the reactor can poll for read
// readiness: a blocking Read that returns promptly once data (or an error)
// is available.
type Readable interface {
	Read(p []byte) (int, error)
}

// Writable is implemented by anything the reactor can poll for write
// readiness.
type Writable interface {
	Write(p []byte) (int, error)
}

// OnReadable is invoked after a successful read with the bytes read; it
// returns false to unregister the source.
type OnReadable func(n int, data []byte, err error) bool

// OnWritable is invoked when the source is ready to accept more output.
type OnWritable func() bool

// OnExcept is invoked on an exceptional condition (device hangup, etc.).
type OnExcept func(err error)

// OnTimer fires when a registered timer elapses.
type OnTimer func()

// Reactor runs registered sources concurrently under a single cancelable
// context, mirroring how `httpserver/run` drives each server goroutine off
// one shared lifecycle context.
type Reactor struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	wg      sync.WaitGroup
	timers  map[string]*time.Timer
	tickers map[string]*time.Ticker
}

// New builds a Reactor bound to parent; cancelling parent (or calling
// Stop) tears down every registered source.
func New(parent context.Context) *Reactor {
	ctx, cancel := context.WithCancel(parent)
	return &Reactor{
		ctx:     ctx,
		cancel:  cancel,
		timers:  make(map[string]*time.Timer),
		tickers: make(map[string]*time.Ticker),
	}
}

// RegisterRead starts a goroutine that repeatedly reads from src with
// bufSize-sized reads, invoking onRead for each result, until onRead
// returns false, the reactor is stopped, or onExcept handles a fatal error.
func (r *Reactor) RegisterRead(src Readable, bufSize int, onRead OnReadable, onExcept OnExcept) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		buf := make([]byte, bufSize)
		for {
			select {
			case <-r.ctx.Done():
				return
			default:
			}

			n, err := src.Read(buf)
			if n > 0 {
				if !onRead(n, buf[:n], nil) {
					return
				}
			}
			if err != nil {
				if onExcept != nil {
					onExcept(err)
				}
				onRead(0, nil, err)
				return
			}
		}
	}()
}

// RegisterTimer arms a one-shot timer under name; a later RegisterTimer
// with the same name replaces it (used by the port's send_timer, which is
// rearmed on every buffered byte).
func (r *Reactor) RegisterTimer(name string, d time.Duration, onFire OnTimer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.timers[name]; ok {
		t.Stop()
	}

	t := time.AfterFunc(d, func() {
		select {
		case <-r.ctx.Done():
			return
		default:
		}
		onFire()
	})
	r.timers[name] = t
}

// CancelTimer stops a previously armed one-shot timer, if still pending.
func (r *Reactor) CancelTimer(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.timers[name]; ok {
		t.Stop()
		delete(r.timers, name)
	}
}

// RegisterTicker starts a periodic timer (the port's 1-Hz activity tick)
// under name, running onFire on each period until Stop or CancelTicker.
func (r *Reactor) RegisterTicker(name string, period time.Duration, onFire OnTimer) {
	r.mu.Lock()
	t := time.NewTicker(period)
	r.tickers[name] = t
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-t.C:
				onFire()
			}
		}
	}()
}

// CancelTicker stops a periodic timer.
func (r *Reactor) CancelTicker(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tickers[name]; ok {
		t.Stop()
		delete(r.tickers, name)
	}
}

// Context returns the reactor's lifecycle context, for sources that want
// to select on it directly (e.g. a blocking net.Listener.Accept loop).
func (r *Reactor) Context() context.Context { return r.ctx }

// Stop cancels every registered source and blocks until their goroutines
// have exited.
func (r *Reactor) Stop() {
	r.cancel()

	r.mu.Lock()
	for _, t := range r.timers {
		t.Stop()
	}
	for _, t := range r.tickers {
		t.Stop()
	}
	r.mu.Unlock()

	r.wg.Wait()
}
