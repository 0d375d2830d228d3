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

// Package registry is the keyed port table replacing the original's
// ports_lock-guarded linked list (spec.md §3 "Port list"): every
// configured port indexed by name, with device-collision detection,
// bulk reconfiguration, and idle-deletion sweeping.
package registry

import (
	"context"
	"net"
	"sort"
	"sync"

	liberr "github.com/chenwaichung/ser2net/errors"
	"github.com/chenwaichung/ser2net/logging"
	"github.com/chenwaichung/ser2net/port"
)

const codeBase liberr.CodeError = 4300

const (
	CodeUnknownPort liberr.CodeError = codeBase + iota
	CodeDuplicatePort
)

func init() {
	liberr.RegisterIdFctMessage(codeBase, func(code liberr.CodeError) string {
		switch code {
		case CodeUnknownPort:
			return "unknown port name"
		case CodeDuplicatePort:
			return "port name already registered"
		default:
			return "registry error"
		}
	})
}

// Registry is the live set of configured ports, keyed by portname.
type Registry struct {
	mu    sync.RWMutex
	ports map[string]*port.Port

	devFactory port.DeviceFactory
	hostAccess port.HostAccess
	log        logging.FuncLog
}

// New builds an empty Registry. devFactory and hostAccess are shared by
// every port it creates; log is the FuncLog each port logs through.
func New(devFactory port.DeviceFactory, hostAccess port.HostAccess, log logging.FuncLog) *Registry {
	return &Registry{
		ports:      make(map[string]*port.Port),
		devFactory: devFactory,
		hostAccess: hostAccess,
		log:        log,
	}
}

// Add registers a new port under cfg.PortName, or returns
// CodeDuplicatePort if that name is already taken.
func (r *Registry) Add(cfg port.Config) (*port.Port, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.ports[cfg.PortName]; exists {
		return nil, liberr.New(CodeDuplicatePort, "", nil)
	}

	p := port.New(cfg, r.devFactory, r.hostAccess, r.log)
	r.ports[cfg.PortName] = p
	return p, nil
}

// Get looks a port up by name.
func (r *Registry) Get(name string) (*port.Port, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.ports[name]
	return p, ok
}

// Names returns every registered port name, sorted, for deterministic
// showport/showshortport listing order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ports))
	for n := range r.ports {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Walk invokes fn for every registered port in name order, stopping early
// if fn returns false.
func (r *Registry) Walk(fn func(name string, p *port.Port) bool) {
	for _, name := range r.Names() {
		p, ok := r.Get(name)
		if !ok {
			continue
		}
		if !fn(name, p) {
			return
		}
	}
}

// IsDeviceBusy reports whether devname is claimed by any port other than
// exceptName (spec.md §5 "is_device_already_inuse"); Port.Accept takes
// the result as its deviceBusy parameter since a single Port cannot see
// its siblings.
func (r *Registry) IsDeviceBusy(devname, exceptName string) bool {
	busy := false
	r.Walk(func(name string, p *port.Port) bool {
		if name == exceptName {
			return true
		}
		if p.DevName() == devname && p.InUse() {
			busy = true
			return false
		}
		return true
	})
	return busy
}

// Accept drives conn through the named port's Accept, computing
// deviceBusy from the rest of the table first.
func (r *Registry) Accept(ctx context.Context, name string, conn net.Conn) error {
	p, ok := r.Get(name)
	if !ok {
		conn.Close()
		return liberr.New(CodeUnknownPort, "", nil)
	}
	busy := r.IsDeviceBusy(p.DevName(), name)
	return p.Accept(ctx, conn, busy)
}

// Reconfigure applies cfg to the named port (immediately if idle,
// deferred otherwise), adding the port if it does not already exist.
func (r *Registry) Reconfigure(cfg port.Config) (*port.Port, error) {
	r.mu.Lock()
	p, exists := r.ports[cfg.PortName]
	if !exists {
		p = port.New(cfg, r.devFactory, r.hostAccess, r.log)
		r.ports[cfg.PortName] = p
		r.mu.Unlock()
		return p, nil
	}
	r.mu.Unlock()

	p.Reconfigure(cfg)
	return p, nil
}

// MarkDeleted flags name for removal once its current session (if any)
// ends, leaving it in the table until ReapDeleted runs (spec.md §3
// "config_num == -1").
func (r *Registry) MarkDeleted(name string) error {
	p, ok := r.Get(name)
	if !ok {
		return liberr.New(CodeUnknownPort, "", nil)
	}
	p.MarkDeleted()
	return nil
}

// ReapDeleted removes every port marked for deletion that is currently
// idle, returning the names it removed.
func (r *Registry) ReapDeleted() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []string
	for name, p := range r.ports {
		if p.ReadyForRemoval() {
			delete(r.ports, name)
			removed = append(removed, name)
		}
	}
	sort.Strings(removed)
	return removed
}

// ShutdownAll disconnects every currently connected port's session, for
// graceful process shutdown.
func (r *Registry) ShutdownAll(reason string) {
	r.Walk(func(_ string, p *port.Port) bool {
		if p.InUse() {
			p.Shutdown(reason)
		}
		return true
	})
}
