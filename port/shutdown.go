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

package port

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Shutdown tears the current session down for reason (spec.md §4.6
// "Shutdown sequencing"). Safe to call from outside any reactor callback
// (e.g. the control plane's disconnect command) or from within one.
func (p *Port) Shutdown(reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shutdownLocked(reason)
}

// shutdownLocked performs the synchronous, callback-safe part of
// teardown (closing the trace footer, writing closestr, flipping state
// to Closing) and defers the rest to a fresh goroutine. The deferral
// matters because shutdownLocked is frequently invoked from inside a
// reactor read callback; rct.Stop() waits for every registered read
// goroutine to exit, and that includes the very goroutine running this
// call, so doing it inline here would deadlock the reactor against
// itself.
func (p *Port) shutdownLocked(reason string) {
	if p.tcpState == Closing || p.tcpState == Unconnected {
		return
	}

	if p.traceSet != nil {
		p.traceSet.Footer("CLOSE ("+reason+")", time.Now())
	}
	if p.cfg.CloseStr != "" && p.dev != nil {
		_, _ = p.dev.Write([]byte(p.expand(p.cfg.CloseStr, false)))
	}

	p.tcpState = Closing
	p.devState = Closing

	logDone(p.logEntry(logrus.InfoLevel, "closing: %s", reason))

	go p.finishShutdown()
}

// finishShutdown stops the reactor, releases the device and connection,
// applies any pending reconfiguration, and signals awaitIdle waiters.
//
// The blocking teardown (closing conn/dev, then rct.Stop) runs with p.mu
// released: rct.Stop waits for every registered read goroutine to exit,
// and those goroutines only unblock from their pending Read once conn/dev
// are actually closed, then call back into onTCPReadable/onDevReadable,
// which themselves need p.mu. Holding the lock across that sequence would
// deadlock the reactor against its own callbacks.
func (p *Port) finishShutdown() {
	p.mu.Lock()
	conn := p.conn
	dev := p.dev
	rct := p.rct
	ts := p.traceSet
	p.mu.Unlock()

	if ts != nil {
		ts.Close()
	}
	if conn != nil {
		_ = conn.Close()
	}
	if dev != nil {
		done := make(chan struct{})
		dev.Shutdown(done)
		<-done
		dev.Free()
	}
	if rct != nil {
		rct.Stop()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.conn = nil
	p.dev = nil
	p.rct = nil
	p.traceSet = nil
	p.devToTCP = nil
	p.tcpToDev = nil
	p.codec = nil
	p.rfc = nil
	p.pacer = nil
	p.closeScan = nil
	p.closeOnOutputDone = false

	if p.newConfig != nil && p.cfg.ConfigNum != -1 {
		p.cfg = p.newConfig.withDefaults()
		p.newConfig = nil
		logDone(p.logEntry(logrus.InfoLevel, "applied queued reconfiguration"))
	}

	p.tcpState = Unconnected
	p.devState = Unconnected

	if p.idleCh != nil {
		close(p.idleCh)
		p.idleCh = nil
	}

	logDone(p.logEntry(logrus.InfoLevel, "shutdown complete"))
}

func (p *Port) isIdleLocked() bool {
	return p.tcpState == Unconnected && p.devState == Unconnected
}

// Reconfigure replaces cfg immediately if the port is idle, otherwise
// queues it for application once the active session ends (spec.md §3
// "new_config... consumed on idle transition").
func (p *Port) Reconfigure(cfg Config) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isIdleLocked() {
		p.cfg = cfg.withDefaults()
		logDone(p.logEntry(logrus.InfoLevel, "reconfigured"))
		return
	}

	nc := cfg
	p.newConfig = &nc
	logDone(p.logEntry(logrus.InfoLevel, "reconfiguration queued until session ends"))
}

// MarkDeleted flags this port for removal once idle (config_num == -1).
func (p *Port) MarkDeleted() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg.ConfigNum = -1
}

// ReadyForRemoval reports whether a registry may drop this port from its
// table: marked deleted and currently idle.
func (p *Port) ReadyForRemoval() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg.ConfigNum == -1 && p.isIdleLocked()
}

// Status is a snapshot of a port's current condition for the control
// plane's showport/showshortport commands (spec.md §4.8).
type Status struct {
	PortName    string
	DevName     string
	Enable      EnableMode
	TCPState    HalfState
	DevState    HalfState
	Peer        string
	Timeout     int
	SerialParms string

	// Four-way split matching original_source/dataxfer.c's showshortport:
	// bytes arriving on one side are not the same count as bytes written
	// to the other once telnet IAC escaping/unescaping is applied.
	DevBytesReceived uint64
	TCPBytesSent     uint64
	TCPBytesReceived uint64
	DevBytesSent     uint64

	// BytesDevToTCP/BytesTCPToDev are the two combined per-direction
	// totals (dev->tcp uses the post-escape count actually put on the
	// wire, tcp->dev the post-decode count actually written to the
	// device) that the Prometheus collector reports as "bytes
	// transferred"; showport and showshortport print the four split
	// counters above instead.
	BytesDevToTCP uint64
	BytesTCPToDev uint64
}

// Status snapshots the port for display.
func (p *Port) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := Status{
		PortName:         p.cfg.PortName,
		DevName:          p.cfg.DevName,
		Enable:           p.cfg.Enable,
		TCPState:         p.tcpState,
		DevState:         p.devState,
		Peer:             p.peerAddr,
		Timeout:          p.cfg.Timeout,
		DevBytesReceived: p.devBytesReceived,
		TCPBytesSent:     p.tcpBytesSent,
		TCPBytesReceived: p.tcpBytesReceived,
		DevBytesSent:     p.devBytesSent,
		BytesDevToTCP:    p.tcpBytesSent,
		BytesTCPToDev:    p.devBytesSent,
	}
	if p.dev != nil {
		st.SerialParms = p.dev.SerParmToStr()
	}
	return st
}
