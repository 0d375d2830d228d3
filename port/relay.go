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
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chenwaichung/ser2net/telnet"
	"github.com/chenwaichung/ser2net/trace"
)

const sendTimerName = "send-dev-to-tcp"

// writerSink adapts any io.Writer (net.Conn or device.IO both qualify) to
// buffer.Sink. Both destinations here are blocking by construction, so a
// Send either completes in full or returns a real error; there is no
// would-block case to report as (0, nil), unlike a nonblocking fd.
type writerSink struct{ w io.Writer }

func (s writerSink) Send(p []byte) (int, error) { return s.w.Write(p) }

// onDevReadable is the dev->tcp half of the relay path (spec.md §4.6).
func (p *Port) onDevReadable(n int, data []byte, err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.devState == Closing || p.devState == Unconnected {
		return false
	}

	if n > 0 {
		p.handleDevData(data[:n])
	}

	if err != nil {
		if p.devToTCP != nil && !p.devToTCP.Empty() {
			p.sendDevToTCPLocked(true)
		}
		p.shutdownLocked(ReasonClosedPort)
		return false
	}
	return true
}

func (p *Port) handleDevData(raw []byte) {
	truncateAt, matched := p.closeScan.Scan(raw)
	if matched {
		raw = raw[:truncateAt]
		p.closeOnOutputDone = true
	}

	if len(raw) == 0 {
		return
	}

	if p.traceSet != nil {
		p.traceSet.TraceRead(raw, trace.PrefixTerm, time.Now())
	}
	p.teeTerm(raw)

	dst := p.devToTCP
	if dst.Room() == 0 {
		p.sendDevToTCPLocked(true)
	}
	if dst.CurSize() == 0 {
		dst.SetPos(0)
	}
	tail := dst.Raw()[dst.Pos()+dst.CurSize():]
	n := len(raw)
	if n > len(tail) {
		n = len(tail)
	}
	copy(tail, raw[:n])

	commitN := n
	if p.codec != nil {
		// The reactor's per-read chunk is sized to half the buffer
		// capacity (see setupLocked), guaranteeing room here for
		// worst-case all-0xFF doubling.
		commitN = telnet.Escape(tail, n)
	}
	dst.Commit(commitN)

	p.devBytesReceived += uint64(n)
	p.tcpBytesSent += uint64(commitN)
	p.cfg.LEDRx.Flash()

	forced := p.closeOnOutputDone
	if !p.cfg.CharDelay || dst.Full() || forced {
		p.sendDevToTCPLocked(forced)
		return
	}

	delay := p.pacer.NextDelay(time.Now())
	p.rct.RegisterTimer(sendTimerName, delay, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.devState == Unconnected || p.devState == Closing {
			return
		}
		p.sendDevToTCPLocked(false)
	})
}

// sendDevToTCPLocked implements handle_tcp_send (spec.md §4.6). Caller
// holds p.mu.
func (p *Port) sendDevToTCPLocked(forced bool) {
	_ = forced
	if p.conn == nil || p.devToTCP == nil {
		return
	}

	_, err := p.devToTCP.Write(writerSink{p.conn})
	if err != nil {
		p.shutdownLocked(ReasonWriteError)
		return
	}

	if p.devToTCP.Drained() {
		p.devToTCP.Compact()
		if p.pacer != nil {
			p.pacer.reset()
		}
		if p.rct != nil {
			p.rct.CancelTimer(sendTimerName)
		}
		if p.closeOnOutputDone {
			p.shutdownLocked(ReasonCloseOnSequence)
		}
	}
}

// onTCPReadable is the tcp->dev half of the relay path.
func (p *Port) onTCPReadable(n int, data []byte, err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tcpState == Closing || p.tcpState == Unconnected {
		return false
	}

	if n > 0 {
		p.handleTCPData(data[:n])
		if p.cfg.Timeout > 0 {
			p.timeoutLeft = p.cfg.Timeout
		}
	}

	if err != nil {
		reason := ReasonPeerClosed
		if err != io.EOF {
			reason = ReasonReadError
		}
		if p.tcpToDev != nil && !p.tcpToDev.Empty() {
			p.sendTCPToDevLocked()
		}
		p.shutdownLocked(reason)
		return false
	}
	return true
}

func (p *Port) handleTCPData(raw []byte) {
	p.tcpBytesReceived += uint64(len(raw))

	clean := raw
	if p.codec != nil {
		clean = p.codec.Process(raw)
		if p.codec.Err() != nil {
			p.shutdownLocked(ReasonTelnetProtocol)
			return
		}
		p.flushOutbound()
	}
	if len(clean) == 0 {
		return
	}

	if p.traceSet != nil {
		p.traceSet.TraceWrite(clean, trace.PrefixTCP, time.Now())
	}
	p.teeTCP(clean)

	dst := p.tcpToDev
	if dst.Room() < len(clean) {
		p.sendTCPToDevLocked()
	}
	if dst.CurSize() == 0 {
		dst.SetPos(0)
	}
	tail := dst.Raw()[dst.Pos()+dst.CurSize():]
	n := len(clean)
	if n > len(tail) {
		n = len(tail)
	}
	copy(tail, clean[:n])
	dst.Commit(n)
	p.devBytesSent += uint64(n)
	p.cfg.LEDTx.Flash()

	p.sendTCPToDevLocked()
}

func (p *Port) sendTCPToDevLocked() {
	if p.dev == nil || p.tcpToDev == nil {
		return
	}
	_, err := p.tcpToDev.Write(writerSink{p.dev})
	if err != nil {
		p.shutdownLocked(ReasonWriteError)
		return
	}
	if p.tcpToDev.Drained() {
		p.tcpToDev.Compact()
	}
}

func (p *Port) onTCPExcept(err error) {
	logDone(p.logEntry(logrus.WarnLevel, "tcp side exception").ErrorAdd(true, err))
}

func (p *Port) onDevExcept(err error) {
	logDone(p.logEntry(logrus.WarnLevel, "device side exception").ErrorAdd(true, err))
}

// onTick is the 1Hz activity timer (spec.md §4.3, §4.6 "Activity timeout").
func (p *Port) onTick() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tcpState == Unconnected || p.tcpState == Closing {
		return
	}

	if p.rfc != nil && p.codec != nil {
		p.rfc.PollModemState(p.codec)
		p.flushOutbound()
	}

	if p.cfg.Timeout > 0 {
		p.timeoutLeft--
		if p.timeoutLeft < 0 {
			p.shutdownLocked(ReasonTimeout)
		}
	}
}
