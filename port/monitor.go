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

// MonitorSink receives a tee'd copy of one direction's traffic for a
// control-plane "monitor" session (spec.md §4.8). TeeSend must never
// block: a session that cannot keep up silently drops bytes rather than
// applying backpressure to the port.
type MonitorSink interface {
	TeeSend(p []byte)
}

// SetMonitor installs sink as the tee target for dir ("term" for
// dev->tcp traffic, "tcp" for tcp->dev traffic), replacing any prior
// monitor on that slot. Weak reference: the Port never extends the
// sink's lifetime and the caller (a control session going away) must
// call ClearMonitor itself.
func (p *Port) SetMonitor(dir string, sink MonitorSink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch dir {
	case "term":
		p.monTerm = sink
	case "tcp":
		p.monTCP = sink
	}
}

// ClearMonitor removes sink from whichever slot currently holds it (a
// no-op if sink isn't the current holder, so a stale clear from an old
// session can't evict a newer monitor).
func (p *Port) ClearMonitor(sink MonitorSink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.monTerm == sink {
		p.monTerm = nil
	}
	if p.monTCP == sink {
		p.monTCP = nil
	}
}

func (p *Port) teeTerm(data []byte) {
	if p.monTerm != nil && len(data) > 0 {
		p.monTerm.TeeSend(data)
	}
}

func (p *Port) teeTCP(data []byte) {
	if p.monTCP != nil && len(data) > 0 {
		p.monTCP.TeeSend(data)
	}
}
