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

import "time"

// computeCharDelay derives the per-character delay in microseconds from
// the current bits-per-second and bits-per-character, per spec.md §4.3:
// "bpc * 100_000 * chardelay_scale / bps clamped below by chardelay_min".
func computeCharDelay(bps, bpc, scale, min, max int) time.Duration {
	if bps <= 0 {
		bps = 9600
	}
	us := bpc * 100_000 * scale / bps
	if us < min {
		us = min
	}
	if us > max {
		us = max
	}
	return time.Duration(us) * time.Microsecond
}

// sendPacer implements the sticky send_time deadline arithmetic from
// original_source/dataxfer.c:630-790 (send_timeout): send_time is
// captured once per buffered run at now+chardelayMax and held until the
// buffer fully drains; each call's delay is min(chardelay, send_time-now),
// clamped to zero (immediate send) once now has passed send_time.
type sendPacer struct {
	chardelay    time.Duration
	chardelayMax time.Duration

	sendTime time.Time
	armed    bool
}

func newSendPacer(chardelay, chardelayMax time.Duration) *sendPacer {
	return &sendPacer{chardelay: chardelay, chardelayMax: chardelayMax}
}

// setDelay updates the per-character delay after a baud/datasize change
// (spec.md §4.3 "After any set operation that changes bps or bpc...").
func (p *sendPacer) setDelay(chardelay, chardelayMax time.Duration) {
	p.chardelay = chardelay
	p.chardelayMax = chardelayMax
}

// NextDelay returns how long to wait, from now, before the next buffered
// run may be sent. Call it once per byte-buffering event; call reset
// once the buffer is fully flushed.
func (p *sendPacer) NextDelay(now time.Time) time.Duration {
	if !p.armed {
		p.sendTime = now.Add(p.chardelayMax)
		p.armed = true
	}

	remaining := p.sendTime.Sub(now)
	delay := p.chardelay
	if remaining < delay {
		delay = remaining
	}
	if delay < 0 {
		delay = 0
	}
	return delay
}

// reset clears the sticky deadline once the buffer has fully drained.
func (p *sendPacer) reset() {
	p.armed = false
}
