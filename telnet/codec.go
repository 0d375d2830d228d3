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

package telnet

import "errors"

// ErrProtocol is set when the peer sends a malformed command sequence
// (e.g. a suboption that overflows MaxCmdXmitBuf).
var ErrProtocol = errors.New("telnet: protocol violation")

// state is the codec's command-assembly position; 0 means "not in a
// command", matching spec.md §4.2's "current command position".
type state int

const (
	stateData state = iota
	stateIAC
	stateOption
	stateSubOpt
	stateSubOptIAC
)

// OnCmd is invoked for each completed DO/DONT/WILL/WONT command.
type OnCmd func(cmd, option byte)

// OnOutputReady is invoked whenever the codec has queued bytes that the
// caller should flush to the wire (mirrors the C callback of the same
// name); it may be called synchronously from Init/Process/SendOption.
type OnOutputReady func()

// WillHandler is invoked when the peer offers WILL for an option this
// table entry governs. A true return enables the option and permits the
// codec to reply DO and run any initial-notification side effect.
type WillHandler func(c *Codec) bool

// SubHandler assembles and reacts to a full IAC SB <option> ... IAC SE
// suboption payload (data excludes the leading option byte and the
// trailing IAC SE).
type SubHandler func(c *Codec, data []byte)

// Option is one entry of the negotiation table (spec.md §4.2).
type Option struct {
	Option      byte
	IWill       bool // we offer WILL for this option on our own initiative
	IDo         bool // we offer DO for this option on our own initiative
	SentWill    bool
	SentDo      bool
	SubHandler  SubHandler
	WillHandler WillHandler
}

// Codec is the stateful IAC de-escaper and option negotiator.
type Codec struct {
	table   map[byte]*Option
	onCmd   OnCmd
	onReady OnOutputReady

	st        state
	pendCmd   byte
	subOption byte
	subBuf    []byte

	outq []byte

	enabled map[byte]bool
	err     error
}

// New allocates an unconfigured codec; call Init before Process.
func New() *Codec {
	return &Codec{
		table:   make(map[byte]*Option),
		enabled: make(map[byte]bool),
	}
}

// Init installs the negotiation table and enqueues initSeq for
// transmission (spec.md §4.2).
func (c *Codec) Init(cmdTable []Option, initSeq []byte, onCmd OnCmd, onOutputReady OnOutputReady) {
	c.table = make(map[byte]*Option, len(cmdTable))
	for i := range cmdTable {
		o := cmdTable[i]
		c.table[o.Option] = &o
	}
	c.onCmd = onCmd
	c.onReady = onOutputReady
	c.enabled = make(map[byte]bool)
	c.st = stateData
	c.err = nil

	if len(initSeq) > 0 {
		c.outq = append(c.outq, initSeq...)
		c.ready()
	}
}

func (c *Codec) ready() {
	if c.onReady != nil && len(c.outq) > 0 {
		c.onReady()
	}
}

// Err returns the protocol error flag set by a malformed sequence.
func (c *Codec) Err() error { return c.err }

// IsEnabled reports whether an option has completed negotiation as
// enabled (i.e. we are honoring it in both directions).
func (c *Codec) IsEnabled(opt byte) bool { return c.enabled[opt] }

// Outbound drains and returns the pending outbound command bytes
// (IAC-framed negotiation replies and suboptions).
func (c *Codec) Outbound() []byte {
	o := c.outq
	c.outq = nil
	return o
}

// Process consumes in, appends cleaned user-data bytes (IAC sequences
// removed) into the returned slice, and drives onCmd/SubHandler as
// complete commands are recognized. A protocol violation sets Err() but
// does not stop consuming the input, mirroring the original's tolerant
// client handling.
func (c *Codec) Process(in []byte) []byte {
	out := make([]byte, 0, len(in))

	for _, b := range in {
		switch c.st {
		case stateData:
			if b == IAC {
				c.st = stateIAC
			} else {
				out = append(out, b)
			}

		case stateIAC:
			switch b {
			case IAC:
				out = append(out, IAC)
				c.st = stateData
			case DO, DONT, WILL, WONT:
				c.pendCmd = b
				c.st = stateOption
			case SB:
				c.subBuf = c.subBuf[:0]
				c.st = stateSubOpt
			case DM:
				// telnet synch data mark: no payload, just a sentinel.
				c.st = stateData
			default:
				// NOP, GA, AYT, etc: no further bytes, ignore.
				c.st = stateData
			}

		case stateOption:
			c.handleNegotiation(c.pendCmd, b)
			c.st = stateData

		case stateSubOpt:
			if b == IAC {
				c.st = stateSubOptIAC
			} else if len(c.subBuf) >= MaxCmdXmitBuf {
				c.err = ErrProtocol
				c.st = stateData
			} else {
				c.subBuf = append(c.subBuf, b)
			}

		case stateSubOptIAC:
			if b == SE {
				c.dispatchSubOption()
				c.st = stateData
			} else if b == IAC {
				if len(c.subBuf) >= MaxCmdXmitBuf {
					c.err = ErrProtocol
					c.st = stateData
				} else {
					c.subBuf = append(c.subBuf, IAC)
					c.st = stateSubOpt
				}
			} else {
				// Malformed: IAC inside SB not followed by SE or
				// escaped IAC. Treat as protocol error and resync.
				c.err = ErrProtocol
				c.st = stateData
			}
		}
	}

	return out
}

func (c *Codec) dispatchSubOption() {
	if len(c.subBuf) == 0 {
		return
	}
	opt := c.subBuf[0]
	payload := c.subBuf[1:]
	if e := c.table[opt]; e != nil && e.SubHandler != nil {
		e.SubHandler(c, payload)
	}
}

func (c *Codec) handleNegotiation(cmd, opt byte) {
	e := c.table[opt]
	if e == nil {
		c.declineUnknown(cmd, opt)
		return
	}

	switch cmd {
	case WILL:
		enable := false
		if e.WillHandler != nil {
			enable = e.WillHandler(c)
		} else {
			enable = e.IDo
		}
		if enable {
			c.enabled[opt] = true
			if !e.SentDo {
				c.sendReply(DO, opt)
				e.SentDo = true
			}
		} else {
			c.sendReply(DONT, opt)
		}

	case WONT:
		c.enabled[opt] = false
		if e.SentDo {
			e.SentDo = false
		}

	case DO:
		if e.IWill {
			c.enabled[opt] = true
			if !e.SentWill {
				c.sendReply(WILL, opt)
				e.SentWill = true
			}
		} else {
			c.sendReply(WONT, opt)
		}

	case DONT:
		c.enabled[opt] = false
		if e.SentWill {
			e.SentWill = false
		}
	}

	if c.onCmd != nil {
		c.onCmd(cmd, opt)
	}
}

func (c *Codec) declineUnknown(cmd, opt byte) {
	switch cmd {
	case DO:
		c.sendReply(WONT, opt)
	case WILL:
		c.sendReply(DONT, opt)
	}
	if c.onCmd != nil {
		c.onCmd(cmd, opt)
	}
}

func (c *Codec) sendReply(cmd, opt byte) {
	c.outq = append(c.outq, IAC, cmd, opt)
	c.ready()
}

// SendOption frames optBytes (option code followed by payload) as
// IAC SB ... IAC SE and enqueues it, triggering OnOutputReady.
func (c *Codec) SendOption(optBytes []byte) {
	c.outq = append(c.outq, IAC, SB)
	for _, b := range optBytes {
		c.outq = append(c.outq, b)
		if b == IAC {
			c.outq = append(c.outq, IAC)
		}
	}
	c.outq = append(c.outq, IAC, SE)
	c.ready()
}

// Negotiate proactively offers WILL/DO for an option (used to kick off
// negotiation rather than wait for the peer).
func (c *Codec) Negotiate(cmd, opt byte) {
	c.outq = append(c.outq, IAC, cmd, opt)
	if e := c.table[opt]; e != nil {
		if cmd == WILL {
			e.SentWill = true
		} else if cmd == DO {
			e.SentDo = true
		}
	}
	c.ready()
}

// Escape doubles every 0xFF byte in p[:n] in place and returns the new
// length. len(p) must be at least 2*n, i.e. up to n more bytes past
// index n (spec.md §4.2 "Escaping"); it is the caller's
// (port pipeline's) job to size the buffer accordingly.
func Escape(p []byte, n int) int {
	// Walk backwards so the in-place expansion never overwrites bytes it
	// still needs to read.
	extra := 0
	for i := 0; i < n; i++ {
		if p[i] == IAC {
			extra++
		}
	}
	if extra == 0 {
		return n
	}

	j := n + extra
	for i := n - 1; i >= 0; i-- {
		b := p[i]
		j--
		p[j] = b
		if b == IAC {
			j--
			p[j] = IAC
		}
	}
	return n + extra
}
