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

package rfc2217

import (
	"encoding/binary"
	"sync"

	"github.com/chenwaichung/ser2net/device"
	"github.com/chenwaichung/ser2net/telnet"
)

// Handler implements telnet.SubHandler for telnet.OptComPortOption,
// translating RFC 2217 subnegotiations into device.IO calls and replying
// with the matching +100 response code (dataxfer.c com_port_handler).
type Handler struct {
	mu sync.Mutex

	dev       device.IO
	signature string

	linestateMask  byte
	modemstateMask byte

	lastModemState byte
	haveModemState bool
}

// New builds a Handler bound to dev. signature is echoed back verbatim on
// a SIGNATURE query with an empty payload (a client query has zero-length
// data; a client announcing its own signature carries text we simply
// ignore, since we have nothing useful to do with it).
func New(dev device.IO, signature string) *Handler {
	return &Handler{dev: dev, signature: signature}
}

// Table returns the one-entry negotiation table to pass to telnet.Codec.Init.
func (h *Handler) Table() telnet.Option {
	return telnet.Option{
		Option:     telnet.OptComPortOption,
		IWill:      true,
		SubHandler: h.Handle,
	}
}

// Handle is the telnet.SubHandler entry point.
func (h *Handler) Handle(c *telnet.Codec, data []byte) {
	if len(data) == 0 {
		return
	}
	cmd := data[0]
	body := data[1:]

	h.mu.Lock()
	defer h.mu.Unlock()

	switch cmd {
	case CmdSignature:
		h.handleSignature(c, body)
	case CmdSetBaudrate:
		h.handleBaudrate(c, body)
	case CmdSetDatasize:
		h.handleByteParam(c, CmdSetDatasize, body, func(v *byte) (byte, error) { return h.dev.DataSize(v) })
	case CmdSetParity:
		h.handleByteParam(c, CmdSetParity, body, func(v *byte) (byte, error) { return h.dev.Parity(v) })
	case CmdSetStopsize:
		h.handleByteParam(c, CmdSetStopsize, body, func(v *byte) (byte, error) { return h.dev.StopSize(v) })
	case CmdSetControl:
		h.handleByteParam(c, CmdSetControl, body, func(v *byte) (byte, error) { return h.dev.Control(v) })
	case CmdFlowcontrolSuspend:
		_ = h.dev.FlowControl(true)
		h.reply(c, CmdFlowcontrolSuspend+replyOffset, nil)
	case CmdFlowcontrolResume:
		_ = h.dev.FlowControl(false)
		h.reply(c, CmdFlowcontrolResume+replyOffset, nil)
	case CmdSetLinestateMask:
		if len(body) >= 1 {
			h.linestateMask = body[0]
		}
		h.reply(c, CmdSetLinestateMask+replyOffset, []byte{h.linestateMask})
	case CmdSetModemstateMask:
		if len(body) >= 1 {
			h.modemstateMask = body[0]
		}
		h.reply(c, CmdSetModemstateMask+replyOffset, []byte{h.modemstateMask})
	case CmdPurgeData:
		h.handlePurge(c, body)
	case CmdNotifyLinestate, CmdNotifyModemstate:
		// These are server-to-client notifications in the protocol; a
		// peer should never send them to us, ignore if it does.
	}
}

func (h *Handler) handleSignature(c *telnet.Codec, body []byte) {
	if len(body) == 0 {
		h.reply(c, CmdSignature+replyOffset, []byte(h.signature))
	}
	// A non-empty body is the peer announcing its own signature; nothing
	// to store it in for now.
}

func (h *Handler) handleBaudrate(c *telnet.Codec, body []byte) {
	var rate int
	switch len(body) {
	case 3:
		// Cisco-style 3-byte encoding used by some legacy clients.
		rate = int(body[0])<<16 | int(body[1])<<8 | int(body[2])
	case 4:
		rate = int(binary.BigEndian.Uint32(body))
	default:
		return
	}

	actual, err := h.dev.BaudRate(&rate, false)
	if err != nil {
		return
	}
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, uint32(actual))
	h.reply(c, CmdSetBaudrate+replyOffset, out)
}

func (h *Handler) handleByteParam(c *telnet.Codec, cmd byte, body []byte, set func(*byte) (byte, error)) {
	var valp *byte
	if len(body) >= 1 && body[0] != 0 {
		v := body[0]
		valp = &v
	}
	actual, err := set(valp)
	if err != nil {
		return
	}
	h.reply(c, cmd+replyOffset, []byte{actual})
}

func (h *Handler) handlePurge(c *telnet.Codec, body []byte) {
	if len(body) < 1 {
		return
	}
	var dir device.FlushDirection
	switch body[0] {
	case PurgeRX:
		dir = device.FlushInput
	case PurgeTX:
		dir = device.FlushOutput
	default:
		dir = device.FlushBoth
	}
	if err := h.dev.Flush(dir); err != nil {
		return
	}
	h.reply(c, CmdPurgeData+replyOffset, []byte{body[0]})
}

func (h *Handler) reply(c *telnet.Codec, code byte, payload []byte) {
	out := append([]byte{telnet.OptComPortOption, code}, payload...)
	c.SendOption(out)
}

// PollModemState reads the current modem state and, if it changed (or is
// being reported for the first time) and the peer has asked for
// notifications via a non-zero mask, sends an unsolicited
// NOTIFY-MODEMSTATE. Called on the port's 1Hz activity tick.
func (h *Handler) PollModemState(c *telnet.Codec) {
	ms, err := h.dev.GetModemState()
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.modemstateMask == 0 {
		h.lastModemState = ms
		h.haveModemState = true
		return
	}
	if h.haveModemState && ms == h.lastModemState {
		return
	}
	h.lastModemState = ms
	h.haveModemState = true
	h.reply(c, CmdNotifyModemstate+replyOffset, []byte{ms & h.modemstateMask})
}
