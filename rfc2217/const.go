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

// Package rfc2217 implements the COM-PORT-OPTION telnet subnegotiation
// (RFC 2217), letting a telnet client remotely steer a serial device's
// line parameters, flow control, modem/line state and buffer purge.
package rfc2217

// Client-to-server subcommands (the peer asking us to do something).
const (
	CmdSignature          = 0
	CmdSetBaudrate        = 1
	CmdSetDatasize        = 2
	CmdSetParity          = 3
	CmdSetStopsize        = 4
	CmdSetControl         = 5
	CmdNotifyLinestate    = 6
	CmdNotifyModemstate   = 7
	CmdFlowcontrolSuspend = 8
	CmdFlowcontrolResume  = 9
	CmdSetLinestateMask   = 10
	CmdSetModemstateMask  = 11
	CmdPurgeData          = 12
)

// Server-to-client replies are the request code plus 100.
const replyOffset = 100

// SetControl sub-values (RFC 2217 section 4.6).
const (
	ControlFlowNone       = 1
	ControlFlowXonXoff    = 2
	ControlFlowHardware   = 3
	ControlBreakOn        = 5
	ControlBreakOff       = 6
	ControlDTROn          = 8
	ControlDTROff         = 9
	ControlRTSOn          = 11
	ControlRTSOff         = 12
	ControlFlowDCD        = 13
	ControlFlowDelayDTR   = 14
	ControlFlowDSR        = 15
)

// PurgeData sub-values.
const (
	PurgeRX   = 1
	PurgeTX   = 2
	PurgeBoth = 3
)

// Parity values as carried on the wire, matching termios-style encoding.
const (
	ParityNone  = 1
	ParityOdd   = 2
	ParityEven  = 3
	ParityMark  = 4
	ParitySpace = 5
)

// StopSize values as carried on the wire.
const (
	StopBits1   = 1
	StopBits2   = 2
	StopBits1_5 = 3
)
