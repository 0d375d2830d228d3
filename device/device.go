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

// Package device abstracts the character device a Port relays bytes to and
// from. spec.md §1 places termios manipulation and lock-file handling out
// of the core's scope; this package is that external collaborator, built
// on golang.org/x/sys/unix the way the teacher's shell/tty package builds
// terminal handling on golang.org/x/term.
package device

import "io"

// FlushDirection selects which direction(s) PURGE-DATA (RFC 2217 code 12)
// discards.
type FlushDirection int

const (
	FlushInput FlushDirection = iota + 1
	FlushOutput
	FlushBoth
)

// ModemState and LineState bitmasks, per RFC 2217 (modemstate/linestate
// notify masks, spec.md §4.3).
const (
	ModemCTS   byte = 1 << 4
	ModemDSR   byte = 1 << 5
	ModemRI    byte = 1 << 6
	ModemCD    byte = 1 << 7
	ModemDCTS  byte = 1 << 0
	ModemDDSR  byte = 1 << 1
	ModemTERI  byte = 1 << 2
	ModemDCD   byte = 1 << 3
)

const (
	LineDataReady    byte = 1 << 0
	LineOverrunErr   byte = 1 << 1
	LineParityErr    byte = 1 << 2
	LineFramingErr   byte = 1 << 3
	LineBreakDetect  byte = 1 << 4
	LineTxHoldEmpty  byte = 1 << 5
	LineTxShiftEmpty byte = 1 << 6
	LineTimeoutErr   byte = 1 << 7
)

// RS485Config mirrors struct serial_rs485 (TIOCSRS485), supplementing the
// spec's bare "optional RS-485 config" field (spec.md §3) with the actual
// knobs the original ioctl accepts.
type RS485Config struct {
	Enabled           bool
	RTSOnSend         bool
	RTSAfterSend      bool
	RXDuringTX        bool
	TerminateBus      bool
	DelayRTSBeforeSnd uint32
	DelayRTSAfterSnd  uint32
}

// IO is the DeviceIO abstraction consumed by the port state machine
// (spec.md §6). Implementations: a termios-backed serial device
// (device/termios.go) and an in-band "sol.*" management sub-driver
// (device/sol.go).
type IO interface {
	io.Reader
	io.Writer

	// Setup opens/claims the device, acquiring its lock file, and reports
	// the negotiated bits-per-second and bits-per-character so the port
	// can compute the character-delay window.
	Setup(devname string) (bps int, bpc int, err error)

	// Shutdown releases the device and its lock file. done is closed once
	// teardown completes, for callers that must await it (spec.md §5
	// "stop_with_done").
	Shutdown(done chan<- struct{})

	Flush(dir FlushDirection) error
	SendBreak() error
	GetModemState() (byte, error)

	// BaudRate sets (if val != nil) or just reports the current baud. The
	// cisco bool flags a request that arrived in the 3-byte Cisco encoding
	// rather than the RFC2217 4-byte one; no implementation here acts on
	// it, and rfc2217.Handler always passes false and replies in 4 bytes.
	BaudRate(val *int, cisco bool) (actual int, err error)
	DataSize(val *byte) (actual byte, err error)
	Parity(val *byte) (actual byte, err error)
	StopSize(val *byte) (actual byte, err error)
	Control(val *byte) (actual byte, err error)
	FlowControl(suspend bool) error

	SerParmToStr() string
	ShowDevCfg() string
	ShowDevControl() string
	SetDevControl(args []string) error
	Reconfig(args []string) error

	SetRS485(cfg *RS485Config) error

	ReadHandlerEnable(enable bool)
	WriteHandlerEnable(enable bool)
	ExceptHandlerEnable(enable bool)

	Free()
}

// BitsPerChar computes the RFC2217-style bits-per-character count used by
// the character-delay formula in spec.md §4.3 (start bit + data bits +
// parity bit + stop bits).
func BitsPerChar(dataBits, stopBits int, hasParity bool) int {
	bpc := 1 + dataBits + stopBits
	if hasParity {
		bpc++
	}
	return bpc
}
