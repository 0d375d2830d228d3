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

//go:build linux

package device

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const (
	termiosGetIoctl = unix.TCGETS
	termiosSetIoctl = unix.TCSETS
)

// setBaud programs the arbitrary-rate fields and, when bps exactly matches
// a standard rate, the matching Bxxx constant too, since not every kernel
// driver honors the former alone. A rate with no exact Bxxx match leaves
// the CBAUD field unchanged.
func setBaud(tio *unix.Termios, bps int) error {
	b, ok := standardBaud[bps]
	if !ok {
		// Arbitrary rate: rely on Ispeed/Ospeed (BOTHER path); the CBAUD
		// field is left alone so the driver falls back to it if unsupported.
		tio.Ispeed = uint32(bps)
		tio.Ospeed = uint32(bps)
		return nil
	}

	tio.Cflag &^= unix.CBAUD | unix.CBAUDEX
	tio.Cflag |= b
	tio.Ispeed = uint32(bps)
	tio.Ospeed = uint32(bps)
	return nil
}

var standardBaud = map[int]uint32{
	50:     unix.B50,
	75:     unix.B75,
	110:    unix.B110,
	134:    unix.B134,
	150:    unix.B150,
	200:    unix.B200,
	300:    unix.B300,
	600:    unix.B600,
	1200:   unix.B1200,
	1800:   unix.B1800,
	2400:   unix.B2400,
	4800:   unix.B4800,
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
	230400: unix.B230400,
}

func rs485ToKernel(cfg *RS485Config) *unix.SerialRS485 {
	r := &unix.SerialRS485{}
	if cfg.Enabled {
		r.Flags |= unix.SER_RS485_ENABLED
	}
	if cfg.RTSOnSend {
		r.Flags |= unix.SER_RS485_RTS_ON_SEND
	}
	if cfg.RTSAfterSend {
		r.Flags |= unix.SER_RS485_RTS_AFTER_SEND
	}
	if cfg.RXDuringTX {
		r.Flags |= unix.SER_RS485_RX_DURING_TX
	}
	if cfg.TerminateBus {
		r.Flags |= unix.SER_RS485_TERMINATE_BUS
	}
	r.DelayRtsBeforeSend = cfg.DelayRTSBeforeSnd
	r.DelayRtsAfterSend = cfg.DelayRTSAfterSnd
	return r
}

func ioctlSetRS485(fd int, cfg *unix.SerialRS485) error {
	if err := unix.IoctlSetRS485(fd, cfg); err != nil {
		return fmt.Errorf("device: TIOCSRS485: %w", err)
	}
	return nil
}
