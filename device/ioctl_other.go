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

//go:build !linux

package device

import (
	"errors"

	"golang.org/x/sys/unix"
)

const (
	termiosGetIoctl = unix.TIOCGETA
	termiosSetIoctl = unix.TIOCSETA
)

func setBaud(tio *unix.Termios, bps int) error {
	tio.Ispeed = uint64(bps)
	tio.Ospeed = uint64(bps)
	return nil
}

// rs485Kernel is a platform-neutral placeholder; RS-485 ioctls are Linux-
// specific (TIOCSRS485 has no BSD/Darwin equivalent).
type rs485Kernel struct{}

func rs485ToKernel(cfg *RS485Config) *rs485Kernel { return &rs485Kernel{} }

func ioctlSetRS485(fd int, cfg *rs485Kernel) error {
	return errors.New("device: RS-485 configuration is only supported on linux")
}
