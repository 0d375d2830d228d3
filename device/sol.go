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

package device

import (
	"fmt"
	"strings"
)

// SOLPrefix is the devname prefix that selects the in-band management
// sub-driver instead of a termios device (spec.md §6).
const SOLPrefix = "sol."

// IsSOL reports whether devname names an in-band management channel
// rather than a real tty.
func IsSOL(devname string) bool { return strings.HasPrefix(devname, SOLPrefix) }

// SOL is a minimal in-band "serial over LAN"-style management channel: no
// real termios knobs apply, bps/bpc are fixed, and most of the IO surface
// is a no-op. It exists so a portname can point at a management endpoint
// (e.g. a BMC console) without the port state machine needing to know the
// difference between it and a physical tty.
type SOL struct {
	target string
	rd, wr, ex bool
}

// NewSOL builds a SOL handle for devname (which still carries the
// "sol." prefix; callers keep the prefix on for display purposes but
// Setup strips it to find the management target name).
func NewSOL() *SOL { return &SOL{} }

func (s *SOL) Setup(devname string) (int, int, error) {
	s.target = strings.TrimPrefix(devname, SOLPrefix)
	if s.target == "" {
		return 0, 0, fmt.Errorf("device: empty sol target in %q", devname)
	}
	return 9600, BitsPerChar(8, 1, false), nil
}

func (s *SOL) Read(p []byte) (int, error)  { return 0, fmt.Errorf("device: sol read not implemented for %q", s.target) }
func (s *SOL) Write(p []byte) (int, error) { return len(p), nil }

func (s *SOL) Shutdown(done chan<- struct{}) {
	if done != nil {
		close(done)
	}
}

func (s *SOL) Flush(FlushDirection) error           { return nil }
func (s *SOL) SendBreak() error                      { return nil }
func (s *SOL) GetModemState() (byte, error)          { return 0, nil }
func (s *SOL) BaudRate(val *int, cisco bool) (int, error) { return 9600, nil }
func (s *SOL) DataSize(val *byte) (byte, error)      { return 8, nil }
func (s *SOL) Parity(val *byte) (byte, error)        { return 0, nil }
func (s *SOL) StopSize(val *byte) (byte, error)      { return 1, nil }
func (s *SOL) Control(val *byte) (byte, error)        { return 0, nil }
func (s *SOL) FlowControl(bool) error                 { return nil }
func (s *SOL) SerParmToStr() string                   { return "sol-managed" }
func (s *SOL) ShowDevCfg() string                     { return "sol-managed" }
func (s *SOL) ShowDevControl() string                 { return "n/a" }
func (s *SOL) SetDevControl([]string) error { return fmt.Errorf("device: control lines not applicable to sol target") }
func (s *SOL) Reconfig([]string) error      { return fmt.Errorf("device: devcfg not applicable to sol target") }
func (s *SOL) SetRS485(*RS485Config) error            { return fmt.Errorf("device: rs485 not applicable to sol target") }
func (s *SOL) ReadHandlerEnable(enable bool)           { s.rd = enable }
func (s *SOL) WriteHandlerEnable(enable bool)          { s.wr = enable }
func (s *SOL) ExceptHandlerEnable(enable bool)         { s.ex = enable }
func (s *SOL) Free()                                   {}
