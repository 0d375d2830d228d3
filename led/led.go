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

// Package led provides the rx/tx activity LED glue named but not
// implemented by spec.md §3's led-rx/led-tx knobs. A Flasher is a pure
// trigger: something flashed it, nothing more; the port calls Flash on
// every buffer commit, never polling or tracking LED state itself.
package led

import (
	"os"
	"sync"
	"time"
)

// Flasher is implemented by anything that can be told "activity happened
// here" and decide for itself how to render that (toggle a sysfs LED,
// increment a counter, no-op in tests).
type Flasher interface {
	Flash()
}

// FlasherFunc adapts a plain function to Flasher.
type FlasherFunc func()

func (f FlasherFunc) Flash() { f() }

// None is a Flasher that does nothing, used when a port has no led-rx/
// led-tx configured.
var None Flasher = FlasherFunc(func() {})

// SysfsLED flashes a Linux sysfs LED brightness file (e.g.
// /sys/class/leds/<name>/brightness) on, then schedules it back off after
// a short hold so rapid activity reads as a flicker rather than staying
// solid.
type SysfsLED struct {
	mu   sync.Mutex
	path string
	hold time.Duration
	off  *time.Timer
}

// NewSysfsLED builds a Flasher bound to the brightness file at path. hold
// defaults to 40ms if zero.
func NewSysfsLED(path string, hold time.Duration) *SysfsLED {
	if hold <= 0 {
		hold = 40 * time.Millisecond
	}
	return &SysfsLED{path: path, hold: hold}
}

func (l *SysfsLED) Flash() {
	l.write("1")

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.off != nil {
		l.off.Stop()
	}
	l.off = time.AfterFunc(l.hold, func() { l.write("0") })
}

func (l *SysfsLED) write(val string) {
	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.WriteString(val)
}
