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

// Package port implements the per-port data-transfer engine: the
// listen->connect->negotiate->relay->drain->shutdown lifecycle for one
// TCP-to-serial-device pairing (spec.md §4.6-4.7).
package port

import (
	"github.com/chenwaichung/ser2net/device"
	"github.com/chenwaichung/ser2net/led"
)

// EnableMode is the port's accept policy.
type EnableMode int

const (
	Disabled EnableMode = iota
	Raw
	RawLP
	Telnet
)

func (m EnableMode) String() string {
	switch m {
	case Disabled:
		return "off"
	case Raw:
		return "raw"
	case RawLP:
		return "rawlp"
	case Telnet:
		return "telnet"
	default:
		return "unknown"
	}
}

// ParseEnableMode accepts the setportenable vocabulary from spec.md §4.8.
func ParseEnableMode(s string) (EnableMode, bool) {
	switch s {
	case "off":
		return Disabled, true
	case "raw":
		return Raw, true
	case "rawlp":
		return RawLP, true
	case "telnet":
		return Telnet, true
	default:
		return Disabled, false
	}
}

// Config is the full set of per-port knobs enumerated in spec.md §3 and §6.
type Config struct {
	PortName string
	DevName  string

	Enable EnableMode

	Timeout int // seconds; 0 disables the activity timeout

	CharDelay      bool
	CharDelayScale int
	CharDelayMin   int
	CharDelayMax   int

	Allow2217       bool
	KickOldUser     bool
	TelnetBrkOnSync bool

	Banner   string
	OpenStr  string
	CloseStr string
	CloseOn  string
	SigStr   string

	TraceRead  TraceConfig
	TraceWrite TraceConfig
	TraceBoth  TraceConfig

	LEDRx led.Flasher
	LEDTx led.Flasher

	RS485 *device.RS485Config

	DevToTCPBufSize int
	TCPToDevBufSize int

	// ConfigNum is a generation counter; -1 marks the port for deletion on
	// the next idle transition (spec.md §3 "config_num == -1").
	ConfigNum int
}

// TraceConfig mirrors trace.Config but is named locally so `config`
// (the viper-backed loader) doesn't need to import the trace package
// just to populate it.
type TraceConfig struct {
	Enabled   bool
	Hexdump   bool
	Timestamp bool
	Filename  string
}

const (
	defaultDevToTCPBufSize = 64 * 1024
	defaultTCPToDevBufSize = 64 * 1024
	defaultCharDelayScale  = 1
	defaultCharDelayMin    = 1000  // microseconds
	defaultCharDelayMax    = 20000 // microseconds
)

// withDefaults fills in zero-valued knobs with their runtime defaults.
func (c Config) withDefaults() Config {
	if c.DevToTCPBufSize <= 0 {
		c.DevToTCPBufSize = defaultDevToTCPBufSize
	}
	if c.TCPToDevBufSize <= 0 {
		c.TCPToDevBufSize = defaultTCPToDevBufSize
	}
	if c.CharDelayScale <= 0 {
		c.CharDelayScale = defaultCharDelayScale
	}
	if c.CharDelayMin <= 0 {
		c.CharDelayMin = defaultCharDelayMin
	}
	if c.CharDelayMax <= 0 {
		c.CharDelayMax = defaultCharDelayMax
	}
	if c.LEDRx == nil {
		c.LEDRx = led.None
	}
	if c.LEDTx == nil {
		c.LEDTx = led.None
	}
	return c
}
