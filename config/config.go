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

// Package config defines the on-disk shape of a serialmux configuration
// file and translates it into the typed knobs the rest of the gateway
// consumes (port.Config, rotator port lists, the control-plane address).
// Parsing the file format itself is delegated to viper; this package owns
// only the struct tags and the translation into domain types.
package config

import (
	"strings"

	liberr "github.com/chenwaichung/ser2net/errors"
	"github.com/chenwaichung/ser2net/device"
	"github.com/chenwaichung/ser2net/led"
	"github.com/chenwaichung/ser2net/port"
)

// Error codes for this package's reserved range (spec.md §7 "ConfigInvalid").
const (
	codeBase         liberr.CodeError = 4400
	CodeConfigInvalid                 = codeBase + iota
)

func init() {
	liberr.RegisterIdFctMessage(codeBase, func(code liberr.CodeError) string {
		switch code {
		case CodeConfigInvalid:
			return "invalid configuration"
		default:
			return "config error"
		}
	})
}

// TraceSpec is the on-disk shape of one of a port's tr/tw/tb trace specs.
type TraceSpec struct {
	Enabled   bool   `mapstructure:"enabled"`
	Hexdump   bool   `mapstructure:"hexdump"`
	Timestamp bool   `mapstructure:"timestamp"`
	File      string `mapstructure:"file"`
}

func (t TraceSpec) toPort() port.TraceConfig {
	return port.TraceConfig{
		Enabled:   t.Enabled,
		Hexdump:   t.Hexdump,
		Timestamp: t.Timestamp,
		Filename:  t.File,
	}
}

// RS485Spec is the on-disk shape of a port's rs485= knob.
type RS485Spec struct {
	Enabled           bool   `mapstructure:"enabled"`
	RTSOnSend         bool   `mapstructure:"rts_on_send"`
	RTSAfterSend      bool   `mapstructure:"rts_after_send"`
	RXDuringTX        bool   `mapstructure:"rx_during_tx"`
	TerminateBus      bool   `mapstructure:"terminate_bus"`
	DelayRTSBeforeSnd uint32 `mapstructure:"delay_rts_before_send"`
	DelayRTSAfterSnd  uint32 `mapstructure:"delay_rts_after_send"`
}

func (r *RS485Spec) toPort() *device.RS485Config {
	if r == nil {
		return nil
	}
	return &device.RS485Config{
		Enabled:           r.Enabled,
		RTSOnSend:         r.RTSOnSend,
		RTSAfterSend:      r.RTSAfterSend,
		RXDuringTX:        r.RXDuringTX,
		TerminateBus:      r.TerminateBus,
		DelayRTSBeforeSnd: r.DelayRTSBeforeSnd,
		DelayRTSAfterSnd:  r.DelayRTSAfterSnd,
	}
}

// PortSpec is the on-disk shape of one port entry, covering every knob
// enumerated in spec.md §6.
type PortSpec struct {
	Name   string `mapstructure:"name"`
	Device string `mapstructure:"device"`
	Enable string `mapstructure:"enable"`

	Timeout int `mapstructure:"timeout"`

	CharDelay      bool `mapstructure:"chardelay"`
	CharDelayScale int  `mapstructure:"chardelay_scale"`
	CharDelayMin   int  `mapstructure:"chardelay_min"`
	CharDelayMax   int  `mapstructure:"chardelay_max"`

	Allow2217       bool `mapstructure:"remctl"`
	KickOldUser     bool `mapstructure:"kickolduser"`
	TelnetBrkOnSync bool `mapstructure:"telnet_brk_on_sync"`

	Banner    string `mapstructure:"banner"`
	OpenStr   string `mapstructure:"openstr"`
	CloseStr  string `mapstructure:"closestr"`
	CloseOn   string `mapstructure:"closeon"`
	Signature string `mapstructure:"signature"`

	TraceRead  TraceSpec `mapstructure:"tr"`
	TraceWrite TraceSpec `mapstructure:"tw"`
	TraceBoth  TraceSpec `mapstructure:"tb"`

	LEDRx string `mapstructure:"led_rx"`
	LEDTx string `mapstructure:"led_tx"`

	RS485 *RS485Spec `mapstructure:"rs485"`

	DevToTCPBufSize int `mapstructure:"dev_to_tcp_bufsize"`
	TCPToDevBufSize int `mapstructure:"tcp_to_dev_bufsize"`
}

// ToPortConfig translates one on-disk port entry into a port.Config,
// stamping configNum as the generation counter (spec.md §3).
func (s PortSpec) ToPortConfig(configNum int) (port.Config, error) {
	if s.Name == "" {
		return port.Config{}, liberr.New(CodeConfigInvalid, "port entry missing name", nil)
	}
	if s.Device == "" {
		return port.Config{}, liberr.New(CodeConfigInvalid, "port "+s.Name+" missing device", nil)
	}
	mode, ok := port.ParseEnableMode(defaultStr(s.Enable, "off"))
	if !ok {
		return port.Config{}, liberr.New(CodeConfigInvalid, "port "+s.Name+" has an unknown enable mode: "+s.Enable, nil)
	}
	return port.Config{
		PortName: s.Name,
		DevName:  s.Device,

		Enable: mode,

		Timeout: s.Timeout,

		CharDelay:      s.CharDelay,
		CharDelayScale: s.CharDelayScale,
		CharDelayMin:   s.CharDelayMin,
		CharDelayMax:   s.CharDelayMax,

		Allow2217:       s.Allow2217,
		KickOldUser:     s.KickOldUser,
		TelnetBrkOnSync: s.TelnetBrkOnSync,

		Banner:   s.Banner,
		OpenStr:  s.OpenStr,
		CloseStr: s.CloseStr,
		CloseOn:  s.CloseOn,
		SigStr:   s.Signature,

		TraceRead:  s.TraceRead.toPort(),
		TraceWrite: s.TraceWrite.toPort(),
		TraceBoth:  s.TraceBoth.toPort(),

		LEDRx: resolveLED(s.LEDRx),
		LEDTx: resolveLED(s.LEDTx),

		RS485: s.RS485.toPort(),

		DevToTCPBufSize: s.DevToTCPBufSize,
		TCPToDevBufSize: s.TCPToDevBufSize,

		ConfigNum: configNum,
	}, nil
}

// resolveLED maps an led_rx/led_tx knob to a concrete Flasher: empty
// means none, a path under /sys is a sysfs LED, anything else falls back
// to None rather than guessing at a hardware backend this transform
// doesn't implement (spec.md Non-goals: GPIO/BMC backends are out of
// scope).
func resolveLED(name string) led.Flasher {
	if name == "" {
		return led.None
	}
	if strings.HasPrefix(name, "/sys/") {
		return led.NewSysfsLED(name, 0)
	}
	return led.None
}

func defaultStr(v, d string) string {
	if v == "" {
		return d
	}
	return v
}

// RotatorSpec is the on-disk shape of one rotator listener.
type RotatorSpec struct {
	Addr  string   `mapstructure:"addr"`
	Ports []string `mapstructure:"ports"`
}

// File is the root of an on-disk configuration.
type File struct {
	ControlAddr string        `mapstructure:"control_addr"`
	Rotators    []RotatorSpec `mapstructure:"rotators"`
	Ports       []PortSpec    `mapstructure:"ports"`
}

// PortConfigs translates every port entry, stamping each with the same
// configNum (one reload generation shares one counter value).
func (f File) PortConfigs(configNum int) ([]port.Config, error) {
	out := make([]port.Config, 0, len(f.Ports))
	for _, ps := range f.Ports {
		pc, err := ps.ToPortConfig(configNum)
		if err != nil {
			return nil, err
		}
		out = append(out, pc)
	}
	return out, nil
}
