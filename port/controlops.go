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

package port

import liberr "github.com/chenwaichung/ser2net/errors"

// The following small mutators back the control plane's
// setporttimeout/setportenable/setportconfig/setportcontrol commands
// (spec.md §4.8). Each rejects a deleted port, mirroring the original's
// "mutate the named port under its lock, rejecting deleted ports where
// appropriate".

// SetTimeout changes the activity timeout (seconds; 0 disables it).
func (p *Port) SetTimeout(seconds int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cfg.ConfigNum == -1 {
		return liberrPortDeleted()
	}
	p.cfg.Timeout = seconds
	if p.tcpState != Unconnected {
		p.timeoutLeft = seconds
	}
	return nil
}

// SetEnable changes the accept policy.
func (p *Port) SetEnable(mode EnableMode) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cfg.ConfigNum == -1 {
		return liberrPortDeleted()
	}
	p.cfg.Enable = mode
	return nil
}

// SetDevControl forwards args to the underlying device's control-line
// setter, only meaningful while a session holds the device open.
func (p *Port) SetDevControl(args []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cfg.ConfigNum == -1 {
		return liberrPortDeleted()
	}
	if p.dev == nil {
		return liberrPortNotConnected()
	}
	return p.dev.SetDevControl(args)
}

// Reconfig forwards args to the underlying device's reconfig entry
// point (serial parameters: baud, datasize, parity, stopbits...).
func (p *Port) Reconfig(args []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cfg.ConfigNum == -1 {
		return liberrPortDeleted()
	}
	if p.dev == nil {
		return liberrPortNotConnected()
	}
	return p.dev.Reconfig(args)
}

// ShowDevCfg/ShowDevControl surface the device's own formatted
// diagnostics for the control plane's showport command.
func (p *Port) ShowDevCfg() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dev == nil {
		return ""
	}
	return p.dev.ShowDevCfg()
}

func (p *Port) ShowDevControl() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dev == nil {
		return ""
	}
	return p.dev.ShowDevControl()
}

func liberrPortDeleted() error {
	return liberr.New(CodePortBusy, "port marked for deletion", nil)
}

func liberrPortNotConnected() error {
	return liberr.New(CodePortBusy, "port has no active session", nil)
}
