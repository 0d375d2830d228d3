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

package config

import (
	"github.com/sirupsen/logrus"

	"github.com/chenwaichung/ser2net/logging"
	"github.com/chenwaichung/ser2net/port"
	"github.com/chenwaichung/ser2net/registry"
)

// Applier is the subset of *registry.Registry the reload path needs,
// narrowed to an interface so tests can supply a fake without building a
// real registry.
type Applier interface {
	Names() []string
	Reconfigure(cfg port.Config) (*port.Port, error)
	MarkDeleted(name string) error
}

// Apply reconciles the registry against a freshly loaded File: every
// entry present is pushed through Reconfigure (which applies immediately
// to an idle port or queues for an active one, per spec.md §3's
// "new_config consumed exactly once"), and every currently-registered
// port absent from the new file is marked deleted so it's reaped on its
// next idle transition. This is the same two-phase reconcile
// original_source/readconfig.c's free_dead_ports performs.
func Apply(reg Applier, f File, configNum int, log logging.FuncLog) error {
	cfgs, err := f.PortConfigs(configNum)
	if err != nil {
		return err
	}

	kept := make(map[string]struct{}, len(cfgs))
	for _, cfg := range cfgs {
		kept[cfg.PortName] = struct{}{}
		if _, err := reg.Reconfigure(cfg); err != nil {
			if log != nil {
				log().Entry(logrus.ErrorLevel, "reconfigure failed for port %s", cfg.PortName).ErrorAdd(true, err).Log()
			}
		}
	}

	for _, name := range reg.Names() {
		if _, ok := kept[name]; !ok {
			_ = reg.MarkDeleted(name)
		}
	}

	return nil
}

// WatchAndApply wires Loader.Watch straight into Apply against reg,
// matching the hot-reload seam SPEC_FULL.md names: "a viper
// OnConfigChange callback produces a new port.Config and feeds the
// registry's reconfiguration path".
func WatchAndApply(l *Loader, reg *registry.Registry, log logging.FuncLog) {
	l.Watch(func(f File, gen int) {
		if err := Apply(reg, f, gen, log); err != nil && log != nil {
			log().Entry(logrus.ErrorLevel, "config reload rejected").ErrorAdd(true, err).Log()
		}
	})
}
