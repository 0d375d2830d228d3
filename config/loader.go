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
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	liberr "github.com/chenwaichung/ser2net/errors"
	"github.com/chenwaichung/ser2net/logging"
)

// Loader wraps a viper instance bound to one config file, handing out
// File snapshots and an fsnotify-driven change feed.
type Loader struct {
	v   *viper.Viper
	log logging.FuncLog
	gen int64
}

// New reads path once via viper (format inferred from its extension, the
// same native-loader convention the teacher's cobra/ui commands use) and
// returns a ready Loader.
func New(path string, log logging.FuncLog) (*Loader, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, liberr.New(CodeConfigInvalid, "reading config file", err)
	}
	return &Loader{v: v, log: log}, nil
}

func (l *Loader) logger() logging.Logger {
	if l.log == nil {
		return nil
	}
	return l.log()
}

// Load unmarshals the current in-memory viper state into a File and
// stamps the next config_num generation.
func (l *Loader) Load() (File, int, error) {
	var f File
	if err := l.v.Unmarshal(&f); err != nil {
		return File{}, 0, liberr.New(CodeConfigInvalid, "decoding config file", err)
	}
	gen := int(atomic.AddInt64(&l.gen, 1))
	return f, gen, nil
}

// Watch arms viper's fsnotify-backed file watch (github.com/fsnotify/
// fsnotify is viper's own dependency for this) and invokes onChange with
// a freshly decoded File every time the file is rewritten. Decode errors
// are logged and otherwise ignored: the prior in-memory File, and
// therefore every already-running port, is left untouched (spec.md §7
// "the old configuration is retained").
func (l *Loader) Watch(onChange func(File, int)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		f, gen, err := l.Load()
		if err != nil {
			if entry := l.logger(); entry != nil {
				entry.Entry(logrus.ErrorLevel, "config reload failed").ErrorAdd(true, err).Log()
			}
			return
		}
		onChange(f, gen)
	})
	l.v.WatchConfig()
}
