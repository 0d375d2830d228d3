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

// Package logging is the small structured-logging shim every component
// takes at construction instead of reaching for log.Printf/fmt.Println
// directly. It mirrors the teacher's FuncLog-factory/fluent-Entry idiom
// (nabbar-golib/logger) on top of logrus, plus an hclog constructor
// (NewHCLog) for components that want leveled, structured key/value pairs
// rather than logrus's field map. No component in this module calls
// NewHCLog; all of them log through FuncLog.
package logging

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/sirupsen/logrus"
)

// Logger is the fluent entry builder. Fields accumulate until Log is
// called; ErrorAdd conditionally attaches an error without forcing every
// call site to branch on nil.
type Logger interface {
	Entry(level logrus.Level, msg string, args ...interface{}) Logger
	Field(key string, val interface{}) Logger
	ErrorAdd(condition bool, err error) Logger
	Log()
}

// FuncLog is the factory signature every component accepts at
// construction, matching the teacher's "don't hold a concrete logger,
// hold a way to get the current one" pattern so log configuration can be
// swapped (e.g. on SIGHUP) without re-threading every component.
type FuncLog func() Logger

type entry struct {
	base   *logrus.Logger
	level  logrus.Level
	msg    string
	fields logrus.Fields
}

// New builds a FuncLog backed by a single logrus.Logger instance.
func New(base *logrus.Logger) FuncLog {
	return func() Logger {
		return &entry{base: base, fields: logrus.Fields{}}
	}
}

func (e *entry) Entry(level logrus.Level, msg string, args ...interface{}) Logger {
	e.level = level
	if len(args) > 0 {
		e.msg = fmt.Sprintf(msg, args...)
	} else {
		e.msg = msg
	}
	return e
}

func (e *entry) Field(key string, val interface{}) Logger {
	e.fields[key] = val
	return e
}

func (e *entry) ErrorAdd(condition bool, err error) Logger {
	if condition && err != nil {
		e.fields["error"] = err.Error()
	}
	return e
}

func (e *entry) Log() {
	e.base.WithFields(e.fields).Log(e.level, e.msg)
}

// NewHCLog adapts an hclog.Logger for components that were grounded on
// the teacher's hclog-based subsystems rather than its logrus ones
// (SPEC_FULL.md [DOMAIN] stack: "hashicorp/go-hclog — logging backends
// behind liblog").
func NewHCLog(name string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  name,
		Level: hclog.Info,
	})
}
