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

// Package trace implements the port's read/write/both trace sinks:
// raw or hex-dump logging of serial/tcp traffic to a file, with
// fd-aliasing when two sinks name the same path (spec.md §4.5).
package trace

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Prefix identifies which direction a write came from in hex-dump mode.
type Prefix string

const (
	PrefixTerm Prefix = "term"
	PrefixTCP  Prefix = "tcp "
)

// Config describes one configured sink (read, write, or both) before
// opening; Filename is expanded by the template package before reaching
// here, so trace itself never sees escape sequences.
type Config struct {
	Enabled   bool
	Hexdump   bool
	Timestamp bool
	Filename  string
}

// file is the shared, refcounted handle backing one or more Sinks that
// resolved to the same filename (fd aliasing, spec.md §4.5).
type file struct {
	mu   sync.Mutex
	f    *os.File
	refs int
	dead bool
}

func (fl *file) write(p []byte) {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.dead || fl.f == nil {
		return
	}
	if _, err := fl.f.Write(p); err != nil {
		fl.f.Close()
		fl.f = nil
		fl.dead = true
	}
}

func (fl *file) release() {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	fl.refs--
	if fl.refs <= 0 && fl.f != nil {
		fl.f.Close()
		fl.f = nil
	}
}

// Sink is one opened trace destination.
type Sink struct {
	cfg Config
	fl  *file
}

// openFunc exists so tests can substitute an in-memory file opener.
type openFunc func(path string) (*os.File, error)

func defaultOpen(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
}

// Set is the {tr, tw, tb} trio for one port, collapsing sinks that share
// a filename onto the same open fd so data is written once.
type Set struct {
	Read, Write, Both *Sink
}

// Open builds a Set from up to three configs, aliasing any two (or
// three) that name the same non-empty filename (spec.md §4.5: "on
// setup the port computes pointers tr, tw, tb collapsing any two
// pointing at the same filename to the same opened fd").
func Open(readCfg, writeCfg, bothCfg Config) (*Set, error) {
	return open(readCfg, writeCfg, bothCfg, defaultOpen)
}

func open(readCfg, writeCfg, bothCfg Config, openFn openFunc) (*Set, error) {
	files := map[string]*file{}
	s := &Set{}

	mk := func(cfg Config) (*Sink, error) {
		if !cfg.Enabled || cfg.Filename == "" {
			return nil, nil
		}
		fl, ok := files[cfg.Filename]
		if !ok {
			f, err := openFn(cfg.Filename)
			if err != nil {
				return nil, fmt.Errorf("trace: open %s: %w", cfg.Filename, err)
			}
			fl = &file{f: f}
			files[cfg.Filename] = fl
		}
		fl.refs++
		return &Sink{cfg: cfg, fl: fl}, nil
	}

	var err error
	if s.Read, err = mk(readCfg); err != nil {
		return nil, err
	}
	if s.Write, err = mk(writeCfg); err != nil {
		return nil, err
	}
	if s.Both, err = mk(bothCfg); err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases every distinct fd in the set.
func (s *Set) Close() {
	if s == nil {
		return
	}
	// refs counts sinks, not distinct files, so release once per sink;
	// an aliased fd closes when its last sink lets go.
	for _, sk := range []*Sink{s.Read, s.Write, s.Both} {
		if sk == nil {
			continue
		}
		sk.fl.release()
	}
}

// TraceRead feeds data read from the device to the read and both sinks.
func (s *Set) TraceRead(data []byte, prefix Prefix, when time.Time) {
	if s == nil {
		return
	}
	s.Read.write(data, prefix, when)
	s.Both.write(data, prefix, when)
}

// TraceWrite feeds data about to be written to the device to the write
// and both sinks.
func (s *Set) TraceWrite(data []byte, prefix Prefix, when time.Time) {
	if s == nil {
		return
	}
	s.Write.write(data, prefix, when)
	s.Both.write(data, prefix, when)
}

// Header writes the "OPEN (peer)"-style banner line to every sink that
// has timestamps enabled (spec.md §4.5).
func (s *Set) Header(line string, when time.Time) {
	if s == nil {
		return
	}
	for _, sk := range []*Sink{s.Read, s.Write, s.Both} {
		sk.writeHeaderFooter(line, when)
	}
}

// Footer writes the "CLOSE (reason)"-style line, same gating as Header.
func (s *Set) Footer(line string, when time.Time) {
	s.Header(line, when)
}

func (sk *Sink) writeHeaderFooter(line string, when time.Time) {
	if sk == nil || !sk.cfg.Timestamp {
		return
	}
	sk.fl.write([]byte(fmt.Sprintf("[%s] %s\n", when.Format(time.RFC3339), line)))
}

func (sk *Sink) write(data []byte, prefix Prefix, when time.Time) {
	if sk == nil || len(data) == 0 {
		return
	}
	if sk.cfg.Hexdump {
		sk.fl.write([]byte(hexDump(data, prefix, when, sk.cfg.Timestamp)))
	} else {
		sk.fl.write(data)
	}
}

// hexDump renders data as rows of "[TIMESTAMP ]PREFIX HH HH ... |ascii|"
// with eight bytes per row (spec.md §4.5).
func hexDump(data []byte, prefix Prefix, when time.Time, timestamp bool) string {
	var b strings.Builder
	for off := 0; off < len(data); off += 8 {
		end := off + 8
		if end > len(data) {
			end = len(data)
		}
		row := data[off:end]

		if timestamp {
			fmt.Fprintf(&b, "[%s] ", when.Format(time.RFC3339))
		}
		b.WriteString(string(prefix))
		for i := 0; i < 8; i++ {
			if i < len(row) {
				fmt.Fprintf(&b, " %02X", row[i])
			} else {
				b.WriteString("   ")
			}
		}
		b.WriteString(" |")
		for _, c := range row {
			if c >= 0x20 && c < 0x7f {
				b.WriteByte(c)
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteString("|\n")
	}
	return b.String()
}
