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
	"errors"
	"sort"
	"testing"

	"github.com/chenwaichung/ser2net/port"
)

type fakeApplier struct {
	ports      map[string]port.Config
	deleted    []string
	failOnName string
}

func newFakeApplier() *fakeApplier {
	return &fakeApplier{ports: make(map[string]port.Config)}
}

func (f *fakeApplier) Names() []string {
	names := make([]string, 0, len(f.ports))
	for n := range f.ports {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (f *fakeApplier) Reconfigure(cfg port.Config) (*port.Port, error) {
	if cfg.PortName == f.failOnName {
		return nil, errors.New("reconfigure rejected")
	}
	f.ports[cfg.PortName] = cfg
	return nil, nil
}

func (f *fakeApplier) MarkDeleted(name string) error {
	f.deleted = append(f.deleted, name)
	delete(f.ports, name)
	return nil
}

func TestApplyAddsEveryPortInTheFile(t *testing.T) {
	reg := newFakeApplier()
	f := File{Ports: []PortSpec{
		{Name: "p1", Device: "/dev/ttyS0"},
		{Name: "p2", Device: "/dev/ttyS1"},
	}}
	if err := Apply(reg, f, 1, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(reg.ports) != 2 {
		t.Fatalf("expected 2 ports, got %d", len(reg.ports))
	}
	if reg.ports["p1"].ConfigNum != 1 {
		t.Fatalf("expected config num 1, got %d", reg.ports["p1"].ConfigNum)
	}
}

func TestApplyMarksMissingPortsDeleted(t *testing.T) {
	reg := newFakeApplier()
	reg.ports["stale"] = port.Config{PortName: "stale"}
	f := File{Ports: []PortSpec{{Name: "p1", Device: "/dev/ttyS0"}}}

	if err := Apply(reg, f, 1, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(reg.deleted) != 1 || reg.deleted[0] != "stale" {
		t.Fatalf("expected stale to be marked deleted, got %v", reg.deleted)
	}
	if _, ok := reg.ports["p1"]; !ok {
		t.Fatal("expected p1 to be present")
	}
}

func TestApplyRejectsTheWholeFileOnAnInvalidEntry(t *testing.T) {
	reg := newFakeApplier()
	f := File{Ports: []PortSpec{{Name: "", Device: "/dev/ttyS0"}}}
	if err := Apply(reg, f, 1, nil); err == nil {
		t.Fatal("expected an error for a nameless port entry")
	}
}

func TestApplyKeepsGoingPastAPerPortReconfigureError(t *testing.T) {
	reg := newFakeApplier()
	reg.failOnName = "bad"
	f := File{Ports: []PortSpec{
		{Name: "bad", Device: "/dev/ttyS0"},
		{Name: "good", Device: "/dev/ttyS1"},
	}}
	if err := Apply(reg, f, 1, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, ok := reg.ports["good"]; !ok {
		t.Fatal("expected good to still be applied despite bad's failure")
	}
}
