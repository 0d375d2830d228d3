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

package registry

import (
	"testing"

	"github.com/chenwaichung/ser2net/device"
	"github.com/chenwaichung/ser2net/port"
)

func noopFactory(devname string) device.IO { return device.NewSOL() }

func newTestRegistry() *Registry {
	return New(noopFactory, nil, nil)
}

func TestAddRejectsDuplicateNames(t *testing.T) {
	r := newTestRegistry()
	cfg := port.Config{PortName: "p1", DevName: "sol.1"}

	if _, err := r.Add(cfg); err != nil {
		t.Fatalf("first Add failed: %v", err)
	}
	if _, err := r.Add(cfg); err == nil {
		t.Fatal("expected second Add with the same name to fail")
	}
}

func TestIsDeviceBusyIgnoresExceptNameAndIdlePorts(t *testing.T) {
	r := newTestRegistry()
	if _, err := r.Add(port.Config{PortName: "p1", DevName: "sol.1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Add(port.Config{PortName: "p2", DevName: "sol.1"}); err != nil {
		t.Fatal(err)
	}

	// Neither port is connected, so the device isn't "in use" yet even
	// though two ports share a devname.
	if r.IsDeviceBusy("sol.1", "p2") {
		t.Fatal("expected device not busy while both ports are idle")
	}
	if r.IsDeviceBusy("sol.1", "p1") {
		t.Fatal("expected exceptName to be skipped from the busy check")
	}
}

func TestNamesAreSorted(t *testing.T) {
	r := newTestRegistry()
	for _, n := range []string{"zz", "aa", "mm"} {
		if _, err := r.Add(port.Config{PortName: n, DevName: "sol." + n}); err != nil {
			t.Fatal(err)
		}
	}
	got := r.Names()
	want := []string{"aa", "mm", "zz"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestReconfigureAddsMissingPort(t *testing.T) {
	r := newTestRegistry()
	p, err := r.Reconfigure(port.Config{PortName: "new", DevName: "sol.new"})
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != "new" {
		t.Fatalf("got name %q, want %q", p.Name(), "new")
	}
	if _, ok := r.Get("new"); !ok {
		t.Fatal("expected the new port to be registered")
	}
}

func TestMarkDeletedThenReapRemovesIdlePort(t *testing.T) {
	r := newTestRegistry()
	if _, err := r.Add(port.Config{PortName: "p1", DevName: "sol.1"}); err != nil {
		t.Fatal(err)
	}
	if err := r.MarkDeleted("p1"); err != nil {
		t.Fatal(err)
	}
	removed := r.ReapDeleted()
	if len(removed) != 1 || removed[0] != "p1" {
		t.Fatalf("got %v, want [p1]", removed)
	}
	if _, ok := r.Get("p1"); ok {
		t.Fatal("expected p1 to be gone after reaping")
	}
}

func TestMarkDeletedUnknownPortErrors(t *testing.T) {
	r := newTestRegistry()
	if err := r.MarkDeleted("nope"); err == nil {
		t.Fatal("expected an error for an unknown port name")
	}
}
