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

package rotator

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/chenwaichung/ser2net/port"
)

func TestNextAdvancesPastTheHit(t *testing.T) {
	free := map[string]bool{"a": false, "b": true, "c": true}
	r := New([]string{"a", "b", "c"}, nil, func(n string) bool { return free[n] }, nil)

	name, ok := r.next()
	if !ok || name != "b" {
		t.Fatalf("got (%q, %v), want (b, true)", name, ok)
	}
	if r.CurrPort() != 2 {
		t.Fatalf("got cursor %d, want 2", r.CurrPort())
	}
}

func TestNextWrapsAroundTheList(t *testing.T) {
	free := map[string]bool{"a": true, "b": false, "c": false}
	r := New([]string{"a", "b", "c"}, nil, func(n string) bool { return free[n] }, nil)
	r.currPort = 1 // start scanning from "b"

	name, ok := r.next()
	if !ok || name != "a" {
		t.Fatalf("got (%q, %v), want (a, true)", name, ok)
	}
}

func TestNextReportsNoFreePort(t *testing.T) {
	r := New([]string{"a", "b"}, nil, func(string) bool { return false }, nil)
	if _, ok := r.next(); ok {
		t.Fatal("expected no free port")
	}
}

func TestNextOnEmptyListReportsNotFree(t *testing.T) {
	r := New(nil, nil, func(string) bool { return true }, nil)
	if _, ok := r.next(); ok {
		t.Fatal("expected an empty port list to report not-free")
	}
}

func TestDispatchRejectsWhenNoPortFree(t *testing.T) {
	r := New([]string{"a"}, nil, func(string) bool { return false }, nil)

	client, server := net.Pipe()
	defer client.Close()

	go r.dispatch(context.Background(), server)

	client.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 64)
	n, err := client.Read(buf)
	if err != nil {
		t.Fatalf("expected the rejection banner, got error: %v", err)
	}
	if got := string(buf[:n]); got != rejectNoFreePort {
		t.Fatalf("got %q, want %q", got, rejectNoFreePort)
	}
}

func TestDispatchRejectsOnUnknownLookup(t *testing.T) {
	r := New([]string{"a"}, func(string) (*port.Port, bool) { return nil, false }, func(string) bool { return true }, nil)

	client, server := net.Pipe()
	defer client.Close()

	go r.dispatch(context.Background(), server)

	client.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 64)
	n, err := client.Read(buf)
	if err != nil {
		t.Fatalf("expected the rejection banner, got error: %v", err)
	}
	if got := string(buf[:n]); got != rejectNoFreePort {
		t.Fatalf("got %q, want %q", got, rejectNoFreePort)
	}
}
