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

package control

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/chenwaichung/ser2net/device"
	"github.com/chenwaichung/ser2net/port"
	"github.com/chenwaichung/ser2net/registry"
)

func noopFactory(devname string) device.IO { return device.NewSOL() }

func newTestSession(t *testing.T) (*Session, net.Conn) {
	t.Helper()
	reg := registry.New(noopFactory, nil, nil)
	if _, err := reg.Add(port.Config{PortName: "p1", DevName: "sol.1"}); err != nil {
		t.Fatal(err)
	}
	ctrl := New(reg, nil)
	client, server := net.Pipe()
	t.Cleanup(func() { client.Close() })
	s := newSession(server, ctrl)
	return s, client
}

func readAll(t *testing.T, conn net.Conn, grace time.Duration) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(grace))
	var sb strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			sb.Write(buf[:n])
		}
		if err != nil {
			break
		}
	}
	return sb.String()
}

func TestDispatchExitClosesSession(t *testing.T) {
	s, _ := newTestSession(t)
	if !s.dispatch("exit") {
		t.Fatal("expected exit to request session close")
	}
}

func TestDispatchHelpPrintsHelpText(t *testing.T) {
	s, client := newTestSession(t)
	go func() { s.dispatch("help") }()
	out := readAll(t, client, 200*time.Millisecond)
	if !strings.Contains(out, "Commands:") {
		t.Fatalf("expected help text, got %q", out)
	}
}

func TestDispatchVersionPrintsBanner(t *testing.T) {
	s, client := newTestSession(t)
	go func() { s.dispatch("version") }()
	out := readAll(t, client, 200*time.Millisecond)
	if !strings.Contains(out, "serialmux") {
		t.Fatalf("expected a version banner, got %q", out)
	}
}

func TestDispatchShowShortPortListsRegisteredPort(t *testing.T) {
	s, client := newTestSession(t)
	go func() { s.dispatch("showshortport") }()
	out := readAll(t, client, 200*time.Millisecond)
	if !strings.Contains(out, "p1") || !strings.Contains(out, "sol.1") {
		t.Fatalf("expected port p1/sol.1 in output, got %q", out)
	}
}

func TestDispatchDisconnectUnknownPort(t *testing.T) {
	s, client := newTestSession(t)
	go func() { s.dispatch("disconnect nope") }()
	out := readAll(t, client, 200*time.Millisecond)
	if !strings.Contains(out, "unknown port") {
		t.Fatalf("expected an unknown-port message, got %q", out)
	}
}

func TestDispatchSetPortTimeoutRejectsNonInteger(t *testing.T) {
	s, client := newTestSession(t)
	go func() { s.dispatch("setporttimeout p1 soon") }()
	out := readAll(t, client, 200*time.Millisecond)
	if !strings.Contains(out, "integer") {
		t.Fatalf("expected an integer-parsing error, got %q", out)
	}
}

func TestDispatchSetPortTimeoutSucceeds(t *testing.T) {
	s, client := newTestSession(t)
	go func() { s.dispatch("setporttimeout p1 30") }()
	out := readAll(t, client, 200*time.Millisecond)
	if !strings.Contains(out, "ok") {
		t.Fatalf("expected ok, got %q", out)
	}
}

func TestFeedBackspaceErasesOneCharacter(t *testing.T) {
	s, client := newTestSession(t)
	go func() { s.feed([]byte("ab\b")) }()
	out := readAll(t, client, 200*time.Millisecond)
	if !strings.HasSuffix(out, "\b \b") {
		t.Fatalf("expected trailing erase sequence, got %q", out)
	}
	if len(s.line) != 1 || s.line[0] != 'a' {
		t.Fatalf("expected line buffer to hold just 'a', got %q", s.line)
	}
}

func TestFeedOverflowResetsLine(t *testing.T) {
	s, client := newTestSession(t)
	long := strings.Repeat("x", maxLineBytes+1)
	go func() { s.feed([]byte(long)) }()
	out := readAll(t, client, 200*time.Millisecond)
	if !strings.Contains(out, "Input line too long") {
		t.Fatalf("expected overflow message, got %q", out)
	}
	if len(s.line) != 0 {
		t.Fatalf("expected line buffer reset, got %d bytes", len(s.line))
	}
}

func TestFeedCarriageReturnDispatchesLine(t *testing.T) {
	s, client := newTestSession(t)
	go func() { s.feed([]byte("version\r")) }()
	out := readAll(t, client, 200*time.Millisecond)
	if !strings.Contains(out, "serialmux") {
		t.Fatalf("expected version output after CR, got %q", out)
	}
}
