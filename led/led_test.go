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

package led

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNoneDoesNothing(t *testing.T) {
	None.Flash()
}

func TestFlasherFuncAdapts(t *testing.T) {
	called := false
	var f Flasher = FlasherFunc(func() { called = true })
	f.Flash()
	if !called {
		t.Fatal("expected FlasherFunc to invoke the wrapped function")
	}
}

func TestSysfsLEDTogglesThenHoldsOff(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "brightness")
	if err := os.WriteFile(path, []byte("0"), 0644); err != nil {
		t.Fatal(err)
	}

	l := NewSysfsLED(path, 20*time.Millisecond)
	l.Flash()

	got, _ := os.ReadFile(path)
	if string(got) != "1" {
		t.Fatalf("expected brightness 1 immediately after Flash, got %q", got)
	}

	time.Sleep(60 * time.Millisecond)
	got, _ = os.ReadFile(path)
	if string(got) != "0" {
		t.Fatalf("expected brightness 0 after hold expires, got %q", got)
	}
}
