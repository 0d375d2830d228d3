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

package device

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"
)

// lockFile is a conventional UUCP-style exclusive lock: a text file under
// /var/lock holding the PID of the owning process, created with O_EXCL.
// spec.md §5 requires the core to call lock_acquire before open and
// lock_release after close; this is that mechanism.
type lockFile struct {
	path string
}

var lockDir = "/var/lock"

func lockPath(devname string) string {
	return filepath.Join(lockDir, "LCK.."+filepath.Base(devname))
}

func acquireLock(devname string) (*lockFile, error) {
	p := lockPath(devname)

	if b, err := os.ReadFile(p); err == nil {
		if pid, perr := strconv.Atoi(trimNL(b)); perr == nil && pid > 0 {
			if processAlive(pid) {
				return nil, fmt.Errorf("device: %s locked by pid %d", devname, pid)
			}
		}
		// Stale lock: the owning process is gone, reclaim it.
		_ = os.Remove(p)
	}

	f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("device: create lock %s: %w", p, err)
	}
	fmt.Fprintf(f, "%10d\n", os.Getpid())
	_ = f.Close()

	return &lockFile{path: p}, nil
}

func (l *lockFile) release() {
	if l == nil {
		return
	}
	_ = os.Remove(l.path)
}

func trimNL(b []byte) string {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == ' ' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	for len(b) > 0 && b[0] == ' ' {
		b = b[1:]
	}
	return string(b)
}

// processAlive performs a classic kill(pid, 0) liveness probe.
func processAlive(pid int) bool {
	return unix.Kill(pid, 0) == nil
}
