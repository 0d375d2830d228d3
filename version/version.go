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

// Package version carries build-time version metadata, overridden via
// -ldflags at build time the way the teacher's cobra/ui entrypoints do.
package version

import "fmt"

var (
	// Version is the release tag; "dev" outside a tagged build.
	Version = "dev"
	// Commit is the short VCS commit hash.
	Commit = "none"
	// BuildDate is set to the RFC3339 build timestamp.
	BuildDate = "unknown"
)

// String renders the one-line banner the control plane's "version"
// command and the CLI's "version" subcommand both print.
func String() string {
	return fmt.Sprintf("serialmux %s (commit %s, built %s)", Version, Commit, BuildDate)
}
