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

package port

// closeonScanner advances a match pointer over a fixed target string
// across successive reads (spec.md §4.6 "closeon scan"). The position is
// monotonically non-decreasing until reset by a mismatch or full match
// (spec.md §3 invariant).
type closeonScanner struct {
	target string
	pos    int
}

func newCloseonScanner(target string) *closeonScanner {
	return &closeonScanner{target: target}
}

// Scan walks data looking for the next occurrence of the target string
// possibly spanning prior calls. If a full match completes within data,
// it returns the index one past the final matching byte (so the caller
// truncates its read there) and matched=true. Otherwise it returns
// len(data) and matched=false, having advanced (or reset) the internal
// position according to how far the partial match got.
func (s *closeonScanner) Scan(data []byte) (truncateAt int, matched bool) {
	if s.target == "" {
		return len(data), false
	}

	for i, b := range data {
		if b == s.target[s.pos] {
			s.pos++
			if s.pos == len(s.target) {
				s.pos = 0
				return i + 1, true
			}
		} else {
			// A mismatching byte resets to the start and is not re-tested
			// against target[0], matching closeon_trigger's naive scan
			// (original_source/dataxfer.c:719-730) rather than a KMP-style
			// restart. A target like "ab" will not match within "aab".
			s.pos = 0
		}
	}
	return len(data), false
}
