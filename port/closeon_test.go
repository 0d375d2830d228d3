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

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestPortSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "port suite")
}

var _ = Describe("closeonScanner", func() {
	It("does not match when target is empty", func() {
		s := newCloseonScanner("")
		n, matched := s.Scan([]byte("whatever"))
		Expect(matched).To(BeFalse())
		Expect(n).To(Equal(len("whatever")))
	})

	It("matches a full target within one chunk", func() {
		s := newCloseonScanner("bye\n")
		n, matched := s.Scan([]byte("hello bye\nmore"))
		Expect(matched).To(BeTrue())
		Expect(n).To(Equal(len("hello bye\n")))
	})

	It("matches a target split across two calls", func() {
		s := newCloseonScanner("bye\n")
		n, matched := s.Scan([]byte("he said b"))
		Expect(matched).To(BeFalse())
		Expect(n).To(Equal(len("he said b")))

		n, matched = s.Scan([]byte("ye\nok"))
		Expect(matched).To(BeTrue())
		Expect(n).To(Equal(len("ye\n")))
	})

	It("resets on a mismatch mid-target", func() {
		s := newCloseonScanner("abab")
		_, matched := s.Scan([]byte("ab"))
		Expect(matched).To(BeFalse())

		_, matched = s.Scan([]byte("xx"))
		Expect(matched).To(BeFalse())

		_, matched = s.Scan([]byte("abab"))
		Expect(matched).To(BeTrue())
	})

	It("completes a match that starts with a repeated prefix character", func() {
		s := newCloseonScanner("aab")
		_, matched := s.Scan([]byte("a"))
		Expect(matched).To(BeFalse())

		n, matched := s.Scan([]byte("ab"))
		Expect(matched).To(BeTrue())
		Expect(n).To(Equal(2))
	})

	It("does not retest a mismatching byte against the target's own first byte", func() {
		// A mismatch resets to position 0 and moves on; it never re-checks
		// the byte that caused the mismatch, so an overlapping-prefix
		// target like "ab" never matches within "aab" even though 'a'
		// reappears right where the scan gave up.
		s := newCloseonScanner("ab")
		_, matched := s.Scan([]byte("aab"))
		Expect(matched).To(BeFalse())
	})
})
