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
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("computeCharDelay", func() {
	It("computes bpc*100000*scale/bps when the result falls inside [min,max]", func() {
		d := computeCharDelay(500, 10, 1, 1000, 20000)
		Expect(d).To(Equal(2000 * time.Microsecond))
	})

	It("clamps to the minimum for very high baud rates", func() {
		d := computeCharDelay(115200, 10, 1, 1000, 20000)
		Expect(d).To(Equal(1000 * time.Microsecond))
	})

	It("clamps to the maximum for very low baud rates", func() {
		d := computeCharDelay(10, 10, 1, 1000, 20000)
		Expect(d).To(Equal(20000 * time.Microsecond))
	})

	It("falls back to 9600 baud when bps is non-positive", func() {
		d := computeCharDelay(0, 10, 1, 1000, 20000)
		Expect(d).To(Equal(computeCharDelay(9600, 10, 1, 1000, 20000)))
	})
})

var _ = Describe("sendPacer", func() {
	var base time.Time

	BeforeEach(func() {
		base = time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC)
	})

	It("returns the plain chardelay on the first call", func() {
		p := newSendPacer(2*time.Millisecond, 20*time.Millisecond)
		Expect(p.NextDelay(base)).To(Equal(2 * time.Millisecond))
	})

	It("holds a sticky deadline across repeated calls without reset", func() {
		p := newSendPacer(5*time.Millisecond, 10*time.Millisecond)

		Expect(p.NextDelay(base)).To(Equal(5 * time.Millisecond))

		// 8ms later, only 2ms remain until the sticky deadline even
		// though chardelay itself is 5ms.
		Expect(p.NextDelay(base.Add(8 * time.Millisecond))).To(Equal(2 * time.Millisecond))
	})

	It("never returns a negative delay once the deadline has passed", func() {
		p := newSendPacer(5*time.Millisecond, 10*time.Millisecond)
		p.NextDelay(base)
		Expect(p.NextDelay(base.Add(50 * time.Millisecond))).To(Equal(time.Duration(0)))
	})

	It("rearms a fresh sticky deadline after reset", func() {
		p := newSendPacer(5*time.Millisecond, 10*time.Millisecond)
		p.NextDelay(base)
		p.NextDelay(base.Add(50 * time.Millisecond))
		p.reset()

		Expect(p.NextDelay(base.Add(time.Second))).To(Equal(5 * time.Millisecond))
	})

	It("picks up a new chardelay from setDelay", func() {
		p := newSendPacer(5*time.Millisecond, 10*time.Millisecond)
		p.setDelay(1*time.Millisecond, 10*time.Millisecond)
		Expect(p.NextDelay(base)).To(Equal(1 * time.Millisecond))
	})
})
