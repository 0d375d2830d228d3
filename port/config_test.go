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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("EnableMode", func() {
	DescribeTable("round-trips through ParseEnableMode and String",
		func(text string, mode EnableMode) {
			got, ok := ParseEnableMode(text)
			Expect(ok).To(BeTrue())
			Expect(got).To(Equal(mode))
			Expect(got.String()).To(Equal(text))
		},
		Entry("off", "off", Disabled),
		Entry("raw", "raw", Raw),
		Entry("rawlp", "rawlp", RawLP),
		Entry("telnet", "telnet", Telnet),
	)

	It("rejects unknown tokens", func() {
		_, ok := ParseEnableMode("bogus")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Config.withDefaults", func() {
	It("fills in zero-valued knobs", func() {
		c := Config{}.withDefaults()
		Expect(c.DevToTCPBufSize).To(Equal(defaultDevToTCPBufSize))
		Expect(c.TCPToDevBufSize).To(Equal(defaultTCPToDevBufSize))
		Expect(c.CharDelayScale).To(Equal(defaultCharDelayScale))
		Expect(c.CharDelayMin).To(Equal(defaultCharDelayMin))
		Expect(c.CharDelayMax).To(Equal(defaultCharDelayMax))
		Expect(c.LEDRx).NotTo(BeNil())
		Expect(c.LEDTx).NotTo(BeNil())
	})

	It("leaves explicitly set knobs untouched", func() {
		c := Config{DevToTCPBufSize: 4096, CharDelayMax: 5000}.withDefaults()
		Expect(c.DevToTCPBufSize).To(Equal(4096))
		Expect(c.CharDelayMax).To(Equal(5000))
	})
})
