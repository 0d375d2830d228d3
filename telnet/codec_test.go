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

package telnet_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chenwaichung/ser2net/telnet"
)

func TestTelnet(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "telnet Suite")
}

var _ = Describe("Codec", func() {
	It("passes plain data through untouched", func() {
		c := telnet.New()
		c.Init(nil, nil, nil, nil)
		out := c.Process([]byte("hello world"))
		Expect(out).To(Equal([]byte("hello world")))
	})

	It("un-escapes a doubled IAC into a single 0xFF", func() {
		c := telnet.New()
		c.Init(nil, nil, nil, nil)
		in := []byte{'A', telnet.IAC, telnet.IAC, 'B'}
		out := c.Process(in)
		Expect(out).To(Equal([]byte{'A', telnet.IAC, 'B'}))
	})

	It("splits IAC doubling cleanly across two Process calls", func() {
		c := telnet.New()
		c.Init(nil, nil, nil, nil)
		out1 := c.Process([]byte{'A', telnet.IAC})
		out2 := c.Process([]byte{telnet.IAC, 'B'})
		Expect(append(out1, out2...)).To(Equal([]byte{'A', telnet.IAC, 'B'}))
	})

	It("invokes onCmd for a DO/WILL pair and does not leak the command into user data", func() {
		var got []byte
		c := telnet.New()
		c.Init([]telnet.Option{{Option: telnet.OptEcho, IWill: true}}, nil,
			func(cmd, opt byte) { got = append(got, cmd, opt) }, func() {})

		in := []byte{'x', telnet.IAC, telnet.DO, telnet.OptEcho, 'y'}
		out := c.Process(in)
		Expect(out).To(Equal([]byte{'x', 'y'}))
		Expect(got).To(Equal([]byte{telnet.DO, telnet.OptEcho}))
	})

	It("replies WILL when offered DO for an option we support", func() {
		c := telnet.New()
		c.Init([]telnet.Option{{Option: telnet.OptEcho, IWill: true}}, nil, nil, func() {})
		c.Process([]byte{telnet.IAC, telnet.DO, telnet.OptEcho})
		Expect(c.Outbound()).To(Equal([]byte{telnet.IAC, telnet.WILL, telnet.OptEcho}))
	})

	It("replies WONT for an option we don't support", func() {
		c := telnet.New()
		c.Init(nil, nil, nil, func() {})
		c.Process([]byte{telnet.IAC, telnet.DO, 77})
		Expect(c.Outbound()).To(Equal([]byte{telnet.IAC, telnet.WONT, 77}))
	})

	It("assembles a suboption payload and calls its handler", func() {
		var gotOpt byte
		var gotPayload []byte

		c := telnet.New()
		c.Init([]telnet.Option{{
			Option: telnet.OptComPortOption,
			SubHandler: func(c *telnet.Codec, data []byte) {
				gotOpt = telnet.OptComPortOption
				gotPayload = append([]byte(nil), data...)
			},
		}}, nil, nil, nil)

		in := []byte{telnet.IAC, telnet.SB, telnet.OptComPortOption, 1, 2, 3, telnet.IAC, telnet.SE}
		out := c.Process(in)
		Expect(out).To(BeEmpty())
		Expect(gotOpt).To(Equal(telnet.OptComPortOption))
		Expect(gotPayload).To(Equal([]byte{1, 2, 3}))
	})

	It("un-escapes a doubled IAC inside a suboption payload", func() {
		var gotPayload []byte
		c := telnet.New()
		c.Init([]telnet.Option{{
			Option:     telnet.OptComPortOption,
			SubHandler: func(c *telnet.Codec, data []byte) { gotPayload = append([]byte(nil), data...) },
		}}, nil, nil, nil)

		in := []byte{telnet.IAC, telnet.SB, telnet.OptComPortOption, 0xFF, 0xFF, telnet.IAC, telnet.IAC, telnet.IAC, telnet.SE}
		c.Process(in)
		Expect(gotPayload).To(Equal([]byte{0xFF, telnet.IAC}))
	})

	It("frames SendOption as IAC SB ... IAC SE and doubles embedded IAC", func() {
		called := false
		c := telnet.New()
		c.Init(nil, nil, nil, func() { called = true })
		c.SendOption([]byte{44, 101, 0xFF, 0, 0x4B, 0})
		Expect(called).To(BeTrue())
		Expect(c.Outbound()).To(Equal([]byte{
			telnet.IAC, telnet.SB, 44, 101, 0xFF, telnet.IAC, 0, 0x4B, 0, telnet.IAC, telnet.SE,
		}))
	})
})

var _ = Describe("Escape", func() {
	It("doubles every 0xFF in place within a buffer sized for expansion", func() {
		buf := make([]byte, 16)
		n := copy(buf, []byte{'A', 0xFF, 'B', 0xFF, 0xFF, 'C'})
		n = telnet.Escape(buf, n)
		Expect(buf[:n]).To(Equal([]byte{'A', 0xFF, 0xFF, 'B', 0xFF, 0xFF, 0xFF, 0xFF, 'C'}))
	})

	It("is a no-op when there is nothing to escape", func() {
		buf := make([]byte, 8)
		n := copy(buf, []byte("abcdef"))
		got := telnet.Escape(buf, n)
		Expect(got).To(Equal(n))
		Expect(buf[:n]).To(Equal([]byte("abcdef")))
	})
})
