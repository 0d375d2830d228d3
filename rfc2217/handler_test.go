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

package rfc2217

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chenwaichung/ser2net/device"
	"github.com/chenwaichung/ser2net/telnet"
)

func TestRFC2217(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "rfc2217 suite")
}

// fakeDev is a minimal device.IO double exercising only what Handler
// touches; unused methods panic if ever called.
type fakeDev struct {
	bps     int
	ds      byte
	par     byte
	stop    byte
	ctrl    byte
	flushed device.FlushDirection
	flowSuspended bool
	modemState byte
}

func (f *fakeDev) Setup(string) (int, int, error)    { panic("unused") }
func (f *fakeDev) Shutdown(chan<- struct{})          { panic("unused") }
func (f *fakeDev) SendBreak() error                  { return nil }
func (f *fakeDev) SerParmToStr() string              { return "" }
func (f *fakeDev) ShowDevCfg() string                { return "" }
func (f *fakeDev) ShowDevControl() string            { return "" }
func (f *fakeDev) SetDevControl([]string) error      { return nil }
func (f *fakeDev) Reconfig([]string) error           { return nil }
func (f *fakeDev) SetRS485(*device.RS485Config) error { return nil }
func (f *fakeDev) ReadHandlerEnable(bool)            {}
func (f *fakeDev) WriteHandlerEnable(bool)           {}
func (f *fakeDev) ExceptHandlerEnable(bool)          {}
func (f *fakeDev) Free()                             {}
func (f *fakeDev) Read(p []byte) (int, error)        { return 0, nil }
func (f *fakeDev) Write(p []byte) (int, error)       { return len(p), nil }

func (f *fakeDev) Flush(dir device.FlushDirection) error { f.flushed = dir; return nil }
func (f *fakeDev) GetModemState() (byte, error)          { return f.modemState, nil }

func (f *fakeDev) BaudRate(val *int, cisco bool) (int, error) {
	if val != nil {
		f.bps = *val
	}
	return f.bps, nil
}
func (f *fakeDev) DataSize(val *byte) (byte, error) {
	if val != nil {
		f.ds = *val
	}
	return f.ds, nil
}
func (f *fakeDev) Parity(val *byte) (byte, error) {
	if val != nil {
		f.par = *val
	}
	return f.par, nil
}
func (f *fakeDev) StopSize(val *byte) (byte, error) {
	if val != nil {
		f.stop = *val
	}
	return f.stop, nil
}
func (f *fakeDev) Control(val *byte) (byte, error) {
	if val != nil {
		f.ctrl = *val
	}
	return f.ctrl, nil
}
func (f *fakeDev) FlowControl(suspend bool) error { f.flowSuspended = suspend; return nil }

var _ device.IO = (*fakeDev)(nil)

// decodeSubOption parses a single IAC SB <opt> ... IAC SE frame produced
// by Codec.SendOption, returning the option byte and payload.
func decodeSubOption(frame []byte) (byte, []byte) {
	Expect(len(frame)).To(BeNumerically(">=", 5))
	Expect(frame[0]).To(Equal(telnet.IAC))
	Expect(frame[1]).To(Equal(telnet.SB))
	body := frame[2 : len(frame)-2]
	Expect(frame[len(frame)-2]).To(Equal(telnet.IAC))
	Expect(frame[len(frame)-1]).To(Equal(telnet.SE))
	return body[0], body[1:]
}

var _ = Describe("rfc2217 Handler", func() {
	var (
		dev *fakeDev
		h   *Handler
		c   *telnet.Codec
	)

	BeforeEach(func() {
		dev = &fakeDev{bps: 9600, ds: 8, stop: 1}
		h = New(dev, "ser2net-test")
		c = telnet.New()
		c.Init([]telnet.Option{h.Table()}, nil, nil, nil)
	})

	send := func(body []byte) []byte {
		h.Handle(c, body)
		return c.Outbound()
	}

	It("replies to an empty SIGNATURE query with the configured signature", func() {
		out := send([]byte{CmdSignature})
		opt, payload := decodeSubOption(out)
		Expect(opt).To(Equal(telnet.OptComPortOption))
		Expect(payload[0]).To(Equal(byte(CmdSignature + replyOffset)))
		Expect(string(payload[1:])).To(Equal("ser2net-test"))
	})

	It("sets baud rate from a 4-byte RFC2217 request and echoes the actual rate", func() {
		out := send([]byte{CmdSetBaudrate, 0x00, 0x00, 0x1C, 0x20}) // 7200
		_, payload := decodeSubOption(out)
		Expect(payload[0]).To(Equal(byte(CmdSetBaudrate + replyOffset)))
		Expect(dev.bps).To(Equal(7200))
	})

	It("sets baud rate from a 3-byte cisco-style request", func() {
		send([]byte{CmdSetBaudrate, 0x00, 0x25, 0x80}) // 9600
		Expect(dev.bps).To(Equal(9600))
	})

	It("sets data size and echoes the actual value", func() {
		out := send([]byte{CmdSetDatasize, 7})
		_, payload := decodeSubOption(out)
		Expect(payload).To(Equal([]byte{CmdSetDatasize + replyOffset, 7}))
		Expect(dev.ds).To(Equal(byte(7)))
	})

	It("treats a zero value byte as a query, not a set", func() {
		dev.par = ParityEven
		out := send([]byte{CmdSetParity, 0})
		_, payload := decodeSubOption(out)
		Expect(payload).To(Equal([]byte{CmdSetParity + replyOffset, byte(ParityEven)}))
	})

	It("suspends and resumes flow control with no payload in the reply", func() {
		out := send([]byte{CmdFlowcontrolSuspend})
		_, payload := decodeSubOption(out)
		Expect(payload).To(Equal([]byte{CmdFlowcontrolSuspend + replyOffset}))
		Expect(dev.flowSuspended).To(BeTrue())

		out = send([]byte{CmdFlowcontrolResume})
		_, payload = decodeSubOption(out)
		Expect(payload).To(Equal([]byte{CmdFlowcontrolResume + replyOffset}))
		Expect(dev.flowSuspended).To(BeFalse())
	})

	It("stores and echoes the modemstate mask", func() {
		out := send([]byte{CmdSetModemstateMask, 0xFF})
		_, payload := decodeSubOption(out)
		Expect(payload).To(Equal([]byte{CmdSetModemstateMask + replyOffset, 0xFF}))
		Expect(h.modemstateMask).To(Equal(byte(0xFF)))
	})

	It("purges rx and replies with the accepted direction code", func() {
		out := send([]byte{CmdPurgeData, PurgeRX})
		_, payload := decodeSubOption(out)
		Expect(payload).To(Equal([]byte{CmdPurgeData + replyOffset, byte(PurgeRX)}))
		Expect(dev.flushed).To(Equal(device.FlushInput))
	})

	It("sends an unsolicited NOTIFY-MODEMSTATE only when the mask is set and the state changes", func() {
		send([]byte{CmdSetModemstateMask, 0xFF})

		dev.modemState = device.ModemCTS
		out := c.Outbound()
		Expect(out).To(BeEmpty())

		h.PollModemState(c)
		out = c.Outbound()
		_, payload := decodeSubOption(out)
		Expect(payload).To(Equal([]byte{CmdNotifyModemstate + replyOffset, device.ModemCTS}))

		// No change: no second notification.
		h.PollModemState(c)
		Expect(c.Outbound()).To(BeEmpty())
	})

	It("ignores NOTIFY-LINESTATE and NOTIFY-MODEMSTATE sent by a peer", func() {
		out := send([]byte{CmdNotifyLinestate, 0x01})
		Expect(out).To(BeEmpty())
	})
})
