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

// HalfState is the state of one direction's half-duplex pipe
// (spec.md §4.6: "for each half-direction").
type HalfState int

const (
	Unconnected HalfState = iota
	WaitingInput
	WaitingOutputClear
	Closing
)

func (s HalfState) String() string {
	switch s {
	case Unconnected:
		return "unconnected"
	case WaitingInput:
		return "waiting-input"
	case WaitingOutputClear:
		return "waiting-output-clear"
	case Closing:
		return "closing"
	default:
		return "unknown"
	}
}

// Shutdown reason strings, used verbatim in trace footers and control-plane
// output (spec.md §7).
const (
	ReasonClosedPort       = "closed port"
	ReasonPeerClosed       = "peer closed"
	ReasonLocalShutdown    = "local shutdown"
	ReasonReadError        = "read error"
	ReasonWriteError       = "write error"
	ReasonTelnetProtocol   = "telnet protocol error"
	ReasonTimeout          = "timeout"
	ReasonDisconnect       = "disconnect"
	ReasonCloseOnSequence  = "closeon sequence found"
	ReasonPortReplaced     = "port reconfigured"
)
