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
	"context"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chenwaichung/ser2net/buffer"
	"github.com/chenwaichung/ser2net/device"
	liberr "github.com/chenwaichung/ser2net/errors"
	"github.com/chenwaichung/ser2net/logging"
	"github.com/chenwaichung/ser2net/reactor"
	"github.com/chenwaichung/ser2net/rfc2217"
	"github.com/chenwaichung/ser2net/telnet"
	"github.com/chenwaichung/ser2net/template"
	"github.com/chenwaichung/ser2net/trace"
)

// Error codes for this package's reserved range (spec.md §7).
const (
	codeBase          liberr.CodeError = 4200
	CodeConfigInvalid                  = codeBase + iota
	CodePortBusy
	CodeDeviceBusy
	CodeAccessDenied
	CodeDeviceSetupFailed
)

func init() {
	liberr.RegisterIdFctMessage(codeBase, func(code liberr.CodeError) string {
		switch code {
		case CodeConfigInvalid:
			return "invalid port configuration"
		case CodePortBusy:
			return "port already in use"
		case CodeDeviceBusy:
			return "device already in use"
		case CodeAccessDenied:
			return "host access denied"
		case CodeDeviceSetupFailed:
			return "device setup failed"
		default:
			return "port error"
		}
	})
}

const (
	rejectPortBusy   = "Port already in use\r\n"
	rejectDeviceBusy = "Device already in use\r\n"
)

// DeviceFactory builds the device.IO backend for devname; registries wire
// this to pick device.NewTermios or device.NewSOL based on the sol.
// prefix (spec.md §6).
type DeviceFactory func(devname string) device.IO

// HostAccess is the external allow/deny predicate spec.md §1 mentions
// ("authentication beyond an optional host-access allowlist delegated to
// an external predicate").
type HostAccess func(peer net.Addr) bool

// Port is the per-port data-transfer engine (spec.md §4.6).
type Port struct {
	mu  sync.Mutex
	cfg Config

	devFactory DeviceFactory
	hostAccess HostAccess
	log        logging.FuncLog

	conn net.Conn
	dev  device.IO

	codec *telnet.Codec
	rfc   *rfc2217.Handler

	traceSet *trace.Set
	rct      *reactor.Reactor

	devToTCP *buffer.Buffer
	tcpToDev *buffer.Buffer

	tcpState HalfState
	devState HalfState

	closeScan         *closeonScanner
	closeOnOutputDone bool

	pacer *sendPacer

	bps, bpc int

	// Split the same way original_source/dataxfer.c's showshortport does:
	// bytes read off the wire on each side are not the same count as
	// bytes written to the other side once telnet IAC escaping/unescaping
	// is applied.
	devBytesReceived, tcpBytesSent    uint64
	tcpBytesReceived, devBytesSent    uint64

	timeoutLeft int

	peerAddr string
	peerIP   string

	newConfig *Config

	idleCh chan struct{}

	monTerm MonitorSink
	monTCP  MonitorSink
}

// New builds an unconnected Port from cfg.
func New(cfg Config, devFactory DeviceFactory, hostAccess HostAccess, log logging.FuncLog) *Port {
	cfg = cfg.withDefaults()
	return &Port{
		cfg:        cfg,
		devFactory: devFactory,
		hostAccess: hostAccess,
		log:        log,
		tcpState:   Unconnected,
		devState:   Unconnected,
	}
}

// Name returns the configured portname (for registry indexing).
func (p *Port) Name() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg.PortName
}

// DevName returns the configured devname (for device-collision checks).
func (p *Port) DevName() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg.DevName
}

// ConfigNum returns the generation counter; -1 means marked for deletion.
func (p *Port) ConfigNum() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg.ConfigNum
}

// IsIdle reports whether both half-duplex sides are Unconnected
// (spec.md §3 "new_config is consumed... on idle transition").
func (p *Port) IsIdle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tcpState == Unconnected && p.devState == Unconnected
}

// InUse reports whether this port currently holds its device open
// (spec.md §4.7 is_port_free / §5 is_device_already_inuse).
func (p *Port) InUse() bool {
	return !p.IsIdle()
}

func (p *Port) logger() logging.Logger {
	if p.log == nil {
		return nil
	}
	return p.log()
}

func (p *Port) logEntry(level logrus.Level, msg string, args ...interface{}) logging.Logger {
	l := p.logger()
	if l == nil {
		return nil
	}
	return l.Entry(level, msg, args...).Field("port", p.cfg.PortName).Field("device", p.cfg.DevName)
}

func logDone(l logging.Logger) {
	if l != nil {
		l.Log()
	}
}

// Accept drives the accept path of spec.md §4.6. deviceBusy is supplied
// by the caller (a registry, which alone knows about every other port's
// devname) since a single Port cannot detect device collisions on its
// own. When KickOldUser is set and a session is already connected, Accept
// shuts that session down and waits for the port to go idle before
// accepting conn; a Go
// net.Listener has already dequeued conn by the time Accept runs, so
// unlike the original (which can return a still-backlogged connection to
// the kernel and re-accept later), this implementation shuts the old
// session down and hands conn straight to the new one.
func (p *Port) Accept(ctx context.Context, conn net.Conn, deviceBusy bool) error {
	p.mu.Lock()

	if p.cfg.Enable == Disabled {
		p.mu.Unlock()
		conn.Close()
		return liberr.New(CodePortBusy, "port disabled", nil)
	}

	if p.tcpState != Unconnected {
		if p.cfg.KickOldUser {
			p.mu.Unlock()
			p.Shutdown(ReasonDisconnect)
			p.awaitIdle(ctx)
			p.mu.Lock()
		} else {
			p.mu.Unlock()
			rejectAndClose(conn, rejectPortBusy)
			return liberr.New(CodePortBusy, "port already connected", nil)
		}
	}

	if deviceBusy {
		p.mu.Unlock()
		rejectAndClose(conn, rejectDeviceBusy)
		return liberr.New(CodeDeviceBusy, "device in use by another port", nil)
	}

	if p.cfg.ConfigNum == -1 {
		p.mu.Unlock()
		rejectAndClose(conn, rejectPortBusy)
		return liberr.New(CodePortBusy, "port marked for deletion", nil)
	}

	if p.hostAccess != nil && !p.hostAccess(conn.RemoteAddr()) {
		p.mu.Unlock()
		rejectAndClose(conn, "Access denied\r\n")
		return liberr.New(CodeAccessDenied, "host access denied", nil)
	}

	err := p.setupLocked(ctx, conn)
	p.mu.Unlock()
	return err
}

func rejectAndClose(conn net.Conn, msg string) {
	_, _ = conn.Write([]byte(msg))
	conn.Close()
}

// setupLocked implements setup_tcp_port (spec.md §4.6 step 4). Caller
// holds p.mu.
func (p *Port) setupLocked(ctx context.Context, conn net.Conn) error {
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
		_ = tc.SetKeepAlive(true)
	}

	dev := p.devFactory(p.cfg.DevName)
	bps, bpc, err := dev.Setup(p.cfg.DevName)
	if err != nil {
		rejectAndClose(conn, rejectDeviceBusy)
		logDone(p.logEntry(logrus.ErrorLevel, "device setup failed").ErrorAdd(true, err))
		return liberr.New(CodeDeviceSetupFailed, "device setup failed", err)
	}

	p.conn = conn
	p.dev = dev
	p.bps, p.bpc = bps, bpc
	p.peerAddr = conn.RemoteAddr().String()
	p.peerIP = hostOf(p.peerAddr)
	p.closeScan = newCloseonScanner(p.cfg.CloseOn)
	p.closeOnOutputDone = false
	p.timeoutLeft = p.cfg.Timeout
	p.newConfig = nil

	delay := computeCharDelay(bps, bpc, p.cfg.CharDelayScale, p.cfg.CharDelayMin, p.cfg.CharDelayMax)
	maxDelay := time.Duration(p.cfg.CharDelayMax) * time.Microsecond
	p.pacer = newSendPacer(delay, maxDelay)

	p.devToTCP = buffer.New(p.cfg.DevToTCPBufSize)
	p.tcpToDev = buffer.New(p.cfg.TCPToDevBufSize)

	if p.cfg.Enable == Telnet {
		p.rfc = rfc2217.New(dev, p.cfg.SigStr)
		p.codec = telnet.New()
		table := []telnet.Option{
			{Option: telnet.OptSuppressGoAhead, IWill: true},
			{Option: telnet.OptBinaryTransmission, IWill: true, IDo: true},
		}
		if p.cfg.Allow2217 {
			table = append(table, p.rfc.Table())
		}
		p.codec.Init(table, nil, nil, p.flushOutbound)
	} else {
		p.codec = nil
	}

	traceSet, err := trace.Open(p.traceCfg(p.cfg.TraceRead), p.traceCfg(p.cfg.TraceWrite), p.traceCfg(p.cfg.TraceBoth))
	if err != nil {
		logDone(p.logEntry(logrus.ErrorLevel, "trace setup failed").ErrorAdd(true, err))
	} else {
		p.traceSet = traceSet
		p.traceSet.Header("OPEN ("+p.peerAddr+")", time.Now())
	}

	p.tcpState = WaitingInput
	p.devState = WaitingInput
	p.idleCh = make(chan struct{})

	if p.cfg.Banner != "" {
		_, _ = conn.Write([]byte(p.expand(p.cfg.Banner, false)))
	}
	if p.cfg.OpenStr != "" {
		_, _ = dev.Write([]byte(p.expand(p.cfg.OpenStr, false)))
	}

	p.rct = reactor.New(ctx)
	p.rct.RegisterRead(conn, p.tcpToDev.MaxSize()/2+1, p.onTCPReadable, p.onTCPExcept)
	p.rct.RegisterRead(dev, p.devToTCP.MaxSize()/2+1, p.onDevReadable, p.onDevExcept)
	p.rct.RegisterTicker("activity", time.Second, p.onTick)

	logDone(p.logEntry(logrus.InfoLevel, "accepted connection from %s", p.peerAddr))
	return nil
}

func (p *Port) traceCfg(c TraceConfig) trace.Config {
	return trace.Config{
		Enabled:   c.Enabled,
		Hexdump:   c.Hexdump,
		Timestamp: c.Timestamp,
		Filename:  p.expand(c.Filename, true),
	}
}

func (p *Port) expand(tpl string, filename bool) string {
	return template.Expand(tpl, template.Context{
		Device:      p.cfg.DevName,
		Port:        p.cfg.PortName,
		SerialParms: p.dev.SerParmToStr(),
		PeerIP:      p.peerIP,
		When:        time.Now(),
		Filename:    filename,
	})
}

func hostOf(addr string) string {
	if h, _, err := net.SplitHostPort(addr); err == nil {
		return h
	}
	return addr
}

func (p *Port) flushOutbound() {
	out := p.codec.Outbound()
	if len(out) > 0 && p.conn != nil {
		_, _ = p.conn.Write(out)
	}
}

// awaitIdle blocks until the currently active session (if any) finishes
// shutting down, or ctx is done.
func (p *Port) awaitIdle(ctx context.Context) {
	p.mu.Lock()
	ch := p.idleCh
	p.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case <-ch:
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
	}
}
