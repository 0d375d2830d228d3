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

// Package control implements the line-oriented administrative endpoint
// (spec.md §4.8): a capped pool of telnet sessions accepting
// whitespace-tokenized commands to list, inspect, reconfigure, monitor
// and disconnect ports.
package control

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/hashicorp/go-uuid"
	"github.com/sirupsen/logrus"

	"github.com/chenwaichung/ser2net/logging"
	"github.com/chenwaichung/ser2net/port"
	"github.com/chenwaichung/ser2net/registry"
	"github.com/chenwaichung/ser2net/telnet"
	"github.com/chenwaichung/ser2net/version"
)

const (
	maxSessions  = 4
	maxLineBytes = 255
	prompt       = "-> "
)

const helpText = `Commands:
  exit, quit                                close this session
  help                                       print this text
  version                                    print product version
  showport [<portname>]                      dump full port information
  showshortport [<portname>]                 dump fixed-width port summary
  monitor tcp|term <portname>                tee a port's traffic to this session
  monitor stop                               clear this session's monitor
  disconnect <portname>                      drop the port's active session
  setporttimeout <portname> <seconds>        change the activity timeout
  setportenable <portname> off|raw|rawlp|telnet
  setportcontrol <portname> <controls...>    set DTR/RTS/etc
  setportconfig <portname> <devcfg...>       set baud/datasize/parity/stopbits
`

// Controller runs the admin listener and its capped session pool.
type Controller struct {
	reg *registry.Registry
	log logging.FuncLog

	mu       sync.Mutex
	sessions map[*Session]struct{}
}

// New builds a Controller backed by reg.
func New(reg *registry.Registry, log logging.FuncLog) *Controller {
	return &Controller{reg: reg, log: log, sessions: make(map[*Session]struct{})}
}

// Serve accepts connections on ln until ctx is done.
func (c *Controller) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		c.accept(ctx, conn)
	}
}

func (c *Controller) accept(ctx context.Context, conn net.Conn) {
	c.mu.Lock()
	if len(c.sessions) >= maxSessions {
		c.mu.Unlock()
		_, _ = conn.Write([]byte("Too many control sessions\r\n"))
		_ = conn.Close()
		return
	}
	s := newSession(conn, c)
	c.sessions[s] = struct{}{}
	c.mu.Unlock()

	if entry := c.logEntry(); entry != nil {
		entry.Entry(logrus.InfoLevel, "control session opened").Field("session", s.id).Log()
	}

	go func() {
		s.run(ctx)
		c.mu.Lock()
		delete(c.sessions, s)
		c.mu.Unlock()
		if entry := c.logEntry(); entry != nil {
			entry.Entry(logrus.InfoLevel, "control session closed").Field("session", s.id).Log()
		}
	}()
}

func (c *Controller) logEntry() logging.Logger {
	if c.log == nil {
		return nil
	}
	return c.log()
}

// Session is one administrative connection.
type Session struct {
	id   string
	conn net.Conn
	ctrl *Controller
	c    *telnet.Codec

	line []byte

	monitorTarget string
	monitorDir    string
	monitorPort   *port.Port
	monCh         chan []byte
}

// TeeSend implements port.MonitorSink. It never blocks: a session that
// isn't draining fast enough silently drops the tee'd chunk.
func (s *Session) TeeSend(p []byte) {
	cp := append([]byte(nil), p...)
	select {
	case s.monCh <- cp:
	default:
	}
}

func (s *Session) pumpMonitor() {
	for chunk := range s.monCh {
		_, _ = s.conn.Write(chunk)
	}
}

func (s *Session) stopMonitor() {
	if s.monitorPort != nil {
		s.monitorPort.ClearMonitor(s)
		s.monitorPort = nil
	}
	s.monitorTarget = ""
	s.monitorDir = ""
}

func newSession(conn net.Conn, ctrl *Controller) *Session {
	id, err := uuid.GenerateUUID()
	if err != nil {
		id = conn.RemoteAddr().String()
	}
	s := &Session{id: id, conn: conn, ctrl: ctrl, monCh: make(chan []byte, 64)}
	s.c = telnet.New()
	table := []telnet.Option{
		{Option: telnet.OptSuppressGoAhead, IWill: true},
		{Option: telnet.OptEcho, IWill: true, IDo: true},
		{Option: telnet.OptBinaryTransmission, IDo: true},
	}
	s.c.Init(table, nil, nil, s.flush)
	go s.pumpMonitor()
	return s
}

func (s *Session) flush() {
	out := s.c.Outbound()
	if len(out) > 0 {
		_, _ = s.conn.Write(out)
	}
}

// run drives the line editor and command loop until the session closes.
func (s *Session) run(ctx context.Context) {
	defer s.conn.Close()
	defer close(s.monCh)
	defer s.stopMonitor()
	s.write(prompt)

	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := s.conn.Read(buf)
		if n > 0 {
			clean := s.c.Process(buf[:n])
			s.flush()
			if s.feed(clean) {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// feed runs the line editor over clean bytes, returns true if the
// session should close.
func (s *Session) feed(data []byte) bool {
	for _, b := range data {
		switch b {
		case 0, '\n':
			// dropped
		case '\r':
			line := string(s.line)
			s.line = s.line[:0]
			s.write("\r\n")
			if s.dispatch(line) {
				return true
			}
			s.write(prompt)
		case '\b', 0x7f:
			if len(s.line) > 0 {
				s.line = s.line[:len(s.line)-1]
				s.write("\b \b")
			}
		default:
			if len(s.line) >= maxLineBytes {
				s.write("Input line too long\r\n")
				s.line = s.line[:0]
				continue
			}
			s.line = append(s.line, b)
			s.write(string(b))
		}
	}
	return false
}

func (s *Session) write(str string) {
	_, _ = s.conn.Write([]byte(str))
}

// dispatch parses and runs one command line, returning true if the
// session should close (spec.md §4.8 "process_input_line").
func (s *Session) dispatch(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "exit", "quit":
		return true
	case "help":
		s.write(helpText)
	case "version":
		s.write(version.String() + "\r\n")
	case "showport":
		s.showPort(args, false)
	case "showshortport":
		s.showPort(args, true)
	case "monitor":
		s.monitor(args)
	case "disconnect":
		s.disconnect(args)
	case "setporttimeout":
		s.setPortTimeout(args)
	case "setportenable":
		s.setPortEnable(args)
	case "setportconfig":
		s.setPortConfig(args)
	case "setportcontrol":
		s.setPortControl(args)
	default:
		s.write(fmt.Sprintf("Unknown command: %s\r\n", cmd))
	}
	return false
}

func (s *Session) portOrAll(spec string) []string {
	if spec != "" {
		return []string{spec}
	}
	return s.ctrl.reg.Names()
}

func (s *Session) showPort(args []string, short bool) {
	var spec string
	if len(args) > 0 {
		spec = args[0]
	}
	names := s.portOrAll(spec)
	sort.Strings(names)

	for _, name := range names {
		p, ok := s.ctrl.reg.Get(name)
		if !ok {
			s.write(fmt.Sprintf("unknown port: %s\r\n", name))
			continue
		}
		st := p.Status()
		if short {
			// Column order and the tcp/dev receive-vs-send split follow
			// original_source/dataxfer.c's showshortport: name, enable,
			// timeout, peer, devname, tcp-to-dev state, dev-to-tcp state,
			// then the four byte counters.
			s.write(fmt.Sprintf("%-10s %-6s %7d %-22s %-12s %-14s %-14s %9d %9d %9d %9d\r\n",
				st.PortName, st.Enable.String(), st.Timeout, st.Peer, st.DevName,
				st.TCPState.String(), st.DevState.String(),
				st.TCPBytesReceived, st.TCPBytesSent,
				st.DevBytesReceived, st.DevBytesSent))
		} else {
			s.write(color.CyanString("port %s:\r\n", st.PortName))
			s.write(fmt.Sprintf("  device:   %s\r\n", st.DevName))
			s.write(fmt.Sprintf("  enable:   %s\r\n", st.Enable.String()))
			s.write(fmt.Sprintf("  timeout:  %d\r\n", st.Timeout))
			s.write(fmt.Sprintf("  tcp:      %s\r\n", st.TCPState.String()))
			s.write(fmt.Sprintf("  dev:      %s\r\n", st.DevState.String()))
			s.write(fmt.Sprintf("  peer:     %s\r\n", st.Peer))
			s.write(fmt.Sprintf("  serial:   %s\r\n", st.SerialParms))
			s.write(fmt.Sprintf("  bytes:    tcp-recv=%d tcp-sent=%d dev-recv=%d dev-sent=%d\r\n",
				st.TCPBytesReceived, st.TCPBytesSent, st.DevBytesReceived, st.DevBytesSent))
		}
	}
}

func (s *Session) monitor(args []string) {
	if len(args) == 1 && args[0] == "stop" {
		s.stopMonitor()
		s.write("monitor stopped\r\n")
		return
	}
	if len(args) != 2 || (args[0] != "tcp" && args[0] != "term") {
		s.write("usage: monitor tcp|term <portname>\r\n")
		return
	}
	p, ok := s.ctrl.reg.Get(args[1])
	if !ok {
		s.write(fmt.Sprintf("unknown port: %s\r\n", args[1]))
		return
	}
	s.stopMonitor()
	p.SetMonitor(args[0], s)
	s.monitorDir = args[0]
	s.monitorTarget = args[1]
	s.monitorPort = p
	s.write(fmt.Sprintf("monitoring %s on %s\r\n", args[0], args[1]))
}

func (s *Session) disconnect(args []string) {
	if len(args) != 1 {
		s.write("usage: disconnect <portname>\r\n")
		return
	}
	p, ok := s.ctrl.reg.Get(args[0])
	if !ok {
		s.write(fmt.Sprintf("unknown port: %s\r\n", args[0]))
		return
	}
	p.Shutdown(port.ReasonDisconnect)
	s.write("ok\r\n")
}

func (s *Session) setPortTimeout(args []string) {
	if len(args) != 2 {
		s.write("usage: setporttimeout <portname> <seconds>\r\n")
		return
	}
	p, ok := s.ctrl.reg.Get(args[0])
	if !ok {
		s.write(fmt.Sprintf("unknown port: %s\r\n", args[0]))
		return
	}
	secs, err := strconv.Atoi(args[1])
	if err != nil {
		s.write("seconds must be an integer\r\n")
		return
	}
	if err := p.SetTimeout(secs); err != nil {
		s.write(err.Error() + "\r\n")
		return
	}
	s.write("ok\r\n")
}

func (s *Session) setPortEnable(args []string) {
	if len(args) != 2 {
		s.write("usage: setportenable <portname> off|raw|rawlp|telnet\r\n")
		return
	}
	p, ok := s.ctrl.reg.Get(args[0])
	if !ok {
		s.write(fmt.Sprintf("unknown port: %s\r\n", args[0]))
		return
	}
	mode, ok := port.ParseEnableMode(args[1])
	if !ok {
		s.write("unknown enable mode\r\n")
		return
	}
	if err := p.SetEnable(mode); err != nil {
		s.write(err.Error() + "\r\n")
		return
	}
	s.write("ok\r\n")
}

func (s *Session) setPortConfig(args []string) {
	if len(args) < 2 {
		s.write("usage: setportconfig <portname> <devcfg...>\r\n")
		return
	}
	p, ok := s.ctrl.reg.Get(args[0])
	if !ok {
		s.write(fmt.Sprintf("unknown port: %s\r\n", args[0]))
		return
	}
	if err := p.Reconfig(args[1:]); err != nil {
		s.write(err.Error() + "\r\n")
		return
	}
	s.write("ok\r\n")
}

func (s *Session) setPortControl(args []string) {
	if len(args) < 2 {
		s.write("usage: setportcontrol <portname> <controls...>\r\n")
		return
	}
	p, ok := s.ctrl.reg.Get(args[0])
	if !ok {
		s.write(fmt.Sprintf("unknown port: %s\r\n", args[0]))
		return
	}
	if err := p.SetDevControl(args[1:]); err != nil {
		s.write(err.Error() + "\r\n")
		return
	}
	s.write("ok\r\n")
}
