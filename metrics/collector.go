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

// Package metrics exposes per-port byte counters and connection state as
// Prometheus metrics, pulled live from a registry on every scrape rather
// than pushed incrementally, so a metric always reflects the port's
// actual current Status() (spec.md's byte counters are cumulative for a
// port's whole lifetime, not reset on reconnect).
package metrics

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/process"

	"github.com/chenwaichung/ser2net/port"
	"github.com/chenwaichung/ser2net/registry"
)

// Collector implements prometheus.Collector over a *registry.Registry.
type Collector struct {
	reg *registry.Registry
	// proc is nil if gopsutil couldn't resolve the running process (e.g.
	// /proc is unavailable); Collect then simply skips the process gauges.
	proc *process.Process

	bytesDevToTCP *prometheus.Desc
	bytesTCPToDev *prometheus.Desc
	connected     *prometheus.Desc
	enabled       *prometheus.Desc

	procCPUPercent *prometheus.Desc
	procRSSBytes   *prometheus.Desc
}

// NewCollector builds a Collector reading live state from reg.
func NewCollector(reg *registry.Registry) *Collector {
	labels := []string{"port", "device"}

	proc, _ := process.NewProcess(int32(os.Getpid()))

	return &Collector{
		reg:  reg,
		proc: proc,
		bytesDevToTCP: prometheus.NewDesc(
			"serialmux_bytes_dev_to_tcp_total",
			"Cumulative bytes relayed from the serial device to the TCP peer.",
			labels, nil,
		),
		bytesTCPToDev: prometheus.NewDesc(
			"serialmux_bytes_tcp_to_dev_total",
			"Cumulative bytes relayed from the TCP peer to the serial device.",
			labels, nil,
		),
		connected: prometheus.NewDesc(
			"serialmux_port_connected",
			"1 if the port currently has an active TCP session, 0 otherwise.",
			labels, nil,
		),
		enabled: prometheus.NewDesc(
			"serialmux_port_enabled",
			"1 if the port's enable mode is not off, 0 otherwise.",
			labels, nil,
		),
		procCPUPercent: prometheus.NewDesc(
			"serialmux_process_cpu_percent",
			"CPU usage of the gateway process since the previous scrape, as reported by gopsutil.",
			nil, nil,
		),
		procRSSBytes: prometheus.NewDesc(
			"serialmux_process_rss_bytes",
			"Resident set size of the gateway process, as reported by gopsutil.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.bytesDevToTCP
	ch <- c.bytesTCPToDev
	ch <- c.connected
	ch <- c.enabled
	ch <- c.procCPUPercent
	ch <- c.procRSSBytes
}

// Collect implements prometheus.Collector, walking every registered port
// and emitting its current snapshot.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.reg.Walk(func(_ string, p *port.Port) bool {
		st := p.Status()

		ch <- prometheus.MustNewConstMetric(c.bytesDevToTCP, prometheus.CounterValue,
			float64(st.BytesDevToTCP), st.PortName, st.DevName)
		ch <- prometheus.MustNewConstMetric(c.bytesTCPToDev, prometheus.CounterValue,
			float64(st.BytesTCPToDev), st.PortName, st.DevName)

		connectedVal := 0.0
		if st.TCPState != port.Unconnected {
			connectedVal = 1.0
		}
		ch <- prometheus.MustNewConstMetric(c.connected, prometheus.GaugeValue,
			connectedVal, st.PortName, st.DevName)

		enabledVal := 0.0
		if st.Enable != port.Disabled {
			enabledVal = 1.0
		}
		ch <- prometheus.MustNewConstMetric(c.enabled, prometheus.GaugeValue,
			enabledVal, st.PortName, st.DevName)

		return true
	})

	if c.proc == nil {
		return
	}
	if pct, err := c.proc.CPUPercent(); err == nil {
		ch <- prometheus.MustNewConstMetric(c.procCPUPercent, prometheus.GaugeValue, pct)
	}
	if mi, err := c.proc.MemoryInfo(); err == nil && mi != nil {
		ch <- prometheus.MustNewConstMetric(c.procRSSBytes, prometheus.GaugeValue, float64(mi.RSS))
	}
}
