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

// Package template expands the backslash-escape mini-language used for
// banners, open/close strings and trace filenames (spec.md §4.4).
package template

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Context supplies the values escapes may draw on. Filename controls
// whether \s expands to seconds (filename context) or serial-parms
// (banner/openstr context).
type Context struct {
	Device      string
	Port        string
	SerialParms string
	PeerIP      string
	When        time.Time
	Filename    bool
}

// Expand runs the two-pass algorithm described in spec.md §4.4: a
// counting pass to size the buffer, then a writing pass. Go's strings.Builder
// already grows on demand, so the counting pass here exists to preserve the
// original's cost model (no reallocation during the writing pass) rather
// than strict necessity, and to make Expand's behavior easy to reason about
// against the original two-pass C implementation.
func Expand(tpl string, ctx Context) string {
	n := countingPass(tpl, ctx)
	var b strings.Builder
	b.Grow(n)
	writingPass(&b, tpl, ctx)
	return b.String()
}

func countingPass(tpl string, ctx Context) int {
	var b strings.Builder
	writingPass(&b, tpl, ctx)
	return b.Len()
}

func writingPass(b *strings.Builder, tpl string, ctx Context) {
	for i := 0; i < len(tpl); i++ {
		c := tpl[i]
		if c != '\\' || i+1 >= len(tpl) {
			b.WriteByte(c)
			continue
		}
		next := tpl[i+1]
		switch next {
		case 'a':
			b.WriteByte('\a')
			i++
		case 'b':
			b.WriteByte('\b')
			i++
		case 'f':
			b.WriteByte('\f')
			i++
		case 'n':
			b.WriteByte('\n')
			i++
		case 'r':
			b.WriteByte('\r')
			i++
		case 't':
			b.WriteByte('\t')
			i++
		case 'v':
			b.WriteByte('\v')
			i++
		case '\\':
			b.WriteByte('\\')
			i++
		case '?':
			b.WriteByte('?')
			i++
		case '\'':
			b.WriteByte('\'')
			i++
		case '"':
			b.WriteByte('"')
			i++
		case 'x':
			i = writeHex(b, tpl, i)
		case '0', '1', '2', '3', '4', '5', '6', '7':
			i = writeOctal(b, tpl, i)
		case 'd':
			writeDevice(b, ctx)
			i++
		case 'p':
			b.WriteString(ctx.Port)
			i++
		case 's':
			if ctx.Filename {
				fmt.Fprintf(b, "%02d", ctx.When.Second())
			} else {
				b.WriteString(ctx.SerialParms)
			}
			i++
		case 'B':
			b.WriteString(ctx.SerialParms)
			i++
		case 'Y':
			fmt.Fprintf(b, "%04d", ctx.When.Year())
			i++
		case 'y':
			fmt.Fprintf(b, "%03d", ctx.When.YearDay())
			i++
		case 'M':
			b.WriteString(ctx.When.Month().String())
			i++
		case 'm':
			fmt.Fprintf(b, "%02d", int(ctx.When.Month()))
			i++
		case 'A':
			b.WriteString(ctx.When.Weekday().String())
			i++
		case 'D':
			fmt.Fprintf(b, "%02d", ctx.When.Day())
			i++
		case 'H':
			fmt.Fprintf(b, "%02d", ctx.When.Hour())
			i++
		case 'h':
			h := ctx.When.Hour() % 12
			if h == 0 {
				h = 12
			}
			fmt.Fprintf(b, "%02d", h)
			i++
		case 'i':
			fmt.Fprintf(b, "%02d", ctx.When.Minute())
			i++
		case 'S':
			fmt.Fprintf(b, "%02d", ctx.When.Second())
			i++
		case 'q':
			if ctx.When.Hour() < 12 {
				b.WriteString("am")
			} else {
				b.WriteString("pm")
			}
			i++
		case 'P':
			if ctx.When.Hour() < 12 {
				b.WriteString("AM")
			} else {
				b.WriteString("PM")
			}
			i++
		case 'T':
			fmt.Fprintf(b, "%02d:%02d:%02d", ctx.When.Hour(), ctx.When.Minute(), ctx.When.Second())
			i++
		case 'e':
			fmt.Fprintf(b, "%d", ctx.When.Unix())
			i++
		case 'U':
			fmt.Fprintf(b, "%06d", ctx.When.Nanosecond()/1000)
			i++
		case 'I':
			b.WriteString(ctx.PeerIP)
			i++
		default:
			// Unknown escape: pass the backslash and the following
			// character through literally.
			b.WriteByte(c)
		}
	}
}

func writeDevice(b *strings.Builder, ctx Context) {
	d := ctx.Device
	if ctx.Filename {
		if idx := strings.LastIndexByte(d, '/'); idx >= 0 {
			d = d[idx+1:]
		}
	}
	b.WriteString(d)
}

// writeHex consumes \xNN (1-2 hex digits) starting at i (the backslash
// position) and returns the index of the last consumed character.
func writeHex(b *strings.Builder, tpl string, i int) int {
	j := i + 2
	start := j
	for j < len(tpl) && j < start+2 && isHexDigit(tpl[j]) {
		j++
	}
	if j == start {
		b.WriteByte('x')
		return i + 1
	}
	v, _ := strconv.ParseUint(tpl[start:j], 16, 8)
	b.WriteByte(byte(v))
	return j - 1
}

// writeOctal consumes \NNN (1-3 octal digits) starting at i (the backslash
// position) and returns the index of the last consumed character.
func writeOctal(b *strings.Builder, tpl string, i int) int {
	j := i + 1
	start := j
	for j < len(tpl) && j < start+3 && tpl[j] >= '0' && tpl[j] <= '7' {
		j++
	}
	v, _ := strconv.ParseUint(tpl[start:j], 8, 8)
	b.WriteByte(byte(v))
	return j - 1
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
