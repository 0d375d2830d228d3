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

// Package buffer implements the contiguous byte buffer used on both sides
// of a port's relay pipeline (tcp->dev and dev->tcp). It tracks a read
// cursor (pos) and the amount of unflushed data (cursize) inside a
// fixed-capacity backing array, and knows how to drain itself into a Sink
// without ever reallocating.
package buffer

import "errors"

// ErrSinkClosed is returned by a Sink implementation to indicate the
// underlying fd/conn is gone; Write propagates it as-is.
var ErrSinkClosed = errors.New("buffer: sink closed")

// Sink is anything a Buffer can drain itself into. It mirrors the
// semantics of io.Writer but must never block: it returns (0, nil) on
// would-block instead of an error, exactly like a non-blocking fd write.
type Sink interface {
	// Send attempts to write up to len(p) bytes starting at p[0].
	// A would-block condition is reported as (0, nil), never as an error.
	Send(p []byte) (n int, err error)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(p []byte) (int, error)

func (f SinkFunc) Send(p []byte) (int, error) { return f(p) }

// Buffer is a contiguous byte buffer with a read cursor and a logical
// size. Zero value is not usable; call Init first.
type Buffer struct {
	buf     []byte
	pos     int
	cursize int
	maxsize int
}

// New allocates a Buffer with the given backing capacity, equivalent to
// calling Init on a zero-value Buffer.
func New(maxsize int) *Buffer {
	b := &Buffer{}
	b.Init(maxsize)
	return b
}

// Init (re)allocates the backing array to maxsize and resets the cursor.
func (b *Buffer) Init(maxsize int) {
	b.buf = make([]byte, maxsize)
	b.pos = 0
	b.cursize = 0
	b.maxsize = maxsize
}

// Reset drops any buffered content without touching the backing array.
func (b *Buffer) Reset() {
	b.pos = 0
	b.cursize = 0
}

// Bytes returns the unconsumed window [pos, pos+cursize) into the backing
// array. Callers must not retain the slice across a Write call that may
// shift pos.
func (b *Buffer) Bytes() []byte { return b.buf[b.pos : b.pos+b.cursize] }

// Raw returns the whole backing array, for callers (the relay path) that
// need to append past cursize directly, e.g. `buf.Raw()[buf.CurSize():]`.
func (b *Buffer) Raw() []byte { return b.buf }

// Pos returns the current read cursor.
func (b *Buffer) Pos() int { return b.pos }

// SetPos forcibly repositions the read cursor; used by callers that filled
// the tail of the backing array directly via Raw() and need pos reset to 0
// before Commit.
func (b *Buffer) SetPos(p int) { b.pos = p }

// CurSize returns the number of unconsumed bytes.
func (b *Buffer) CurSize() int { return b.cursize }

// MaxSize returns the backing array capacity.
func (b *Buffer) MaxSize() int { return b.maxsize }

// Room returns how many bytes can still be appended past cursize without
// growing the backing array (maxsize - cursize).
func (b *Buffer) Room() int { return b.maxsize - b.cursize }

// Full reports whether the buffer has no room left to accept more bytes.
func (b *Buffer) Full() bool { return b.cursize >= b.maxsize }

// Empty reports whether the buffer currently holds no unconsumed bytes.
func (b *Buffer) Empty() bool { return b.cursize == 0 }

// Commit grows cursize by n, used after the caller has written n bytes of
// fresh data into Raw()[pos+cursize:]. Callers are expected to have reset
// pos to 0 first when cursize was 0 (mirrors the C "if cursize==0, pos=0
// before refill" contract from spec.md §4.1).
func (b *Buffer) Commit(n int) { b.cursize += n }

// Write attempts to drain up to cursize bytes, starting at pos, into sink.
// On success it advances pos/cursize by the accepted amount and returns
// the number of bytes written. A would-block Send (0, nil) leaves pos and
// cursize untouched and returns (0, nil). A Send error is returned as-is;
// pos/cursize reflect whatever partial progress was made before the error.
func (b *Buffer) Write(sink Sink) (int, error) {
	if b.cursize == 0 {
		return 0, nil
	}

	n, err := sink.Send(b.buf[b.pos : b.pos+b.cursize])
	if n > 0 {
		b.pos += n
		b.cursize -= n
	}
	if err != nil {
		return n, err
	}
	return n, nil
}

// Drained reports whether the buffer has been fully written out and its
// cursor can be recycled to the start of the backing array.
func (b *Buffer) Drained() bool { return b.cursize == 0 }

// Compact resets pos to 0 once cursize has reached 0; calling it while
// cursize > 0 is a caller bug and is a no-op to stay safe.
func (b *Buffer) Compact() {
	if b.cursize == 0 {
		b.pos = 0
	}
}
