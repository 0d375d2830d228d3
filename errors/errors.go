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

// Package errors gives every component a CodeError-classified error type
// with optional parent chaining, instead of ad-hoc fmt.Errorf wrapping.
// Codes are registered per package against a reserved numeric range so
// log output and control-plane error text can carry a stable short code
// alongside the human message.
package errors

import "fmt"

// CodeError is a small numeric classification, analogous to an HTTP
// status code, attached to every Error this package creates.
type CodeError uint16

const UnknownError CodeError = 0

// Message renders the human-readable text for a CodeError.
type Message func(code CodeError) string

var registry = make(map[CodeError]Message)

// RegisterIdFctMessage registers fct as the message source for every code
// >= minCode up to (but not including) the next registered minCode. Each
// package calls this once, at init, with its own reserved range's base.
func RegisterIdFctMessage(minCode CodeError, fct Message) {
	registry[minCode] = fct
}

// ExistInMapMessage reports whether some registered range claims code.
func ExistInMapMessage(code CodeError) bool {
	_, _, ok := lookup(code)
	return ok
}

func lookup(code CodeError) (Message, CodeError, bool) {
	var bestBase CodeError
	var best Message
	found := false
	for base, fct := range registry {
		if code >= base && (!found || base > bestBase) {
			bestBase, best, found = base, fct, true
		}
	}
	return best, bestBase, found
}

// Error extends the standard error with a code and an optional parent
// chain, letting callers branch on .Code() without string-matching
// messages.
type Error interface {
	error
	Code() CodeError
	HasParent() bool
	Parent() Error
	Is(code CodeError) bool
}

type codeErr struct {
	code   CodeError
	msg    string
	parent Error
}

// New builds an Error with code and msg, optionally wrapping parent (pass
// nil for none).
func New(code CodeError, msg string, parent error) Error {
	e := &codeErr{code: code, msg: msg}
	if parent != nil {
		if pe, ok := parent.(Error); ok {
			e.parent = pe
		} else {
			e.parent = &codeErr{code: UnknownError, msg: parent.Error()}
		}
	}
	return e
}

// Newf is New with fmt.Sprintf-style message formatting.
func Newf(code CodeError, parent error, format string, args ...interface{}) Error {
	return New(code, fmt.Sprintf(format, args...), parent)
}

func (e *codeErr) Code() CodeError { return e.code }
func (e *codeErr) HasParent() bool { return e.parent != nil }
func (e *codeErr) Parent() Error   { return e.parent }

func (e *codeErr) Is(code CodeError) bool {
	for c := Error(e); c != nil; c = c.Parent() {
		if c.Code() == code {
			return true
		}
	}
	return false
}

func (e *codeErr) Error() string {
	msg := e.msg
	if msg == "" {
		if fct, _, ok := lookup(e.code); ok {
			msg = fct(e.code)
		}
	}
	if e.parent != nil {
		return fmt.Sprintf("[%d] %s: %s", e.code, msg, e.parent.Error())
	}
	return fmt.Sprintf("[%d] %s", e.code, msg)
}
