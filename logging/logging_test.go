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

package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestEntryLogsMessageAndFields(t *testing.T) {
	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	fn := New(base)
	fn().Entry(logrus.InfoLevel, "port %s accepted", "2000").Field("peer", "10.0.0.5").Log()

	out := buf.String()
	if !strings.Contains(out, "port 2000 accepted") {
		t.Fatalf("expected formatted message in output, got %q", out)
	}
	if !strings.Contains(out, "peer=10.0.0.5") {
		t.Fatalf("expected field in output, got %q", out)
	}
}

func TestErrorAddOnlyAttachesWhenConditionTrue(t *testing.T) {
	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	fn := New(base)
	fn().Entry(logrus.ErrorLevel, "setup failed").ErrorAdd(true, errors.New("boom")).Log()
	fn().Entry(logrus.ErrorLevel, "setup ok").ErrorAdd(false, errors.New("should not appear")).Log()

	out := buf.String()
	if !strings.Contains(out, "error=boom") {
		t.Fatalf("expected error field when condition true, got %q", out)
	}
	if strings.Contains(out, "should not appear") {
		t.Fatalf("did not expect error field when condition false, got %q", out)
	}
}
