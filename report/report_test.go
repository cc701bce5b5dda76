/*
Copyright © 2024 the isisengine authors.
This file is part of isisengine.

isisengine is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

isisengine is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with isisengine.  If not, see <http://www.gnu.org/licenses/>.*/

package report

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestMessageSuppressedBelowCutoff(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	r := New(log, Warn)

	r.Infof("this should not print")
	if buf.Len() != 0 {
		t.Fatalf("expected INFO to be suppressed below a WARN cutoff, got %q", buf.String())
	}

	r.Warnf("this should print")
	if buf.Len() == 0 {
		t.Fatal("expected WARN to print at a WARN cutoff")
	}
}

func TestSeverityString(t *testing.T) {
	cases := map[Severity]string{Info: "INFO", Warn: "WARN", Fail: "FAIL", Intr: "INTR", Fatal: "FATAL"}
	for sev, want := range cases {
		if got := sev.String(); got != want {
			t.Fatalf("Severity(%d).String() = %q, want %q", sev, got, want)
		}
	}
}
