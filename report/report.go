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

// Package report is the ambient logging layer of SPEC_FULL.md §10: a thin
// severity-tagged wrapper over github.com/sirupsen/logrus (the library the
// rest of the package tree already takes its logrus.FieldLogger fields
// from), plus a verbosity cutoff so a caller embedding this engine in a
// scripting environment can suppress low-severity chatter the way
// spec.md §7 describes.
package report

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Severity mirrors spec.md §7's five-level taxonomy: INFO, WARN, FAIL,
// INTR (a cancellation was observed), FATAL.
type Severity int

const (
	Info Severity = iota
	Warn
	Fail
	Intr
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Fail:
		return "FAIL"
	case Intr:
		return "INTR"
	case Fatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Reporter prints severity-tagged messages through a logrus.FieldLogger,
// suppressing anything below Cutoff.
type Reporter struct {
	Log    logrus.FieldLogger
	Cutoff Severity
}

// New returns a Reporter over log (defaulting to logrus.StandardLogger()
// if nil) with the given verbosity cutoff.
func New(log logrus.FieldLogger, cutoff Severity) *Reporter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Reporter{Log: log, Cutoff: cutoff}
}

// Message emits msg at the given severity if it meets the cutoff.
func (r *Reporter) Message(sev Severity, msg string) {
	if sev < r.Cutoff {
		return
	}
	fields := r.Log.WithField("severity", sev.String())
	switch sev {
	case Info:
		fields.Info(msg)
	case Warn:
		fields.Warn(msg)
	case Fail, Intr:
		fields.Error(msg)
	case Fatal:
		fields.Fatal(msg)
	}
}

// Infof, Warnf, Failf, Intrf, and Fatalf are formatted convenience
// wrappers around Message.
func (r *Reporter) Infof(format string, args ...interface{}) {
	r.Message(Info, fmt.Sprintf(format, args...))
}
func (r *Reporter) Warnf(format string, args ...interface{}) {
	r.Message(Warn, fmt.Sprintf(format, args...))
}
func (r *Reporter) Failf(format string, args ...interface{}) {
	r.Message(Fail, fmt.Sprintf(format, args...))
}
func (r *Reporter) Intrf(format string, args ...interface{}) {
	r.Message(Intr, fmt.Sprintf(format, args...))
}
func (r *Reporter) Fatalf(format string, args ...interface{}) {
	r.Message(Fatal, fmt.Sprintf(format, args...))
}
