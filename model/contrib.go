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

// Package model is the model evaluator of spec.md §4.5 (component C5): it
// walks a plasma.Model's components, asks package interp for each
// component's interpolated line and continuum emissivity, and deposits the
// result onto a caller-supplied wavelength grid, applying the
// callable-with-captured-parameters qualifier protocol (profile,
// line-flux modifier, ion-balance modifier) in place of any host-language
// callback coupling.
package model

import "github.com/sirupsen/logrus"

// ContribFlag selects which physical contributions an Eval call deposits
// onto the output grid, per spec.md §4.5.
type ContribFlag int

const (
	// LinesAndContinuum deposits both lines and the full (true+pseudo) continuum.
	LinesAndContinuum ContribFlag = iota
	// Lines deposits only line emission.
	Lines
	// Contin deposits only the continuum (true+pseudo).
	Contin
	// ContinTrue deposits only the true continuum.
	ContinTrue
	// ContinPseudo deposits only the pseudo continuum.
	ContinPseudo
)

// normalize reverts an unrecognized flag value to LinesAndContinuum with a
// warning, per spec.md §4.5.
func normalize(flag ContribFlag, log logrus.FieldLogger) ContribFlag {
	switch flag {
	case LinesAndContinuum, Lines, Contin, ContinTrue, ContinPseudo:
		return flag
	default:
		if log != nil {
			log.Warnf("model: unrecognized contribution flag %d, reverting to LinesAndContinuum", flag)
		}
		return LinesAndContinuum
	}
}

func (f ContribFlag) wantsLines() bool {
	return f == LinesAndContinuum || f == Lines
}

func (f ContribFlag) wantsTrue() bool {
	return f == LinesAndContinuum || f == Contin || f == ContinTrue
}

func (f ContribFlag) wantsPseudo() bool {
	return f == LinesAndContinuum || f == Contin || f == ContinPseudo
}
