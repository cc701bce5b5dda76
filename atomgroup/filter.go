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

// Package atomgroup is the line grouping subsystem (C2): named, mutable
// sets of non-owning references into an atomdb.Database, supporting filter
// predicates, set-algebra edits, and derived queries (k-brightest,
// unblended subset).
//
// Grounded on the teacher's list.go (cellList: an owning container holding
// non-owning *Cell references plus an index map for O(1) membership
// lookups) for the group/table shape, and on the original ISIS
// db-atomic.c's DBf_* filter family for the predicate kinds.
package atomgroup

import "github.com/specmodel/isisengine/atomdb"

// Filter is a predicate over a line. The supported kinds mirror the
// original DBf_wavelength / DBf_flux / DBf_el_ion / DBf_trans filters.
type Filter interface {
	Match(l *atomdb.Line) bool
}

// WavelengthFilter matches lines with wavelength in the half-open range
// [Min, Max).
type WavelengthFilter struct {
	Min, Max float64
}

// Match implements Filter.
func (f WavelengthFilter) Match(l *atomdb.Line) bool {
	return l.Wavelength >= f.Min && l.Wavelength < f.Max
}

// FluxFilter matches lines with flux in the half-open range [Min, Max).
type FluxFilter struct {
	Min, Max float64
}

// Match implements Filter.
func (f FluxFilter) Match(l *atomdb.Line) bool {
	return l.Flux >= f.Min && l.Flux < f.Max
}

// ElementIonFilter matches lines whose element is in Z (or any element if Z
// is empty) AND whose ion charge is in Q (or any charge if Q is empty).
type ElementIonFilter struct {
	Z, Q []int
}

// Match implements Filter.
func (f ElementIonFilter) Match(l *atomdb.Line) bool {
	if len(f.Z) > 0 && !containsInt(f.Z, l.Z) {
		return false
	}
	if len(f.Q) > 0 && !containsInt(f.Q, l.Q) {
		return false
	}
	return true
}

// TransitionFilter fixes (Z, Q) and matches lines whose upper level is in
// Upper (or any, if empty) AND whose lower level is in Lower (or any, if
// empty).
type TransitionFilter struct {
	Z, Q         int
	Upper, Lower []int
}

// Match implements Filter.
func (f TransitionFilter) Match(l *atomdb.Line) bool {
	if l.Z != f.Z || l.Q != f.Q {
		return false
	}
	if len(f.Upper) > 0 && !containsInt(f.Upper, l.Upper) {
		return false
	}
	if len(f.Lower) > 0 && !containsInt(f.Lower, l.Lower) {
		return false
	}
	return true
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// Apply scans every line in db and returns a byte mask of length
// db.GetNLines(), 1 where f matches and 0 elsewhere.
func Apply(db *atomdb.Database, f Filter) []byte {
	n := db.GetNLines()
	mask := make([]byte, n)
	for i := 0; i < n; i++ {
		if f.Match(db.GetLineFromIndex(i)) {
			mask[i] = 1
		}
	}
	return mask
}
