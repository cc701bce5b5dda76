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

// Package emisstore is the emissivity store of spec.md §4.3 (component C3):
// a sparse, possibly non-rectangular grid of (temperature, density) points,
// each backed by a line-emissivity block and an optional continuum block,
// loaded lazily or held resident via github.com/ctessum/requestcache the way
// the teacher's sr.Reader caches SR-matrix records (sr/srreader.go).
package emisstore

import (
	"github.com/ctessum/sparse"

	"github.com/specmodel/isisengine/tablesrc"
)

// FilemapRow is one (T, nₑ) grid point known to a Store, plus where its
// emissivity data lives.
type FilemapRow struct {
	T, Ne   float64
	Locator tablesrc.Locator
}

// LineEmis is a single line's emissivity value at one grid point, resolved
// to a stable atomdb line index.
type LineEmis struct {
	LineIndex int
	Value     float64
}

// LineBlock is the resolved line-emissivity data for one grid point.
// Lookup maps an atomdb line index to its position in Entries; a line with
// no emissivity datum at this grid point has no key (spec.md §4.3's
// "missing lines are common and not an error").
type LineBlock struct {
	Entries []LineEmis
	Lookup  map[int]int
}

// ValueForLine returns the emissivity of lineIndex at this grid point, and
// whether that line has data here at all.
func (b *LineBlock) ValueForLine(lineIndex int) (float64, bool) {
	if b == nil {
		return 0, false
	}
	pos, ok := b.Lookup[lineIndex]
	if !ok {
		return 0, false
	}
	return b.Entries[pos].Value, true
}

// ContinuumRecord is one ion's (or sentinel sum's) continuum contribution at
// one grid point. Q=-1 with Z>0 means "sum over ion stages of element Z";
// Z=0,Q=-1 means "sum over every element", per spec.md §3.
type ContinuumRecord struct {
	Z, Q                         int
	ETrue, VTrue                 []float64
	EPseudo, VPseudo             []float64
}

// ContinuumBlock is the resolved continuum data for one grid point.
type ContinuumBlock struct {
	Records []ContinuumRecord
}

// ForIon returns the continuum record for ion (Z, Q), if present.
func (b *ContinuumBlock) ForIon(z, q int) (ContinuumRecord, bool) {
	if b == nil {
		return ContinuumRecord{}, false
	}
	for _, r := range b.Records {
		if r.Z == z && r.Q == q {
			return r, true
		}
	}
	return ContinuumRecord{}, false
}

// AbundanceTable is one named element-abundance set (log10 relative to
// H=12.00), addressable by integer id for the "chosen"/"standard" selection
// protocol of spec.md §4.5.
type AbundanceTable struct {
	ID    int
	Name  string
	Abund map[string]float64 // element symbol -> log10 abundance
}

// Get returns the log10 abundance of element symbol, or (0, false) if the
// table carries no entry for it.
func (t *AbundanceTable) Get(symbol string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	v, ok := t.Abund[symbol]
	return v, ok
}

// IonFractionTable is one packed ion-population-fraction grid: for each
// entry of Temperature, the fraction of element ZElement[e] in each of its
// ion stages, flattened per spec.md §4.5's "density is tabulated but this
// engine interpolates in temperature only" decision (see SPEC_FULL.md §14).
type IonFractionTable struct {
	Name         string
	Temperature  []float64
	ZElement     []int
	IonsPerElem  map[int]int        // Z -> number of ion stages tabulated
	offsetOfElem map[int]int        // Z -> starting column in XIonPop rows
	XIonPop      *sparse.DenseArray // shape [len(Temperature)][cols], packed by element then ion stage
	warnedNoDens bool
}
