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

package emisstore

import (
	"fmt"
	"sort"

	"github.com/ctessum/sparse"

	"github.com/specmodel/isisengine/tablesrc"
)

// newIonFractionTable packs tablesrc.IonFractionData into the per-element
// offset layout IonFractionTable.IonFraction expects, storing the grid
// itself in a sparse.DenseArray the way the teacher's sr.Reader holds its
// SR-matrix records (sr/srreader.go) rather than a slice of slices.
func newIonFractionTable(name string, data tablesrc.IonFractionData) *IonFractionTable {
	t := &IonFractionTable{
		Name:         name,
		Temperature:  data.Temperature,
		ZElement:     data.ZElement,
		IonsPerElem:  make(map[int]int),
		offsetOfElem: make(map[int]int),
	}
	offset := 0
	for _, z := range data.ZElement {
		ions := z + 1 // ion stages 0..Z
		t.IonsPerElem[z] = ions
		t.offsetOfElem[z] = offset
		offset += ions
	}

	rows := len(data.XIonPop)
	cols := offset
	if rows > 0 {
		cols = len(data.XIonPop[0])
	}
	t.XIonPop = sparse.ZerosDense(rows, cols)
	for i, row := range data.XIonPop {
		for j, v := range row {
			t.XIonPop.Set(v, i, j)
		}
	}
	return t
}

// IonFraction returns the fraction of element z in ionization stage q at
// temperature tKelvin, linearly interpolated in temperature between the two
// bracketing tabulated rows. If tKelvin falls outside the tabulated range it
// returns zero and reports the bounds via warn instead of clamping. Density
// is ignored: the tabulated grid spans density too, but this store only
// ever interpolates along temperature (see SPEC_FULL.md §14's Open Question
// decision); the first call against a table logs a one-time warning so the
// simplification is visible, not silent.
func (t *IonFractionTable) IonFraction(z, q int, tKelvin float64, warn func(string)) (float64, error) {
	if t == nil {
		return 0, fmt.Errorf("emisstore: no ion-fraction table")
	}
	if !t.warnedNoDens && warn != nil {
		warn(fmt.Sprintf("emisstore: ion-fraction table %q interpolates temperature only; density is ignored", t.Name))
		t.warnedNoDens = true
	}
	offset, ok := t.offsetOfElem[z]
	if !ok {
		return 0, fmt.Errorf("emisstore: ion-fraction table has no entry for element Z=%d", z)
	}
	nIons := t.IonsPerElem[z]
	if q < 0 || q >= nIons {
		return 0, fmt.Errorf("emisstore: ion stage q=%d out of range [0,%d) for Z=%d", q, nIons, z)
	}
	col := offset + q

	n := len(t.Temperature)
	if n == 0 {
		return 0, fmt.Errorf("emisstore: ion-fraction table has no temperature rows")
	}
	if tKelvin < t.Temperature[0] || tKelvin > t.Temperature[n-1] {
		if warn != nil {
			warn(fmt.Sprintf("emisstore: temperature %g K outside ion-fraction table %q's tabulated range [%g, %g] K",
				tKelvin, t.Name, t.Temperature[0], t.Temperature[n-1]))
		}
		return 0, nil
	}
	if tKelvin == t.Temperature[0] {
		return t.XIonPop.Get(0, col), nil
	}
	if tKelvin == t.Temperature[n-1] {
		return t.XIonPop.Get(n-1, col), nil
	}
	i := sort.Search(n, func(k int) bool { return t.Temperature[k] >= tKelvin })
	lo, hi := i-1, i
	t0, t1 := t.Temperature[lo], t.Temperature[hi]
	frac := (tKelvin - t0) / (t1 - t0)
	v0, v1 := t.XIonPop.Get(lo, col), t.XIonPop.Get(hi, col)
	return v0 + frac*(v1-v0), nil
}
