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

// Package interp is the interpolator of spec.md §4.4 (component C4):
// locating the grid points bracketing a requested (T, nₑ) and combining
// their line- and continuum-emissivity blocks into one result, in the
// teacher's style of small composable numeric helpers (science.go). The
// arithmetic is plain scalar Go; this package does not import gonum/floats.
package interp

import (
	"fmt"
	"math"
	"sort"

	"github.com/specmodel/isisengine/emisstore"
)

// Corner is one tabulated (T, nₑ) grid point selected to interpolate a
// query point, with its interpolation weight.
type Corner struct {
	Row    emisstore.FilemapRow
	Weight float64
}

// SelectCorners implements spec.md §4.4's three-way branch: pure
// temperature interpolation when the grid has only one density, pure
// density interpolation when it has only one temperature, and bilinear
// nearest-neighbor-quadrant interpolation otherwise.
func SelectCorners(rows []emisstore.FilemapRow, numTemps, numDensities int, T, Ne float64) ([]Corner, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("interp: empty grid")
	}
	switch {
	case numDensities <= 1:
		return select1D(rows, T, func(r emisstore.FilemapRow) float64 { return r.T })
	case numTemps <= 1:
		return select1D(rows, Ne, func(r emisstore.FilemapRow) float64 { return r.Ne })
	default:
		return selectBilinear(rows, T, Ne)
	}
}

// select1D brackets x within the values produced by axis across rows
// (rows sorted internally by that axis), per spec.md §4.4 steps 1-2:
// clamped symmetric (0.5, 0.5) weighting outside the tabulated range.
func select1D(rows []emisstore.FilemapRow, x float64, axis func(emisstore.FilemapRow) float64) ([]Corner, error) {
	sorted := append([]emisstore.FilemapRow(nil), rows...)
	sort.Slice(sorted, func(i, j int) bool { return axis(sorted[i]) < axis(sorted[j]) })

	n := len(sorted)
	if n == 1 {
		return []Corner{{Row: sorted[0], Weight: 1}}, nil
	}
	// idx is the first index strictly greater than x; every element before
	// it is <= x, so idx-1 is the bracket's lower corner.
	idx := sort.Search(n, func(k int) bool { return axis(sorted[k]) > x })
	i := idx - 1
	if i < 0 {
		if x < axis(sorted[0]) {
			return []Corner{{Row: sorted[0], Weight: 0.5}, {Row: sorted[1], Weight: 0.5}}, nil
		}
		i = 0
	}
	if i >= n-1 {
		if x > axis(sorted[n-1]) {
			return []Corner{{Row: sorted[n-2], Weight: 0.5}, {Row: sorted[n-1], Weight: 0.5}}, nil
		}
		i = n - 2
	}
	x0, x1 := axis(sorted[i]), axis(sorted[i+1])
	p := (x - x0) / (x1 - x0)
	return []Corner{
		{Row: sorted[i], Weight: 1 - p},
		{Row: sorted[i+1], Weight: p},
	}, nil
}

// selectBilinear implements spec.md §4.4 step 3: classify every tabulated
// point into one of four log-space quadrants around (T, nₑ), keep the
// nearest point in each, and solve for bilinear weights from the four
// selected corners.
func selectBilinear(rows []emisstore.FilemapRow, T, Ne float64) ([]Corner, error) {
	type best struct {
		row   emisstore.FilemapRow
		d2    float64
		found bool
	}
	var quad [4]best // 0: dx<0,dy<0  1: dx<0,dy>=0  2: dx>=0,dy<0  3: dx>=0,dy>=0

	for _, r := range rows {
		dx := math.Log(T / r.T)
		dy := math.Log(Ne / r.Ne)
		q := 0
		if dx >= 0 {
			q |= 2
		}
		if dy >= 0 {
			q |= 1
		}
		d2 := dx*dx + dy*dy
		if !quad[q].found || d2 < quad[q].d2 {
			quad[q] = best{row: r, d2: d2, found: true}
		}
	}
	for q, b := range quad {
		if !b.found {
			return nil, fmt.Errorf("interp: no grid point found in quadrant %d around T=%g Ne=%g: %w", q, T, Ne, errDatabaseCorruption)
		}
	}

	// quad indices encode (dx>=0)<<1 | (dy>=0); dx>=0 means the corner's T
	// is at or below target (a "lower-T" corner), dy>=0 means its nₑ is at
	// or below target. So: 0=(upperT,upperNe) 1=(upperT,lowerNe)
	// 2=(lowerT,upperNe) 3=(lowerT,lowerNe).
	tLo, tHi := quad[3].row.T, quad[0].row.T
	if quad[2].row.T < tLo {
		tLo = quad[2].row.T
	}
	if quad[1].row.T > tHi {
		tHi = quad[1].row.T
	}
	neLo, neHi := quad[3].row.Ne, quad[0].row.Ne
	if quad[1].row.Ne < neLo {
		neLo = quad[1].row.Ne
	}
	if quad[2].row.Ne > neHi {
		neHi = quad[2].row.Ne
	}
	if tHi <= tLo || neHi <= neLo {
		return nil, fmt.Errorf("interp: degenerate bilinear corner set around T=%g Ne=%g: %w", T, Ne, errDatabaseCorruption)
	}
	pt := (math.Log(T) - math.Log(tLo)) / (math.Log(tHi) - math.Log(tLo))
	pn := (math.Log(Ne) - math.Log(neLo)) / (math.Log(neHi) - math.Log(neLo))
	if pt < 0 || pt > 1 || pn < 0 || pn > 1 {
		return nil, fmt.Errorf("interp: bilinear fraction out of [0,1] around T=%g Ne=%g: %w", T, Ne, errDatabaseCorruption)
	}

	return []Corner{
		{Row: quad[0].row, Weight: pt * pn},
		{Row: quad[1].row, Weight: pt * (1 - pn)},
		{Row: quad[2].row, Weight: (1 - pt) * pn},
		{Row: quad[3].row, Weight: (1 - pt) * (1 - pn)},
	}, nil
}
