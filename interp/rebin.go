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

package interp

import "sort"

// trapezoid returns the area under the line through (x0,y0)-(x1,y1)
// between a and b, where x0 <= a <= b <= x1.
func trapezoid(x0, y0, x1, y1, a, b float64) float64 {
	if x1 == x0 {
		return 0
	}
	slope := (y1 - y0) / (x1 - x0)
	ya := y0 + slope*(a-x0)
	yb := y0 + slope*(b-x0)
	return 0.5 * (ya + yb) * (b - a)
}

// RebinPiecewiseLinear integrates the piecewise-linear table (x, y)
// (x strictly ascending) against the bins (lo[k], hi[k]), per spec.md
// §4.4's rebinning algorithm: bracket each bin edge in the source table,
// sum the partial-interval/full-interval/partial-interval contributions,
// and divide by the bin width if wantAvg is set. Bins entirely outside the
// source grid produce zero.
func RebinPiecewiseLinear(x, y []float64, lo, hi []float64, wantAvg bool) []float64 {
	out := make([]float64, len(lo))
	if len(x) < 2 {
		return out
	}
	xMin, xMax := x[0], x[len(x)-1]

	for k := range lo {
		a, b := lo[k], hi[k]
		if b <= xMin || a >= xMax || a >= b {
			continue
		}
		if a < xMin {
			a = xMin
		}
		if b > xMax {
			b = xMax
		}

		i := sort.Search(len(x), func(j int) bool { return x[j] > a }) - 1
		if i < 0 {
			i = 0
		}
		j := sort.Search(len(x), func(j int) bool { return x[j] >= b }) - 1
		if j >= len(x)-1 {
			j = len(x) - 2
		}

		var area float64
		if i == j {
			area = trapezoid(x[i], y[i], x[i+1], y[i+1], a, b)
		} else {
			area = trapezoid(x[i], y[i], x[i+1], y[i+1], a, x[i+1])
			for m := i + 1; m < j; m++ {
				area += trapezoid(x[m], y[m], x[m+1], y[m+1], x[m], x[m+1])
			}
			area += trapezoid(x[j], y[j], x[j+1], y[j+1], x[j], b)
		}
		if wantAvg {
			area /= hi[k] - lo[k]
		}
		out[k] = area
	}
	return out
}
