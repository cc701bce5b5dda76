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

// Package kahan provides numerically robust summation for long line lists
// and the monotonic-grid bin search the model evaluator uses to map a line
// wavelength onto a caller-supplied output grid. Kahan's algorithm is
// implemented here because gonum.org/v1/gonum/floats.Sum does not provide
// the compensated variant a model with thousands of faint lines needs to
// avoid catastrophic cancellation in its flux totals; callers that only need
// a plain reduction use floats directly instead of this package.
package kahan

import "sort"

// Summer accumulates float64 values using Kahan's compensated-summation
// algorithm, bounding the rounding error on a sum of n terms to roughly a
// constant few ULP regardless of n, instead of growing with n as naive
// accumulation does.
type Summer struct {
	sum float64
	c   float64 // running compensation for lost low-order bits
}

// Add adds v to the running sum.
func (s *Summer) Add(v float64) {
	y := v - s.c
	t := s.sum + y
	s.c = (t - s.sum) - y
	s.sum = t
}

// Sum returns the current compensated sum.
func (s *Summer) Sum() float64 {
	return s.sum
}

// Reset zeroes the accumulator.
func (s *Summer) Reset() {
	s.sum = 0
	s.c = 0
}

// Sum adds up vals using Kahan summation in one call.
func Sum(vals []float64) float64 {
	var s Summer
	for _, v := range vals {
		s.Add(v)
	}
	return s.Sum()
}

// FindBin returns the index i such that lo[i] <= x < hi[i], for monotonic
// ascending, non-overlapping bins lo[0..n), hi[0..n). Returns -1 if x falls
// outside every bin. Uses binary search since model grids can have
// thousands of bins and this is called once per line per component.
func FindBin(x float64, lo, hi []float64, n int) int {
	if n == 0 || x < lo[0] || x >= hi[n-1] {
		return -1
	}
	i := sort.Search(n, func(k int) bool { return hi[k] > x })
	if i < n && x >= lo[i] && x < hi[i] {
		return i
	}
	return -1
}
