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

package kahan

import "testing"

func TestSumIsMoreAccurateThanNaiveForManySmallTerms(t *testing.T) {
	vals := make([]float64, 100000)
	for i := range vals {
		vals[i] = 1e-10
	}
	vals[0] = 1e6

	var naive float64
	for _, v := range vals {
		naive += v
	}
	want := 1e6 + 1e-10*99999
	got := Sum(vals)

	if diff := got - want; diff > 1e-4 || diff < -1e-4 {
		t.Fatalf("Sum() = %v, want %v (within 1e-4)", got, want)
	}
	gotErr, naiveErr := got-want, naive-want
	if gotErr < 0 {
		gotErr = -gotErr
	}
	if naiveErr < 0 {
		naiveErr = -naiveErr
	}
	if gotErr > naiveErr {
		t.Fatalf("Sum() error %v exceeds naive summation error %v", gotErr, naiveErr)
	}
}

func TestSummerResetZeroesAccumulator(t *testing.T) {
	var s Summer
	s.Add(5)
	s.Add(3)
	s.Reset()
	if s.Sum() != 0 {
		t.Fatalf("Sum() after Reset = %v, want 0", s.Sum())
	}
}

func TestFindBinLocatesContainingBin(t *testing.T) {
	lo := []float64{0, 1, 2, 3}
	hi := []float64{1, 2, 3, 4}
	cases := []struct {
		x    float64
		want int
	}{
		{-0.5, -1},
		{0, 0},
		{0.999, 0},
		{1, 1},
		{3.5, 3},
		{4, -1},
		{100, -1},
	}
	for _, c := range cases {
		if got := FindBin(c.x, lo, hi, len(lo)); got != c.want {
			t.Errorf("FindBin(%v) = %d, want %d", c.x, got, c.want)
		}
	}
}

func TestFindBinEmptyGridReturnsNotFound(t *testing.T) {
	if got := FindBin(1, nil, nil, 0); got != -1 {
		t.Fatalf("FindBin on empty grid = %d, want -1", got)
	}
}
