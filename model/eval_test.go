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

package model

import (
	"context"
	"math"
	"testing"

	"github.com/specmodel/isisengine/atomdb"
	"github.com/specmodel/isisengine/emisstore"
	"github.com/specmodel/isisengine/plasma"
	"github.com/specmodel/isisengine/tablesrc"
)

type fakeSource struct {
	filemap tablesrc.FilemapData
	lineExt map[int]tablesrc.LineEmisData
}

func (f *fakeSource) ReadLineExtensions(context.Context) ([]atomdb.LineExtension, error) {
	return nil, nil
}
func (f *fakeSource) ReadLevelExtensions(context.Context) ([]atomdb.LevelExtension, error) {
	return nil, nil
}
func (f *fakeSource) OpenFilemap(context.Context) (tablesrc.FilemapData, error) { return f.filemap, nil }
func (f *fakeSource) OpenLineEmissivity(_ context.Context, loc tablesrc.Locator) (tablesrc.LineEmisData, error) {
	return f.lineExt[loc.Extension], nil
}
func (f *fakeSource) OpenContinuumEmissivity(context.Context, tablesrc.Locator) (tablesrc.ContinuumEmisData, error) {
	return tablesrc.ContinuumEmisData{}, nil
}
func (f *fakeSource) OpenAbundance(context.Context) ([]tablesrc.AbundanceData, error) { return nil, nil }
func (f *fakeSource) OpenIonFraction(context.Context) (tablesrc.IonFractionData, error) {
	return tablesrc.IonFractionData{}, nil
}

// singleLineSetup builds a database and store with one line at 10A seen
// identically at two grid points spanning the test component's
// temperature, so interpolation is a pure pass-through of the tabulated
// emissivity.
func singleLineSetup(t *testing.T) (*atomdb.Database, *emisstore.Store) {
	t.Helper()
	db := atomdb.New()
	if err := db.MergeLines([]atomdb.RawLine{{Wavelength: 10.0, Upper: 2, Lower: 1}}, 26, 16); err != nil {
		t.Fatal(err)
	}
	src := &fakeSource{
		filemap: tablesrc.FilemapData{
			NumTemps: 2, NumDensities: 1,
			Rows: []tablesrc.FilemapRowData{
				{KtKeV: 0.5, Locator: tablesrc.Locator{File: "f", Extension: 3}},
				{KtKeV: 2.0, Locator: tablesrc.Locator{File: "f", Extension: 4}},
			},
		},
		lineExt: map[int]tablesrc.LineEmisData{
			3: {Lambda: []float64{10.0}, Epsilon: []float64{1e-18}, Element: []int{26}, Ion: []int{16}, UpperLev: []int{2}, LowerLev: []int{1}},
			4: {Lambda: []float64{10.0}, Epsilon: []float64{1e-18}, Element: []int{26}, Ion: []int{16}, UpperLev: []int{2}, LowerLev: []int{1}},
		},
	}
	store, err := emisstore.Open(context.Background(), emisstore.NewConfig(), src, db)
	if err != nil {
		t.Fatal(err)
	}
	return db, store
}

func testGrid() (lo, hi []float64) {
	lo = []float64{9.0, 9.5, 10.0, 10.5}
	hi = []float64{9.5, 10.0, 10.5, 11.0}
	return
}

func ionFractionT(t *testing.T, store *emisstore.Store) float64 {
	// temperature corresponding to the grid points above (kT=0.5keV).
	return tablesrc.KevToKelvin(0.5)
}

func TestEvalZeroNormIsNoOp(t *testing.T) {
	db, store := singleLineSetup(t)
	m := plasma.NewModel()
	m.AddComponent(ionFractionT(t, store), 1e10, 0, 1, 0, 0, nil)

	ev := NewEvaluator(db, store)
	lo, hi := testGrid()
	out := make([]float64, len(lo))
	if err := ev.Eval(context.Background(), m, lo, hi, Qualifiers{}, out); err != nil {
		t.Fatal(err)
	}
	for i, v := range out {
		if v != 0 {
			t.Fatalf("expected zero-norm component to contribute nothing, bin %d = %v", i, v)
		}
	}
}

func TestEvalDeltaFunctionExactDeposition(t *testing.T) {
	db, store := singleLineSetup(t)
	m := plasma.NewModel()
	m.AddComponent(ionFractionT(t, store), 1e10, 1, 1, 0, 0, nil)

	ev := NewEvaluator(db, store)
	lo, hi := testGrid()
	out := make([]float64, len(lo))
	if err := ev.Eval(context.Background(), m, lo, hi, Qualifiers{}, out); err != nil {
		t.Fatal(err)
	}
	// the 10A line should land entirely in bin 2 ([10.0,10.5)).
	for i, v := range out {
		if i == 2 {
			if v <= 0 {
				t.Fatalf("expected positive flux in the line's bin, got %v", v)
			}
			continue
		}
		if v != 0 {
			t.Fatalf("expected zero flux outside the line's bin with no profile, bin %d = %v", i, v)
		}
	}
}

func TestEvalLinearityInNorm(t *testing.T) {
	db, store := singleLineSetup(t)
	lo, hi := testGrid()

	m1 := plasma.NewModel()
	m1.AddComponent(ionFractionT(t, store), 1e10, 1, 1, 0, 0, nil)
	ev := NewEvaluator(db, store)
	out1 := make([]float64, len(lo))
	if err := ev.Eval(context.Background(), m1, lo, hi, Qualifiers{}, out1); err != nil {
		t.Fatal(err)
	}

	m2 := plasma.NewModel()
	m2.AddComponent(ionFractionT(t, store), 1e10, 2, 1, 0, 0, nil)
	ev2 := NewEvaluator(db, store)
	out2 := make([]float64, len(lo))
	if err := ev2.Eval(context.Background(), m2, lo, hi, Qualifiers{}, out2); err != nil {
		t.Fatal(err)
	}

	for i := range out1 {
		if math.Abs(out2[i]-2*out1[i]) > 1e-9*math.Abs(out2[i]+1) {
			t.Fatalf("expected doubling norm to double flux in bin %d: %v vs %v", i, out1[i], out2[i])
		}
	}
}

func TestEvalRedshiftShiftsDepositionBin(t *testing.T) {
	db, store := singleLineSetup(t)
	lo := []float64{19.0, 19.5, 20.0, 20.5}
	hi := []float64{19.5, 20.0, 20.5, 21.0}

	m := plasma.NewModel()
	m.AddComponent(ionFractionT(t, store), 1e10, 1, 1, 1.0, 0, nil) // z=1 doubles observed wavelength

	ev := NewEvaluator(db, store)
	out := make([]float64, len(lo))
	if err := ev.Eval(context.Background(), m, lo, hi, Qualifiers{}, out); err != nil {
		t.Fatal(err)
	}
	if out[2] <= 0 {
		t.Fatalf("expected the redshifted 10A->20A line to land in bin 2, got %v", out[2])
	}
	for i, v := range out {
		if i != 2 && v != 0 {
			t.Fatalf("expected flux only in bin 2, bin %d = %v", i, v)
		}
	}
}
