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

import (
	"context"
	"math"
	"testing"

	"github.com/specmodel/isisengine/atomdb"
	"github.com/specmodel/isisengine/emisstore"
	"github.com/specmodel/isisengine/tablesrc"
)

func row(t, ne float64) emisstore.FilemapRow {
	return emisstore.FilemapRow{T: t, Ne: ne}
}

// fakeSource is a minimal in-memory tablesrc.Source for exercising the
// store+interpolator wiring end to end, independent of any real file
// format.
type fakeSource struct {
	filemap tablesrc.FilemapData
	lineExt map[int]tablesrc.LineEmisData
	contExt map[int]tablesrc.ContinuumEmisData
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
func (f *fakeSource) OpenContinuumEmissivity(_ context.Context, loc tablesrc.Locator) (tablesrc.ContinuumEmisData, error) {
	return f.contExt[loc.Extension], nil
}
func (f *fakeSource) OpenAbundance(context.Context) ([]tablesrc.AbundanceData, error) { return nil, nil }
func (f *fakeSource) OpenIonFraction(context.Context) (tablesrc.IonFractionData, error) {
	return tablesrc.IonFractionData{}, nil
}

func TestInterpolatedLineBlockWeightsCorners(t *testing.T) {
	db := atomdb.New()
	if err := db.MergeLines([]atomdb.RawLine{{Wavelength: 10.0, Upper: 2, Lower: 1}}, 26, 16); err != nil {
		t.Fatal(err)
	}
	line := db.GetLine(10.0, 26, 16, 2, 1)

	src := &fakeSource{
		filemap: tablesrc.FilemapData{
			NumTemps: 2, NumDensities: 1,
			Rows: []tablesrc.FilemapRowData{
				{KtKeV: 1.0, Locator: tablesrc.Locator{File: "f", Extension: 3}},
				{KtKeV: 2.0, Locator: tablesrc.Locator{File: "f", Extension: 4}},
			},
		},
		lineExt: map[int]tablesrc.LineEmisData{
			3: {Lambda: []float64{10.0}, Epsilon: []float64{2.0}, Element: []int{26}, Ion: []int{16}, UpperLev: []int{2}, LowerLev: []int{1}},
			4: {Lambda: []float64{10.0}, Epsilon: []float64{4.0}, Element: []int{26}, Ion: []int{16}, UpperLev: []int{2}, LowerLev: []int{1}},
		},
	}
	store, err := emisstore.Open(context.Background(), emisstore.NewConfig(), src, db)
	if err != nil {
		t.Fatal(err)
	}

	corners := []Corner{
		{Row: store.Rows[0], Weight: 0.25},
		{Row: store.Rows[1], Weight: 0.75},
	}
	result, err := InterpolatedLineBlock(context.Background(), store, db, corners, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(result) != 1 {
		t.Fatalf("expected 1 resolved line, got %d", len(result))
	}
	want := 0.25*2.0 + 0.75*4.0
	if math.Abs(result[0].Emissivity-want) > 1e-9 {
		t.Fatalf("expected weighted emissivity %v, got %v", want, result[0].Emissivity)
	}
	if result[0].LineIndex != line.Index {
		t.Fatalf("expected line index %d, got %d", line.Index, result[0].LineIndex)
	}
}

func TestSelect1DMidpointWeights(t *testing.T) {
	rows := []emisstore.FilemapRow{row(1e6, 1e10), row(2e6, 1e10), row(3e6, 1e10)}
	corners, err := SelectCorners(rows, 3, 1, 1.5e6, 1e10)
	if err != nil {
		t.Fatal(err)
	}
	if len(corners) != 2 {
		t.Fatalf("expected 2 corners, got %d", len(corners))
	}
	sum := corners[0].Weight + corners[1].Weight
	if math.Abs(sum-1) > 1e-12 {
		t.Fatalf("weights should sum to 1, got %v", sum)
	}
}

func TestSelect1DClampsOutOfRangeSymmetrically(t *testing.T) {
	rows := []emisstore.FilemapRow{row(1e6, 1e10), row(2e6, 1e10)}
	corners, err := SelectCorners(rows, 2, 1, 10e6, 1e10)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range corners {
		if c.Weight != 0.5 {
			t.Fatalf("expected symmetric 0.5/0.5 weighting out of range, got %v", c.Weight)
		}
	}
}

func TestSelectBilinearFourDistinctCorners(t *testing.T) {
	rows := []emisstore.FilemapRow{
		row(1e6, 1e9), row(1e6, 1e11),
		row(1e7, 1e9), row(1e7, 1e11),
	}
	corners, err := SelectCorners(rows, 2, 2, 3e6, 5e9)
	if err != nil {
		t.Fatal(err)
	}
	if len(corners) != 4 {
		t.Fatalf("expected 4 corners, got %d", len(corners))
	}
	seen := make(map[emisstore.FilemapRow]bool)
	sum := 0.0
	for _, c := range corners {
		if seen[c.Row] {
			t.Fatal("bilinear corners must be four distinct grid points")
		}
		seen[c.Row] = true
		sum += c.Weight
		if c.Weight < 0 || c.Weight > 1 {
			t.Fatalf("weight out of [0,1]: %v", c.Weight)
		}
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("bilinear weights should sum to 1, got %v", sum)
	}
}

func TestSelectBilinearEmptyQuadrantIsCorruption(t *testing.T) {
	rows := []emisstore.FilemapRow{
		row(1e7, 1e9), row(1e7, 1e11),
	}
	_, err := SelectCorners(rows, 2, 2, 1e6, 5e9)
	if !IsDatabaseCorruption(err) {
		t.Fatalf("expected a DatabaseCorruption error for a missing quadrant, got %v", err)
	}
}

func TestRebinPiecewiseLinearTrapezoidSingleInterval(t *testing.T) {
	x := []float64{0, 1, 2}
	y := []float64{0, 2, 0}
	out := RebinPiecewiseLinear(x, y, []float64{0}, []float64{1}, false)
	if math.Abs(out[0]-1.0) > 1e-9 {
		t.Fatalf("expected triangle area 1.0, got %v", out[0])
	}
}

func TestRebinPiecewiseLinearOutsideGridIsZero(t *testing.T) {
	x := []float64{1, 2}
	y := []float64{1, 1}
	out := RebinPiecewiseLinear(x, y, []float64{5}, []float64{6}, false)
	if out[0] != 0 {
		t.Fatalf("expected zero for a bin entirely outside the source grid, got %v", out[0])
	}
}

func TestRebinPiecewiseLinearWantAvgDividesByWidth(t *testing.T) {
	x := []float64{0, 1, 2}
	y := []float64{1, 1, 1}
	sum := RebinPiecewiseLinear(x, y, []float64{0}, []float64{2}, false)
	avg := RebinPiecewiseLinear(x, y, []float64{0}, []float64{2}, true)
	if math.Abs(avg[0]-sum[0]/2) > 1e-9 {
		t.Fatalf("expected average to be the integral divided by bin width")
	}
}

func TestSelectContinuumRecordsPicksOneGranularity(t *testing.T) {
	blk := &emisstore.ContinuumBlock{Records: []emisstore.ContinuumRecord{
		{Z: 0, Q: -1, ETrue: []float64{1}, VTrue: []float64{0.3}},
		{Z: 26, Q: -1, ETrue: []float64{1}, VTrue: []float64{0.3}},
		{Z: 26, Q: 16, ETrue: []float64{1}, VTrue: []float64{0.2}},
		{Z: 26, Q: 17, ETrue: []float64{1}, VTrue: []float64{0.1}},
	}}

	total := selectContinuumRecords(blk, ContinuumTarget{Z: 0, Q: -1}, nil)
	if len(total) != 1 || total[0].Z != 0 || total[0].Q != -1 {
		t.Fatalf("expected only the grand-total sentinel with no rescale, got %+v", total)
	}

	scale := func(z, q int) float64 { return 1 }
	perElement := selectContinuumRecords(blk, ContinuumTarget{Z: 0, Q: -1}, scale)
	if len(perElement) != 1 || perElement[0].Z != 26 || perElement[0].Q != -1 {
		t.Fatalf("expected only the per-element sentinel when a rescale is active, got %+v", perElement)
	}

	perIon := selectContinuumRecords(blk, ContinuumTarget{Z: 26, Q: -1}, nil)
	if len(perIon) != 2 {
		t.Fatalf("expected the two per-ion records of element 26, got %+v", perIon)
	}
	for _, r := range perIon {
		if r.Q < 0 {
			t.Fatalf("per-ion selection must exclude the element-level sentinel, got %+v", r)
		}
	}
}
