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
	"context"
	"testing"

	"github.com/specmodel/isisengine/atomdb"
	"github.com/specmodel/isisengine/tablesrc"
)

// fakeSource is an in-memory tablesrc.Source for tests, grounded on the
// teacher's preference for hand-built in-package fixtures over mocking
// libraries (science_test.go).
type fakeSource struct {
	lines   []atomdb.LineExtension
	filemap tablesrc.FilemapData
	lineExt map[int]tablesrc.LineEmisData
	contExt map[int]tablesrc.ContinuumEmisData
	abund   []tablesrc.AbundanceData
	ionfrac tablesrc.IonFractionData
}

func (f *fakeSource) ReadLineExtensions(ctx context.Context) ([]atomdb.LineExtension, error) {
	return f.lines, nil
}
func (f *fakeSource) ReadLevelExtensions(ctx context.Context) ([]atomdb.LevelExtension, error) {
	return nil, nil
}
func (f *fakeSource) OpenFilemap(ctx context.Context) (tablesrc.FilemapData, error) {
	return f.filemap, nil
}
func (f *fakeSource) OpenLineEmissivity(ctx context.Context, loc tablesrc.Locator) (tablesrc.LineEmisData, error) {
	return f.lineExt[loc.Extension], nil
}
func (f *fakeSource) OpenContinuumEmissivity(ctx context.Context, loc tablesrc.Locator) (tablesrc.ContinuumEmisData, error) {
	return f.contExt[loc.Extension], nil
}
func (f *fakeSource) OpenAbundance(ctx context.Context) ([]tablesrc.AbundanceData, error) {
	return f.abund, nil
}
func (f *fakeSource) OpenIonFraction(ctx context.Context) (tablesrc.IonFractionData, error) {
	return f.ionfrac, nil
}

func testStore(t *testing.T) (*Store, *atomdb.Database) {
	t.Helper()
	db := atomdb.New()
	if err := db.MergeLines([]atomdb.RawLine{
		{Wavelength: 10.0, Upper: 2, Lower: 1},
		{Wavelength: 12.0, Upper: 3, Lower: 1},
	}, 26, 16); err != nil {
		t.Fatal(err)
	}

	src := &fakeSource{
		filemap: tablesrc.FilemapData{
			NumTemps: 2, NumDensities: 1,
			AbundSource: "angr",
			Rows: []tablesrc.FilemapRowData{
				{KtKeV: 1.0, EDensity: 1e10, Locator: tablesrc.Locator{File: "f", Extension: 3}},
				{KtKeV: 2.0, EDensity: 1e10, Locator: tablesrc.Locator{File: "f", Extension: 4}},
			},
		},
		lineExt: map[int]tablesrc.LineEmisData{
			3: {
				Temperature: 1, Density: 1,
				Lambda:   []float64{10.0, 12.0},
				Epsilon:  []float64{1e-20, 2e-20},
				Element:  []int{26, 26},
				Ion:      []int{16, 16},
				UpperLev: []int{2, 3},
				LowerLev: []int{1, 1},
			},
			4: {
				Temperature: 2, Density: 1,
				Lambda:   []float64{10.0},
				Epsilon:  []float64{3e-20},
				Element:  []int{26},
				Ion:      []int{16},
				UpperLev: []int{2},
				LowerLev: []int{1},
			},
		},
		contExt: map[int]tablesrc.ContinuumEmisData{
			3: {Records: []tablesrc.ContinuumRecordData{
				{Z: 26, Q: 16, ECont: []float64{1, 2}, Continuum: []float64{0.1, 0.2}},
			}},
		},
		abund: []tablesrc.AbundanceData{
			{Source: "angr", Abund: map[string]float64{"Fe": 7.5}},
			{Source: "grsa", Abund: map[string]float64{"Fe": 7.6}},
		},
		ionfrac: tablesrc.IonFractionData{
			Temperature: []float64{1e6, 1e7},
			ZElement:    []int{26},
			XIonPop: [][]float64{
				make([]float64, 27),
				make([]float64, 27),
			},
		},
	}
	src.ionfrac.XIonPop[0][16] = 0.2
	src.ionfrac.XIonPop[1][16] = 0.8

	s, err := Open(context.Background(), NewConfig(), src, db)
	if err != nil {
		t.Fatal(err)
	}
	return s, db
}

func TestLineBlockResolvesToStableLineIndices(t *testing.T) {
	s, db := testStore(t)
	blk, err := s.LineBlockAt(context.Background(), s.Rows[0].Locator)
	if err != nil {
		t.Fatal(err)
	}
	line := db.GetLine(10.0, 26, 16, 2, 1)
	v, ok := blk.ValueForLine(line.Index)
	if !ok || v != 1e-20 {
		t.Fatalf("expected emissivity 1e-20 for the 10A line, got %v (ok=%v)", v, ok)
	}
	if !line.HaveEmissivityData {
		t.Fatal("expected HaveEmissivityData to be set once a block resolves the line")
	}
}

func TestLineBlockMissingLineNotAnError(t *testing.T) {
	s, _ := testStore(t)
	blk, err := s.LineBlockAt(context.Background(), s.Rows[1].Locator)
	if err != nil {
		t.Fatal(err)
	}
	if len(blk.Entries) != 1 {
		t.Fatalf("expected exactly 1 resolved line, got %d", len(blk.Entries))
	}
}

func TestContinuumBlockForIon(t *testing.T) {
	s, _ := testStore(t)
	blk, err := s.ContinuumBlockAt(context.Background(), s.Rows[0].Locator)
	if err != nil {
		t.Fatal(err)
	}
	rec, ok := blk.ForIon(26, 16)
	if !ok {
		t.Fatal("expected a continuum record for Fe XVII")
	}
	if len(rec.VTrue) != 2 {
		t.Fatalf("expected 2 continuum samples, got %d", len(rec.VTrue))
	}
}

func TestAbundanceFactorIsOneWhenChosenEqualsStandard(t *testing.T) {
	s, _ := testStore(t)
	if f := s.Abundance().AbundanceFactor("Fe"); f != 1 {
		t.Fatalf("expected factor 1 when chosen==standard, got %v", f)
	}
}

func TestAbundanceFactorRescales(t *testing.T) {
	s, _ := testStore(t)
	grsa := s.Abundance().FindByName("grsa")
	if grsa == nil {
		t.Fatal("expected grsa table to be registered")
	}
	if err := s.Abundance().SetChosen(grsa.ID); err != nil {
		t.Fatal(err)
	}
	f := s.Abundance().AbundanceFactor("Fe")
	want := 1.2589254117941673 // 10^(7.6-7.5)
	if diff := f - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected factor %v, got %v", want, f)
	}
}

func TestIonFractionInterpolatesLinearlyInTemperature(t *testing.T) {
	s, _ := testStore(t)
	tab := s.IonFractionTable("default")
	v, err := tab.IonFraction(26, 16, 5.5e6, func(string) {})
	if err != nil {
		t.Fatal(err)
	}
	if diff := v - 0.5; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected midpoint fraction 0.5, got %v", v)
	}
}

func TestIonFractionOutOfRangeWarnsAndReturnsZero(t *testing.T) {
	s, _ := testStore(t)
	tab := s.IonFractionTable("default")
	var warned string
	v, err := tab.IonFraction(26, 16, 1e9, func(msg string) { warned = msg })
	if err != nil {
		t.Fatal(err)
	}
	if v != 0 {
		t.Fatalf("expected zero for an out-of-range temperature, got %v", v)
	}
	if warned == "" {
		t.Fatal("expected a warning naming the tabulated bounds")
	}
}

func TestOpenResidentMergesUnknownLinesFromEmissivityTables(t *testing.T) {
	db := atomdb.New()
	if err := db.MergeLines([]atomdb.RawLine{
		{Wavelength: 10.0, Upper: 2, Lower: 1},
	}, 26, 16); err != nil {
		t.Fatal(err)
	}
	if n := db.GetNLines(); n != 1 {
		t.Fatalf("expected 1 known line before merge, got %d", n)
	}

	src := &fakeSource{
		filemap: tablesrc.FilemapData{
			NumTemps: 1, NumDensities: 1,
			Rows: []tablesrc.FilemapRowData{
				{KtKeV: 1.0, EDensity: 1e10, Locator: tablesrc.Locator{File: "f", Extension: 3}},
			},
		},
		lineExt: map[int]tablesrc.LineEmisData{
			3: {
				Lambda:   []float64{10.0, 12.0},
				Epsilon:  []float64{1e-20, 2e-20},
				Element:  []int{26, 26},
				Ion:      []int{16, 16},
				UpperLev: []int{2, 3},
				LowerLev: []int{1, 1},
			},
		},
	}

	cfg := NewConfig()
	cfg.LineResident = true
	s, err := Open(context.Background(), cfg, src, db)
	if err != nil {
		t.Fatal(err)
	}

	if n := db.GetNLines(); n != 2 {
		t.Fatalf("expected the unknown line to be merged, giving 2 known lines, got %d", n)
	}
	merged := db.GetLine(12.0, 26, 16, 3, 1)
	if merged == nil {
		t.Fatal("expected the previously unknown line to now resolve by identity")
	}

	blk, err := s.LineBlockAt(context.Background(), s.Rows[0].Locator)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := blk.Lookup[merged.Index]; !ok {
		t.Fatal("expected the resolved block to include the merged line after the rewalk pass")
	}
}
