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

package atomgroup

import (
	"testing"

	"github.com/specmodel/isisengine/atomdb"
)

func testDB(t *testing.T) *atomdb.Database {
	t.Helper()
	db := atomdb.New()
	if err := db.MergeLines([]atomdb.RawLine{
		{Wavelength: 10.0, Upper: 2, Lower: 1},
		{Wavelength: 12.0, Upper: 3, Lower: 1},
		{Wavelength: 15.0, Upper: 4, Lower: 1},
	}, 26, 16); err != nil {
		t.Fatal(err)
	}
	return db
}

func TestKBrightestBounded(t *testing.T) {
	db := testDB(t)
	db.GetLineFromIndex(0).Flux = 5
	db.GetLineFromIndex(1).Flux = 1
	db.GetLineFromIndex(2).Flux = 3

	tab := NewTable()
	g := tab.MakeGroupFromList(1, db, []int{0, 1, 2})

	top := GetKBrightest(2, g)
	if len(top) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(top))
	}
	if top[0].Flux < top[1].Flux {
		t.Fatalf("expected descending flux order, got %v then %v", top[0].Flux, top[1].Flux)
	}
	for _, l := range top {
		if l.Flux <= 0 {
			t.Fatalf("brightest result included non-positive flux %v", l.Flux)
		}
	}
}

func TestKBrightestExcludesNonPositiveFlux(t *testing.T) {
	db := testDB(t)
	db.GetLineFromIndex(0).Flux = 0
	db.GetLineFromIndex(1).Flux = -1
	db.GetLineFromIndex(2).Flux = 2

	tab := NewTable()
	g := tab.MakeGroupFromList(1, db, []int{0, 1, 2})
	top := GetKBrightest(5, g)
	if len(top) != 1 {
		t.Fatalf("expected 1 line with positive flux, got %d", len(top))
	}
}

func TestUnblendedSingleLineGroupAlwaysPasses(t *testing.T) {
	db := testDB(t)
	db.GetLineFromIndex(0).Flux = 1
	tab := NewTable()
	g := tab.MakeGroupFromList(1, db, []int{0})
	out := GetUnblended(0.1, 0.01, 0, g, db)
	if len(out) != 1 {
		t.Fatalf("expected the single line to always be unblended, got %d results", len(out))
	}
}

func TestUnblendedSingleLineGroupPassesWithZeroFlux(t *testing.T) {
	db := testDB(t)
	// Leave Flux at its zero value, as a line would have before evaluation.
	tab := NewTable()
	g := tab.MakeGroupFromList(1, db, []int{0})
	out := GetUnblended(0.1, 0.01, 0, g, db)
	if len(out) != 1 {
		t.Fatalf("expected a line with no competing neighbor to pass regardless of its own zero flux, got %d results", len(out))
	}
}

func TestMakeGroupFromListDeduplicatesAndSorts(t *testing.T) {
	db := testDB(t)
	tab := NewTable()
	g := tab.MakeGroupFromList(1, db, []int{2, 0, 0, 1})
	if g.Len() != 3 {
		t.Fatalf("expected dedup to leave 3 lines, got %d", g.Len())
	}
	for i := 0; i+1 < len(g.Lines); i++ {
		if g.Lines[i].Wavelength > g.Lines[i+1].Wavelength {
			t.Fatalf("group lines not sorted by wavelength")
		}
	}
}

func TestEditGroupRemoveAllDeletesGroup(t *testing.T) {
	db := testDB(t)
	tab := NewTable()
	tab.MakeGroupFromList(1, db, []int{0, 1})
	tab.EditGroup(1, db, []int{0, 1}, false)
	if tab.FindGroup(1) != nil {
		t.Fatal("expected group to be deleted after removing all members")
	}
}

func TestFilterWavelengthRangeHalfOpen(t *testing.T) {
	db := testDB(t)
	f := WavelengthFilter{Min: 10.0, Max: 12.0}
	mask := Apply(db, f)
	if mask[0] != 1 {
		t.Fatal("expected line at 10.0 (range start) to match")
	}
	if mask[1] != 0 {
		t.Fatal("expected line at 12.0 (range end, exclusive) to not match")
	}
}
