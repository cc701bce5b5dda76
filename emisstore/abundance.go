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
	"math"
)

// abundanceRegistry holds every AbundanceTable known to a Store, plus the
// two distinguished slots spec.md §4.5 calls out: the "standard" table
// (baked into the emissivity file the line/continuum blocks were computed
// against) and the "chosen" table (what AbundanceFactor actually applies).
// They default to the same table; setting Chosen lets a caller rescale
// line fluxes for a different cosmic abundance set without re-reading the
// emissivity file.
type abundanceRegistry struct {
	tables   []*AbundanceTable
	standard int // index into tables, or -1
	chosen   int // index into tables, or -1
}

func newAbundanceRegistry() *abundanceRegistry {
	return &abundanceRegistry{standard: -1, chosen: -1}
}

// ListTables returns every registered abundance table.
func (r *abundanceRegistry) ListTables() []*AbundanceTable {
	return r.tables
}

// FindByName returns the table with the given name, or nil.
func (r *abundanceRegistry) FindByName(name string) *AbundanceTable {
	for _, t := range r.tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// AddTable registers a new abundance table and returns its id.
func (r *abundanceRegistry) AddTable(name string, abund map[string]float64) *AbundanceTable {
	t := &AbundanceTable{ID: len(r.tables), Name: name, Abund: abund}
	r.tables = append(r.tables, t)
	if r.standard < 0 {
		r.standard = t.ID
	}
	if r.chosen < 0 {
		r.chosen = t.ID
	}
	return t
}

// SetChosen selects which table AbundanceFactor rescales against, by id.
func (r *abundanceRegistry) SetChosen(id int) error {
	if id < 0 || id >= len(r.tables) {
		return fmt.Errorf("emisstore: no abundance table with id %d", id)
	}
	r.chosen = id
	return nil
}

// SetStandard records which table the emissivity data itself was computed
// against, by id.
func (r *abundanceRegistry) SetStandard(id int) error {
	if id < 0 || id >= len(r.tables) {
		return fmt.Errorf("emisstore: no abundance table with id %d", id)
	}
	r.standard = id
	return nil
}

// GetTable returns the table with the given id, or nil.
func (r *abundanceRegistry) GetTable(id int) *AbundanceTable {
	if id < 0 || id >= len(r.tables) {
		return nil
	}
	return r.tables[id]
}

// Chosen returns the currently-chosen table, or nil if none are registered.
func (r *abundanceRegistry) Chosen() *AbundanceTable {
	return r.GetTable(r.chosen)
}

// Standard returns the table the emissivity data was computed against, or
// nil if none are registered.
func (r *abundanceRegistry) Standard() *AbundanceTable {
	return r.GetTable(r.standard)
}

// AbundanceFactor returns the multiplicative rescaling of element symbol's
// abundance between the chosen and standard tables: 10^(chosen-standard).
// A line computed under the standard abundance is multiplied by this factor
// to reflect the chosen one instead. Returns 1 if either table is unset or
// lacks an entry for symbol.
func (r *abundanceRegistry) AbundanceFactor(symbol string) float64 {
	chosen, stdTable := r.Chosen(), r.Standard()
	if chosen == nil || stdTable == nil {
		return 1
	}
	c, ok1 := chosen.Get(symbol)
	s, ok2 := stdTable.Get(symbol)
	if !ok1 || !ok2 {
		return 1
	}
	return math.Pow(10, c-s)
}
