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
	"fmt"
	"sort"

	"github.com/specmodel/isisengine/atomdb"
)

// Group is a named, identified set of non-owning line references, always
// kept sorted by ascending wavelength.
type Group struct {
	ID    int
	name  string
	Lines []*atomdb.Line
}

// Name returns the group's display name, possibly empty.
func (g *Group) Name() string { return g.name }

// SetName sets the group's display name.
func (g *Group) SetName(name string) { g.name = name }

// Len returns the number of lines in the group.
func (g *Group) Len() int { return len(g.Lines) }

func sortByWavelength(lines []*atomdb.Line) {
	sort.Slice(lines, func(i, j int) bool { return lines[i].Wavelength < lines[j].Wavelength })
}

// Table is a process-wide (or test-scoped) registry of groups indexed by
// id, mirroring the teacher's cellList index map used for O(1) membership
// lookups rather than a linear scan over a linked list.
type Table struct {
	groups map[int]*Group
}

// NewTable returns an empty group table.
func NewTable() *Table {
	return &Table{groups: make(map[int]*Group)}
}

// FindGroup returns the group with the given id, or nil if none exists.
func (t *Table) FindGroup(id int) *Group {
	return t.groups[id]
}

// DeleteGroup removes the group with the given id, if present.
func (t *Table) DeleteGroup(id int) {
	delete(t.groups, id)
}

// flagArrayFromList builds a byte mask of length db.GetNLines() with a 1 at
// every index named in list, deduplicating (DB_flag_array_from_list in the
// original).
func flagArrayFromList(db *atomdb.Database, list []int) []byte {
	mask := make([]byte, db.GetNLines())
	for _, idx := range list {
		if idx >= 0 && idx < len(mask) {
			mask[idx] = 1
		}
	}
	return mask
}

// MakeGroupFromList creates (or replaces) the group with the given id from
// a list of line indices into db, deduplicating via a byte mask and sorting
// the result by ascending wavelength.
func (t *Table) MakeGroupFromList(id int, db *atomdb.Database, list []int) *Group {
	mask := flagArrayFromList(db, list)
	var lines []*atomdb.Line
	for i, m := range mask {
		if m != 0 {
			lines = append(lines, db.GetLineFromIndex(i))
		}
	}
	sortByWavelength(lines)
	g := &Group{ID: id, Lines: lines}
	t.groups[id] = g
	return g
}

// EditGroup adds (add=true) or removes (add=false) the lines named by list
// from the group with the given id, using the same mask-and-sweep algorithm
// as MakeGroupFromList. If the group does not yet exist and add is true, it
// is created. Removing every line from a group deletes it. The resulting
// group retains its original id.
func (t *Table) EditGroup(id int, db *atomdb.Database, list []int, add bool) *Group {
	g := t.groups[id]
	mask := make([]byte, db.GetNLines())
	if g != nil {
		for _, l := range g.Lines {
			mask[l.Index] = 1
		}
	}
	edit := flagArrayFromList(db, list)
	for i, m := range edit {
		if m == 0 {
			continue
		}
		if add {
			mask[i] = 1
		} else {
			mask[i] = 0
		}
	}
	var lines []*atomdb.Line
	for i, m := range mask {
		if m != 0 {
			lines = append(lines, db.GetLineFromIndex(i))
		}
	}
	if len(lines) == 0 {
		delete(t.groups, id)
		return nil
	}
	sortByWavelength(lines)
	if g == nil {
		g = &Group{ID: id}
		t.groups[id] = g
	}
	g.Lines = lines
	return g
}

func (g *Group) String() string {
	return fmt.Sprintf("group %d %q (%d lines)", g.ID, g.name, len(g.Lines))
}
