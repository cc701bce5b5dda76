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
	"container/heap"
	"math"
	"sort"

	"github.com/specmodel/isisengine/atomdb"
)

// BlendMask bits control which neighboring lines GetUnblended compares
// against, per spec.md §4.2.
const (
	SameIon  = 0x01
	SameElem = 0x02
)

// lineHeap is a min-heap over flux, used by GetKBrightest to keep only the
// k largest fluxes seen so far without sorting the whole group.
type lineHeap []*atomdb.Line

func (h lineHeap) Len() int            { return len(h) }
func (h lineHeap) Less(i, j int) bool  { return h[i].Flux < h[j].Flux }
func (h lineHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *lineHeap) Push(x interface{}) { *h = append(*h, x.(*atomdb.Line)) }
func (h *lineHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// GetKBrightest returns at most k lines from g with the largest positive
// flux, in descending flux order. Uses a k-sized min-heap so the cost is
// O(n log k) rather than O(n log n) for a full sort.
func GetKBrightest(k int, g *Group) []*atomdb.Line {
	if k <= 0 || g == nil {
		return nil
	}
	h := make(lineHeap, 0, k)
	for _, l := range g.Lines {
		if l.Flux <= 0 {
			continue
		}
		if h.Len() < k {
			heap.Push(&h, l)
		} else if l.Flux > h[0].Flux {
			heap.Pop(&h)
			heap.Push(&h, l)
		}
	}
	out := make([]*atomdb.Line, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(*atomdb.Line)
	}
	return out
}

// GetUnblended returns the subset of g's lines that are not significantly
// blended with any other line in the database: a line ℓ passes if the sum
// of fluxes of "other" lines within fractional wavelength distance wlFrac
// is less than fluxFrac*ℓ.Flux. mask selects which neighbors count as
// "other": SameElem excludes same-element neighbors, SameIon excludes
// same-ion neighbors, mask=0 compares against every other line.
//
// The search walks outward from each candidate's position in db's
// wavelength-sorted permutation, stopping as soon as the fractional
// distance exceeds wlFrac, so the cost is proportional to the local line
// density rather than the size of the whole database.
func GetUnblended(fluxFrac, wlFrac float64, mask uint, g *Group, db *atomdb.Database) []*atomdb.Line {
	if g == nil {
		return nil
	}
	perm := db.SortedIndices()
	// position[lineIndex] -> position within perm, for O(1) start lookup.
	position := make(map[int]int, len(perm))
	for pos, idx := range perm {
		position[idx] = pos
	}

	excludes := func(candidate, other *atomdb.Line) bool {
		if other.Index == candidate.Index {
			return true
		}
		if mask&SameElem != 0 && other.Z == candidate.Z {
			return true
		}
		if mask&SameIon != 0 && other.Z == candidate.Z && other.Q == candidate.Q {
			return true
		}
		return false
	}

	var out []*atomdb.Line
	for _, candidate := range g.Lines {
		pos, ok := position[candidate.Index]
		if !ok {
			continue
		}
		blendFlux := 0.0
		for p := pos - 1; p >= 0; p-- {
			other := db.GetLineFromIndex(perm[p])
			if fracDist(candidate.Wavelength, other.Wavelength) > wlFrac {
				break
			}
			if !excludes(candidate, other) {
				blendFlux += other.Flux
			}
		}
		for p := pos + 1; p < len(perm); p++ {
			other := db.GetLineFromIndex(perm[p])
			if fracDist(candidate.Wavelength, other.Wavelength) > wlFrac {
				break
			}
			if !excludes(candidate, other) {
				blendFlux += other.Flux
			}
		}
		// blendFlux==0 always passes, even when candidate.Flux is itself zero
		// (a line with no computed flux yet, or a group with no neighbors at
		// all): a candidate with nothing competing for its wavelength is
		// unblended regardless of its own flux.
		if blendFlux == 0 || blendFlux < fluxFrac*candidate.Flux {
			out = append(out, candidate)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Wavelength < out[j].Wavelength })
	return out
}

func fracDist(a, b float64) float64 {
	if a == 0 {
		return math.Inf(1)
	}
	d := (a - b) / a
	if d < 0 {
		d = -d
	}
	return d
}
