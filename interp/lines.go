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
	"fmt"

	"github.com/specmodel/isisengine/atomdb"
	"github.com/specmodel/isisengine/emisstore"
	"github.com/specmodel/isisengine/kahan"
)

// LineResult is one line's interpolated emissivity, keyed on its stable
// atomdb line index.
type LineResult struct {
	LineIndex  int
	Emissivity float64
}

// RescaleFunc returns the combined abundance/ionization rescaling factor to
// apply to a line of element z and ion stage q, per spec.md §4.4's
// "apply abundance and ionization rescalings... to each line in the
// result" step. A nil RescaleFunc leaves emissivities unscaled.
type RescaleFunc func(z, q int) float64

// InterpolatedLineBlock resolves the weighted sum of line emissivities
// across corners, using Kahan summation per line so that long line lists
// (tens of thousands of transitions) stay numerically robust (spec.md
// §4.7). The result contains every line index that appears in any corner,
// even if absent from others (treated as zero there).
func InterpolatedLineBlock(ctx context.Context, store *emisstore.Store, db *atomdb.Database, corners []Corner, rescale RescaleFunc) ([]LineResult, error) {
	sums := make(map[int]*kahan.Summer)
	order := make([]int, 0)

	for _, c := range corners {
		if c.Weight == 0 {
			continue
		}
		blk, err := store.LineBlockAt(ctx, c.Row.Locator)
		if err != nil {
			return nil, fmt.Errorf("interp: loading line block for corner %+v: %w", c.Row.Locator, err)
		}
		for _, e := range blk.Entries {
			s, ok := sums[e.LineIndex]
			if !ok {
				s = &kahan.Summer{}
				sums[e.LineIndex] = s
				order = append(order, e.LineIndex)
			}
			s.Add(c.Weight * e.Value)
		}
	}

	out := make([]LineResult, 0, len(order))
	for _, idx := range order {
		v := sums[idx].Sum()
		if rescale != nil {
			if line := db.GetLineFromIndex(idx); line != nil {
				v *= rescale(line.Z, line.Q)
			}
		}
		out = append(out, LineResult{LineIndex: idx, Emissivity: v})
	}
	return out, nil
}
