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

package atomdb

import (
	"context"
	"fmt"
)

// RawLine is one row of a line-list extension, already column-resolved by
// the table source (Wave_Obs preferred over Wavelen when both are
// positive, negative/sentinel rows dropped) per spec.md §6.
type RawLine struct {
	Wavelength, WavelengthErr float64
	A, AErr                   float64
	Upper, Lower              int
}

// LineExtension is one (Z, Q) line-list extension of a line-file source.
type LineExtension struct {
	Z, Q  int
	Lines []RawLine
}

// LineSource yields a stream of line-list extensions, one per (Z, Q) pair
// found in the underlying file(s). Concrete implementations (e.g. a
// cdf-backed NetCDF/FITS-analog reader) live in package tablesrc.
type LineSource interface {
	ReadLineExtensions(ctx context.Context) ([]LineExtension, error)
}

// RawLevel is one row of a level extension.
type RawLevel struct {
	Energy, StatWeight float64
	N, L               int
	S                  float64
	Label              string
}

// LevelExtension is one (Z, Q) level extension of a level-file source.
type LevelExtension struct {
	Z, Q   int
	Levels []RawLevel
}

// LevelSource yields a stream of level extensions, one per (Z, Q) pair.
type LevelSource interface {
	ReadLevelExtensions(ctx context.Context) ([]LevelExtension, error)
}

// Open loads zero-or-more energy-level sources and zero-or-more line-file
// sources into a fresh Database. A level-file failure is reported as a
// warning and does not prevent a line-file load, and vice versa; any read
// failure from a source is itself fatal for that source (IoError-flavored)
// but other sources still get a chance to load. ctx is sampled between
// files for cooperative cancellation, per spec.md §5.
func Open(ctx context.Context, levelSources []LevelSource, lineSources []LineSource) (*Database, error) {
	db := New()

	for _, ls := range levelSources {
		select {
		case <-ctx.Done():
			return db, ctx.Err()
		default:
		}
		exts, err := ls.ReadLevelExtensions(ctx)
		if err != nil {
			db.Log.Warnf("atomdb: failed to load level source: %v", err)
			continue
		}
		for _, ext := range exts {
			db.loadLevels(ext)
		}
	}

	var toMerge []pendingLine
	for _, src := range lineSources {
		select {
		case <-ctx.Done():
			return db, ctx.Err()
		default:
		}
		exts, err := src.ReadLineExtensions(ctx)
		if err != nil {
			db.Log.Warnf("atomdb: failed to load line source: %v", err)
			continue
		}
		for _, ext := range exts {
			for _, rl := range ext.Lines {
				toMerge = append(toMerge, pendingLine{
					wavelength:    rl.Wavelength,
					wavelengthErr: rl.WavelengthErr,
					a:             rl.A,
					aErr:          rl.AErr,
					z:             ext.Z,
					q:             ext.Q,
					upper:         rl.Upper,
					lower:         rl.Lower,
				})
			}
		}
	}
	if len(toMerge) > 0 {
		if err := db.mergePending(toMerge); err != nil {
			return db, err
		}
	}
	return db, nil
}

func (db *Database) loadLevels(ext LevelExtension) {
	key := ionKey{ext.Z, ext.Q}
	ion, ok := db.ions[key]
	if !ok {
		ion = &Ion{Z: ext.Z, Q: ext.Q}
		db.ions[key] = ion
	}
	ion.Levels = make([]*Level, len(ext.Levels))
	for i, rl := range ext.Levels {
		n, l := rl.N, rl.L
		if n == 0 {
			n = -1
		}
		if l == 0 {
			l = -1
		}
		ion.Levels[i] = &Level{
			Energy:     rl.Energy,
			StatWeight: rl.StatWeight,
			N:          n,
			L:          l,
			S:          rl.S,
			Label:      rl.Label,
			Index:      i + 1,
		}
	}
}

// pendingLine is an unresolved (wl, Z, q, upper, lower) candidate awaiting
// the dedup-then-commit merge step.
type pendingLine struct {
	wavelength, wavelengthErr float64
	a, aErr                   float64
	z, q, upper, lower        int
}

// MergeLines appends new lines described by additions, growing the hash
// table and rebuilding the wavelength-sorted permutation and branching-ratio
// cross references. Lines that already exist (by identity, per
// WavelengthTol) are skipped; the operation is therefore idempotent. The
// database is left unchanged if no new lines result.
func (db *Database) MergeLines(additions []RawLine, z, q int) error {
	pending := make([]pendingLine, len(additions))
	for i, a := range additions {
		pending[i] = pendingLine{
			wavelength: a.Wavelength, wavelengthErr: a.WavelengthErr,
			a: a.A, aErr: a.AErr, z: z, q: q, upper: a.Upper, lower: a.Lower,
		}
	}
	return db.mergePending(pending)
}

// DiscoveredLine is a line identity found by scanning an emissivity table
// for references the database doesn't yet know about (spec.md §4.3's
// resident-load two-pass protocol), with its own (Z, Q) unlike RawLine's
// additions which all share one (Z, Q) passed separately to MergeLines.
type DiscoveredLine struct {
	Wavelength, WavelengthErr float64
	Z, Q, Upper, Lower        int
}

// MergeDiscoveredLines merges a mixed-(Z,Q) batch of DiscoveredLine values
// found by an emissivity-table scan in one commit, the same dedup-then-
// build-hash-table protocol as MergeLines/Open's line-source loop uses for
// declared line-list extensions.
func (db *Database) MergeDiscoveredLines(lines []DiscoveredLine) error {
	pending := make([]pendingLine, len(lines))
	for i, l := range lines {
		pending[i] = pendingLine{
			wavelength: l.Wavelength, wavelengthErr: l.WavelengthErr,
			z: l.Z, q: l.Q, upper: l.Upper, lower: l.Lower,
		}
	}
	return db.mergePending(pending)
}

// mergePending is the shared commit path for Open and MergeLines: it
// dedups pending candidates against the current hash table (so repeated
// identical merges are no-ops), appends genuinely new lines to the dense
// array, and rebuilds the hash table and sorted permutation in one atomic
// step. Mutations are only applied after all candidates have been scanned,
// so a cancellation or error partway through scanning leaves db untouched.
func (db *Database) mergePending(pending []pendingLine) error {
	var fresh []pendingLine
	seen := make(map[[4]int]struct{ wl float64 })
	for _, p := range pending {
		if p.wavelength <= 0 || p.z < 1 || p.z > MaxProtonNumber {
			continue
		}
		if db.GetLine(p.wavelength, p.z, p.q, p.upper, p.lower) != nil {
			continue
		}
		key := [4]int{p.z, p.q, p.upper, p.lower}
		if prior, ok := seen[key]; ok {
			// already staged in this same batch; dedup within the batch too.
			if absRatioNear1(p.wavelength, prior.wl) {
				continue
			}
		}
		seen[key] = struct{ wl float64 }{p.wavelength}
		fresh = append(fresh, p)
	}
	if len(fresh) == 0 {
		return nil
	}

	start := len(db.lines)
	for i, p := range fresh {
		db.lines = append(db.lines, &Line{
			Wavelength:    p.wavelength,
			WavelengthErr: p.wavelengthErr,
			A:             p.a,
			AErr:          p.aErr,
			Z:             p.z,
			Q:             p.q,
			Upper:         p.upper,
			Lower:         p.lower,
			Index:         start + i,
		})
	}

	if err := db.buildHashTable(); err != nil {
		// Roll back: the hash table build failed part way through, so the
		// lines added in this call are discarded to keep the database
		// consistent (no half-merged state), per spec.md §5.
		db.lines = db.lines[:start]
		return err
	}
	db.Sort()
	db.rebuildDownTransitions()
	return nil
}

func absRatioNear1(a, b float64) bool {
	if b == 0 {
		return a == 0
	}
	r := a/b - 1
	if r < 0 {
		r = -r
	}
	return r < WavelengthTol
}

// rebuildDownTransitions rewalks every line and records it as a downward
// transition of its upper level, so branching-ratio reports stay correct
// after a merge. Back-references are stored as line indices (not pointers)
// into the dense line array, per the design note in spec.md §9: this keeps
// Level and Line from forming an ownership cycle.
func (db *Database) rebuildDownTransitions() {
	for _, ion := range db.ions {
		for _, lvl := range ion.Levels {
			lvl.Down = lvl.Down[:0]
		}
	}
	for _, line := range db.lines {
		ion := db.ions[ionKey{line.Z, line.Q}]
		if ion == nil || line.Upper < 1 || line.Upper > len(ion.Levels) {
			continue
		}
		lvl := ion.Levels[line.Upper-1]
		lvl.Down = append(lvl.Down, line.Index)
	}
}

// BranchingRatio is one downward transition of a level, with its branching
// ratio (its A-coefficient over the sum of A-coefficients of every
// downward transition from the same upper level). Supplemented from
// original_source/src/db-atomic.c's DB_print_branching_for_ion, which the
// distilled spec dropped.
type BranchingRatio struct {
	Line  *Line
	Ratio float64
}

// BranchingRatios returns the downward-transition branching ratios for
// every populated level of ion (Z, Q).
func (db *Database) BranchingRatios(z, q int) ([]BranchingRatio, error) {
	ion := db.GetIon(z, q)
	if ion == nil {
		return nil, fmt.Errorf("atomdb: no ion record for Z=%d q=%d", z, q)
	}
	var out []BranchingRatio
	for _, lvl := range ion.Levels {
		if len(lvl.Down) == 0 {
			continue
		}
		total := 0.0
		lines := make([]*Line, len(lvl.Down))
		for i, idx := range lvl.Down {
			l := db.GetLineFromIndex(idx)
			lines[i] = l
			total += l.A
		}
		for _, l := range lines {
			ratio := 0.0
			if total > 0 {
				ratio = l.A / total
			}
			out = append(out, BranchingRatio{Line: l, Ratio: ratio})
		}
	}
	return out, nil
}
