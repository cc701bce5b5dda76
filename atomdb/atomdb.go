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

// Package atomdb is the content-addressed atomic line database (C1): the
// canonical, dense, 0-origin array of transition records plus a
// double-hashed open-addressing index that finds a specific line's identity
// in O(1), and the per-ion energy-level records those lines branch from.
//
// Grounded on the original ISIS db-atomic.c/db-atomic.h (see
// _examples/original_source) for the hashing protocol and field layout, and
// on the teacher's (github.com/spatialmodel/inmap) convention of a flat,
// densely-indexed slice of owned records (vargrid.go's Cell array) with
// derived indices rebuilt atomically rather than long-lived pointers into a
// growing slice.
package atomdb

import (
	"fmt"
	"iter"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// WavelengthTol is the relative wavelength tolerance used for line identity
// comparisons: two lines are the "same" transition iff {Z, q, upper, lower}
// match exactly and |wl_a/wl_b - 1| < WavelengthTol.
const WavelengthTol = 1e-5

// MaxProtonNumber bounds Z for lines accepted into this database.
const MaxProtonNumber = 30

// hashDigits is the number of significant decimal digits of the wavelength
// mantissa folded into the primary hash (NHASH_DIGITS in the original).
const hashDigits = 5

// Line is a single atomic transition between two levels of one ionization
// stage of one element.
type Line struct {
	Wavelength    float64 // Å, observed if available else theoretical
	WavelengthErr float64 // Å
	A             float64 // Einstein coefficient, s^-1
	AErr          float64 // s^-1
	Z             int     // proton number
	Q             int     // ion charge, 0 = neutral
	Upper         int     // upper level index, 1-origin
	Lower         int     // lower level index, 1-origin
	Flux          float64 // scratch field, written by the model evaluator
	// HaveEmissivityData is set by emisstore once a loaded line-emissivity
	// block resolves a datum for this line, so a caller walking the
	// database can tell a line with no tabulated emissivity apart from one
	// that simply hasn't been looked up yet.
	HaveEmissivityData bool
	Index         int // stable 0-origin position in the database's line array
}

// sameIdentity reports whether a and b refer to the same physical
// transition under the wavelength-tolerance invariant.
func sameIdentity(z, q, up, lo int, wl float64, b *Line) bool {
	if b.Z != z || b.Q != q || b.Upper != up || b.Lower != lo {
		return false
	}
	return math.Abs(wl/b.Wavelength-1) < WavelengthTol
}

// Level is a single energy level of one (Z, Q) ion. Index 1 (ground state)
// is stored at array offset 0.
type Level struct {
	Energy     float64 // eV
	StatWeight float64
	N, L       int // quantum numbers, -1 if unknown
	S          float64
	Label      string
	Index      int   // 1-origin level index, ground state = 1
	Down       []int // line indices of downward transitions out of this level
}

// Ion is the collection of energy levels for one (Z, Q) pair.
type Ion struct {
	Z, Q   int
	Levels []*Level // index i holds level i+1
}

type ionKey struct{ z, q int }

// Database owns the canonical line array, its derived hash table and
// wavelength-sorted permutation, and the per-ion level records. Once built,
// line indices never move; merge_lines grows the array and rebuilds all
// derived views atomically.
type Database struct {
	// ID is an opaque handle minted once per Database, stamped the way
	// turtacn-KeyIP-Intelligence mints a uuid.UUID per domain entity. It
	// identifies this built instance to external callers (log
	// correlation, cache namespacing in package emisstore) without
	// exposing anything about line count or build order.
	ID uuid.UUID

	lines []*Line // dense, 0-origin, stable indices

	// sortedIndex[i] is the line index of the i'th line in ascending
	// wavelength order.
	sortedIndex []int

	table       []*Line // open-addressed hash table, nil slot = empty
	tableSize   int
	maxHashMisses int

	ions map[ionKey]*Ion

	// Log receives severity-tagged progress and warning messages; defaults
	// to logrus.StandardLogger() the way inmap's long-lived service types
	// default their logger field.
	Log logrus.FieldLogger
}

// primeSizes is the fixed prime-size ladder used to pick a hash table size
// (PRIME_LIST in db-atomic.h), extended with doubling-ish primes up to
// 2^32-1.
var primeSizes = []uint64{
	16381, 32749, 65521, 131071, 262139,
	524287, 1048573, 2097143, 4194301, 8388593,
	16777213, 33554393, 67108859, 134217689, 268435399,
	536870909, 1073741789, 4294967291,
}

// nextTableSize returns the smallest prime in primeSizes that is >= 2*n.
func nextTableSize(n int) int {
	need := uint64(2 * n)
	for _, p := range primeSizes {
		if p >= need {
			return int(p)
		}
	}
	return int(primeSizes[len(primeSizes)-1])
}

// New creates an empty Database ready to accept lines via MergeLines.
func New() *Database {
	return &Database{
		ID:   uuid.New(),
		ions: make(map[ionKey]*Ion),
		Log:  logrus.StandardLogger(),
	}
}

// GetNLines returns the number of lines currently in the database.
func (db *Database) GetNLines() int { return len(db.lines) }

// GetLineFromIndex returns the line at the given dense array index, or nil
// if the index is out of range.
func (db *Database) GetLineFromIndex(i int) *Line {
	if i < 0 || i >= len(db.lines) {
		return nil
	}
	return db.lines[i]
}

// GetLineByIndices performs a brute-force scan for the line identified by
// (Z, Q, upper, lower), ignoring wavelength. Returns nil if not found.
func (db *Database) GetLineByIndices(z, q, upper, lower int) *Line {
	for _, l := range db.lines {
		if l.Z == z && l.Q == q && l.Upper == upper && l.Lower == lower {
			return l
		}
	}
	return nil
}

// GetIon returns the Ion record for (Z, Q), or nil if no levels have been
// loaded for that ion.
func (db *Database) GetIon(z, q int) *Ion {
	return db.ions[ionKey{z, q}]
}

// GetIonLevel returns the 1-origin level `index` of ion, or nil if out of
// range.
func (db *Database) GetIonLevel(ion *Ion, index int) *Level {
	if ion == nil || index < 1 || index > len(ion.Levels) {
		return nil
	}
	return ion.Levels[index-1]
}

// GetLevelLabel returns the text label of level `index` of ion (Z, Q), or
// "" if the level does not exist.
func (db *Database) GetLevelLabel(z, q, index int) string {
	lvl := db.GetIonLevel(db.GetIon(z, q), index)
	if lvl == nil {
		return ""
	}
	return lvl.Label
}

// ZeroLineFlux clears the scratch Flux field of every line.
func (db *Database) ZeroLineFlux() {
	for _, l := range db.lines {
		l.Flux = 0
	}
}

// SetLineWavelength mutates a line's wavelength in place.
//
// It deliberately does NOT rebuild the hash table: this preserves a
// documented behavior (arguably a bug) of the original ISIS implementation,
// where exact-identity lookups for the edited line can fail to find it,
// because its hash slot was chosen from the old wavelength. Sort restores
// the wavelength permutation but leaves the hash table as it is; the table
// is rebuilt only when a later merge adds at least one new line.
func (db *Database) SetLineWavelength(line *Line, newWL, newErr float64) {
	line.Wavelength = newWL
	line.WavelengthErr = newErr
}

// Sort rebuilds the wavelength-ascending permutation after a direct
// wavelength edit (SetLineWavelength). It does not touch the hash table.
func (db *Database) Sort() {
	idx := make([]int, len(db.lines))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return db.lines[idx[a]].Wavelength < db.lines[idx[b]].Wavelength
	})
	db.sortedIndex = idx
}

// SortedIndices returns the wavelength-ascending permutation of line
// indices built by the last Sort or MergeLines call.
func (db *Database) SortedIndices() []int { return db.sortedIndex }

// MaxHashMisses returns the largest number of probes observed during
// construction of the current hash table.
func (db *Database) MaxHashMisses() int { return db.maxHashMisses }

// Lines returns the full line slice in declared-index order for read-only
// traversal (used by tests and the dump command; mirrors the original
// implementation's internal list walks used by atom-cmds.c's
// list_db_lines style introspection commands).
func (db *Database) Lines() []*Line {
	return db.lines
}

// All returns a range-over-func iterator over the database's lines in
// declared-index order, for callers that want to stop early without
// copying the backing slice (e.g. cmd/specgen's dump command).
func (db *Database) All() iter.Seq[*Line] {
	return func(yield func(*Line) bool) {
		for _, l := range db.lines {
			if !yield(l) {
				return
			}
		}
	}
}

func (l *Line) String() string {
	return fmt.Sprintf("%.4fA Z=%d q=%d %d->%d", l.Wavelength, l.Z, l.Q, l.Upper, l.Lower)
}
