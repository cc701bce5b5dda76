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
	"fmt"
	"math"
)

// hashPrimary computes the primary hash of a candidate line identity,
// folding the five most significant decimal digits of the wavelength
// mantissa together with the transition indices and ion identity, reduced
// modulo the table size after each shift-add step. This mirrors the
// original DB_hash bit-packing scheme exactly (db-atomic.c), since the spec
// requires emissivity tables and the atomic inventory to agree on line
// identity bit-for-bit.
func hashPrimary(wl float64, z, q, upper, lower, size int) int {
	if wl <= 0 || size <= 0 {
		return 0
	}
	xp := hashDigits - 1 - int(math.Floor(math.Log10(wl)))
	iwl := int(math.Floor(wl * math.Pow(10, float64(xp))))

	h := uint64(upper)
	h = (h<<4 + uint64(q)) % uint64(size)
	h = (h<<12 + uint64(lower)) % uint64(size)
	h = (h<<4 + uint64(z)) % uint64(size)
	h = (h<<12 + uint64(iwl)) % uint64(size)
	return int(h)
}

// hashSecondary computes the double-hashing probe step for a given ion.
func hashSecondary(z, q int) int {
	return (11*z+q)%53 + 1
}

// buildHashTable allocates a fresh open-addressed table sized to the next
// prime >= 2*len(db.lines) and inserts every line via double hashing.
// Returns DatabaseCorruption-flavored error if probing ever exceeds the
// safety bound (more misses than there are lines).
func (db *Database) buildHashTable() error {
	n := len(db.lines)
	size := nextTableSize(n)
	table := make([]*Line, size)
	maxMisses := 0

	for _, line := range db.lines {
		h := hashPrimary(line.Wavelength, line.Z, line.Q, line.Upper, line.Lower, size)
		step := hashSecondary(line.Z, line.Q)
		misses := 0
		for table[h] != nil {
			h = (h + step) % size
			misses++
			if misses > n {
				return fmt.Errorf("atomdb: hash table corruption: probe exceeded %d misses inserting %s", n, line)
			}
		}
		table[h] = line
		if misses > maxMisses {
			maxMisses = misses
		}
	}
	if maxMisses > 128 {
		db.Log.Warnf("atomdb: hash table insertion required %d misses (> 128), consider a larger table", maxMisses)
	}
	db.table = table
	db.tableSize = size
	db.maxHashMisses = maxMisses
	return nil
}

// GetLine performs the O(1) exact-identity lookup: it searches the hash
// table's probe sequence for (wl, Z, q, upper, lower) under the
// wavelength-tolerance invariant, returning nil if no matching slot is
// found before an empty slot terminates the probe.
func (db *Database) GetLine(wl float64, z, q, upper, lower int) *Line {
	if db.tableSize == 0 {
		return nil
	}
	h := hashPrimary(wl, z, q, upper, lower, db.tableSize)
	step := hashSecondary(z, q)
	misses := 0
	for {
		slot := db.table[h]
		if slot == nil {
			return nil
		}
		if sameIdentity(z, q, upper, lower, wl, slot) {
			return slot
		}
		h = (h + step) % db.tableSize
		misses++
		if misses > len(db.lines) {
			return nil
		}
	}
}
