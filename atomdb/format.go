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

	"github.com/specmodel/isisengine/specunits"
)

// IonName formats an ion's (Z, Q) pair for display, supporting the three
// conventions of the original ISIS DB_get_ion_name/DB_Ion_Format: bare
// charge, roman numeral, or both. Supplemented from
// original_source/src/db-atomic.c (dropped by the distilled spec.md).
func IonName(z, q int, format specunits.IonFormat) (string, error) {
	sym := specunits.ElementSymbols[0]
	if z >= 1 && z < len(specunits.ElementSymbols) {
		sym = specunits.ElementSymbols[z]
	}
	if sym == "" {
		return "", fmt.Errorf("atomdb: no element symbol for Z=%d", z)
	}
	switch format {
	case specunits.FormatCharge:
		return fmt.Sprintf("%s %d+", sym, q), nil
	case specunits.FormatRoman:
		return fmt.Sprintf("%s %s", sym, specunits.RomanNumeral(q)), nil
	case specunits.FormatIntRoman:
		return fmt.Sprintf("%s %d (%s)", sym, q, specunits.RomanNumeral(q)), nil
	default:
		return "", fmt.Errorf("atomdb: unrecognized ion name format %v", format)
	}
}

// LineNamestring formats a line's full identity for display, combining its
// ion name and wavelength. Supplemented from db-atomic.c's
// DB_get_line_namestring.
func (l *Line) LineNamestring(format specunits.IonFormat) string {
	ion, err := IonName(l.Z, l.Q, format)
	if err != nil {
		ion = fmt.Sprintf("Z=%d q=%d", l.Z, l.Q)
	}
	return fmt.Sprintf("%s %.4f", ion, l.Wavelength)
}
