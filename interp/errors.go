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

import "errors"

// errDatabaseCorruption marks a failed corner lookup as the spec.md §7
// DatabaseCorruption class: a fatal condition for the current call that
// should propagate and, at a higher layer, trigger an interrupt.
var errDatabaseCorruption = errors.New("interp: interpolation corner could not be found")

// IsDatabaseCorruption reports whether err (or anything it wraps) is the
// interpolator's DatabaseCorruption condition.
func IsDatabaseCorruption(err error) bool {
	return errors.Is(err, errDatabaseCorruption)
}
