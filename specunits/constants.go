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

// Package specunits hosts the physical constants, atomic weights, element
// symbols, and roman-numeral conventions shared by the atomic database,
// the interpolator, and the model evaluator. The one place a plain float64
// scale factor is easy to get wrong by a power of ten — the plasma record's
// km/s-to-cm/s turbulent-velocity conversion — is done through a
// github.com/ctessum/unit value instead, so a mislabeled conversion factor
// produces a *unit.Unit whose Dimensions() no longer match a velocity
// instead of silently scaling by the wrong factor.
package specunits

import "github.com/ctessum/unit"

// Physical constants, CODATA 1998 values, matching the values the original
// ISIS atomic-database code was built against.
const (
	// PlanckH is Planck's constant, erg*s.
	PlanckH = 6.62606876e-27
	// BoltzmannK is Boltzmann's constant, erg/K.
	BoltzmannK = 1.3806503e-16
	// SpeedOfLight is the speed of light in vacuum, cm/s.
	SpeedOfLight = 2.99792458e10
	// AtomicMassUnit is 1 amu in grams.
	AtomicMassUnit = 1.66053873e-24
	// EVToErg converts electron-volts to ergs.
	EVToErg = 1.602176462e-12
	// KevAngstrom is hc expressed in keV*Å, i.e. the constant k such that
	// E[keV] = k / wavelength[Å].
	KevAngstrom = PlanckH * SpeedOfLight / (1000 * EVToErg) * 1e8
)

// MaxProtonNumber bounds the elements this database tracks (ISIS_MAX_PROTON_NUMBER).
const MaxProtonNumber = 30

// AtomicWeightAMU gives atomic weights for Z = 1..36, used by the thermal
// line profile's Doppler term. Values beyond MaxProtonNumber are carried so
// that emissivity tables referencing elements up to Kr do not fail to find
// a weight; the atomic database itself only accepts Z <= MaxProtonNumber.
var AtomicWeightAMU = [37]float64{
	0, // unused, Z is 1-origin
	1.00794, 4.002602, 6.941, 9.012182, 10.811, 12.0107, 14.0067, 15.9994,
	18.9984032, 20.1797, 22.98976928, 24.3050, 26.9815386, 28.0855,
	30.973762, 32.065, 35.453, 39.948, 39.0983, 40.078, 44.955912, 47.867,
	50.9415, 51.9961, 54.938045, 55.845, 58.933195, 58.6934, 63.546, 65.38,
	69.723, 72.64, 74.92160, 78.96, 79.904, 83.798,
}

// ElementSymbols gives the standard element symbol for Z = 1..36.
var ElementSymbols = [37]string{
	"", "H", "He", "Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar", "K", "Ca",
	"Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn",
	"Ga", "Ge", "As", "Se", "Br", "Kr",
}

var elementZ map[string]int

func init() {
	elementZ = make(map[string]int, len(ElementSymbols))
	for z, sym := range ElementSymbols {
		if sym != "" {
			elementZ[sym] = z
		}
	}
}

// ElementZ returns the proton number for the given element symbol
// (case-sensitive, matching the table's canonical capitalization), and
// false if the symbol is not recognized.
func ElementZ(symbol string) (int, bool) {
	z, ok := elementZ[symbol]
	return z, ok
}

// ElementSymbol returns the standard symbol for the given proton number,
// and false if it is out of the tabulated range.
func ElementSymbol(z int) (string, bool) {
	if z < 1 || z >= len(ElementSymbols) {
		return "", false
	}
	return ElementSymbols[z], true
}

// AtomicWeight returns the atomic weight in amu for the given proton
// number, or false if it is out of the tabulated range.
func AtomicWeight(z int) (float64, bool) {
	if z < 1 || z >= len(AtomicWeightAMU) {
		return 0, false
	}
	return AtomicWeightAMU[z], true
}

// IonFormat selects a display convention for ion charge, mirroring
// DB_Ion_Format (FMT_CHARGE / FMT_ROMAN / FMT_INT_ROMAN) in the original
// ISIS atomic database.
type IonFormat int

const (
	// FormatCharge displays the bare integer charge, e.g. "16+".
	FormatCharge IonFormat = iota
	// FormatRoman displays the roman numeral alone, e.g. "XVII".
	FormatRoman
	// FormatIntRoman displays the integer charge and roman numeral, e.g. "16 (XVII)".
	FormatIntRoman
)

var romanDigits = []struct {
	value  int
	symbol string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

// RomanNumeral returns the roman numeral for an ion charge q (0..36) using
// the spectroscopic convention that q=0 (neutral ion stage) is "I".
func RomanNumeral(q int) string {
	if q < 0 || q > 36 {
		return ""
	}
	n := q + 1
	var s string
	for _, d := range romanDigits {
		for n >= d.value {
			s += d.symbol
			n -= d.value
		}
	}
	return s
}

var velocityDims = unit.Dimensions{unit.LengthDim: 1, unit.TimeDim: -1}

// VelocityKmPerSecToCmPerSec converts a turbulent-velocity value from km/s
// to cm/s, per spec.md §4.6's plasma-record unit convention. The conversion
// factor is applied as a unit.Mul against a dimensionless scale rather than
// a bare multiply, so the result's dimensions are checked against
// velocityDims before being unwrapped back to a plain float64; a future
// change that multiplied by the wrong kind of factor would fail the check
// here instead of silently returning a wrong-by-a-power-of-ten value.
func VelocityKmPerSecToCmPerSec(kmPerSec float64) float64 {
	v := unit.New(kmPerSec, velocityDims)
	kmToCm := unit.New(1e5, unit.Dimensions{})
	cgs := unit.Mul(v, kmToCm)
	if !unit.DimensionsMatch(cgs, unit.New(0, velocityDims)) {
		panic("specunits: velocity conversion produced a non-velocity dimension")
	}
	return cgs.Value()
}
