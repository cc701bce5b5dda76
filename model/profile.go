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

package model

import (
	"math"

	"github.com/specmodel/isisengine/specunits"
)

// Grid is the caller-supplied output wavelength grid: bin (Lo[i], Hi[i])
// accumulates into Val[i].
type Grid struct {
	Lo, Hi, Val []float64
}

// faintWingCutoff is the relative-contribution threshold at which a
// profile stops walking outward from the centering bin, per spec.md §4.5.
const faintWingCutoff = 1e-4

// ProfileFunc distributes flux onto grid.Val, centered at binIndex, for a
// line at wavelength lambdaLine of an element with the given atomic
// weight. params and options are the profile's captured parameters,
// opaque to the evaluator, per spec.md §4.5's callable-with-captured-
// parameters protocol. A nil ProfileFunc means pure delta-function
// deposition (handled by the caller, not by this type).
type ProfileFunc func(grid *Grid, flux, lambdaLine, atomicWeight float64, binIndex int, params []float64, options map[string]interface{})

// ThermalProfile is the default Maxwellian line profile of spec.md §4.5:
//
//	f(Δλ) = ½[erf(Δλ_hi/(√2 σ)) − erf(Δλ_lo/(√2 σ))]
//	σ = (λ/c)·√(kT/(A·mᵤ) + ½ vturb²)
//
// params must be [temperatureKelvin, vturbCmPerSec]. The profile walks
// outward from binIndex in both directions, stopping as soon as a bin's
// contribution drops below faintWingCutoff times the centering bin's
// value.
func ThermalProfile(grid *Grid, flux, lambdaLine, atomicWeight float64, binIndex int, params []float64, options map[string]interface{}) {
	if binIndex < 0 || binIndex >= len(grid.Val) || len(params) < 2 {
		return
	}
	temperature, vturb := params[0], params[1]
	sigma := (lambdaLine / specunits.SpeedOfLight) *
		math.Sqrt(specunits.BoltzmannK*temperature/(atomicWeight*specunits.AtomicMassUnit)+0.5*vturb*vturb)
	if sigma <= 0 {
		grid.Val[binIndex] += flux
		return
	}
	denom := math.Sqrt2 * sigma

	fraction := func(lo, hi float64) float64 {
		return 0.5 * (math.Erf((hi-lambdaLine)/denom) - math.Erf((lo-lambdaLine)/denom))
	}

	center := flux * fraction(grid.Lo[binIndex], grid.Hi[binIndex])
	grid.Val[binIndex] += center
	if center == 0 {
		center = flux // guard against a zero center bin stalling the cutoff test
	}

	for i := binIndex - 1; i >= 0; i-- {
		v := flux * fraction(grid.Lo[i], grid.Hi[i])
		if math.Abs(v) < faintWingCutoff*math.Abs(center) {
			break
		}
		grid.Val[i] += v
	}
	for i := binIndex + 1; i < len(grid.Val); i++ {
		v := flux * fraction(grid.Lo[i], grid.Hi[i])
		if math.Abs(v) < faintWingCutoff*math.Abs(center) {
			break
		}
		grid.Val[i] += v
	}
}
