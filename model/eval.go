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
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/specmodel/isisengine/atomdb"
	"github.com/specmodel/isisengine/atomgroup"
	"github.com/specmodel/isisengine/emisstore"
	"github.com/specmodel/isisengine/interp"
	"github.com/specmodel/isisengine/kahan"
	"github.com/specmodel/isisengine/plasma"
	"github.com/specmodel/isisengine/specunits"
)

// LineModifierFunc replaces a line's interpolated emissivity with a
// caller-computed value, per spec.md §4.5's modifier-callback protocol.
// params and extra are opaque captured parameters; t and ne are the
// component's temperature and density.
type LineModifierFunc func(params []float64, lineIndex int, t, ne, currentEmissivity float64, extra ...interface{}) float64

// IonBalanceFunc returns a full replacement ion-population matrix indexed
// [z][q], given the previous matrix (nil on the first call for a
// component). params and extra are opaque captured parameters.
type IonBalanceFunc func(params []float64, t, ne float64, previous [][]float64, extra ...interface{}) [][]float64

// Qualifiers bundles the optional per-Eval-call behavior of spec.md §4.5:
// a line-spreading profile, a per-line flux modifier, an ion-balance
// override, a line-list filter, and a contribution-flag selector.
type Qualifiers struct {
	Profile        ProfileFunc
	ProfileParams  []float64
	ProfileOptions map[string]interface{}

	LineModifier       LineModifierFunc
	LineModifierParams []float64

	IonBalance       IonBalanceFunc
	IonBalanceParams []float64

	Filter      atomgroup.Filter
	ContribFlag ContribFlag

	// Derived, if set, is evaluated against each component's LineFlux (keyed
	// as "line_<index>") after deposition, populating the component's
	// DerivedFlux.
	Derived *DerivedSet
}

// Evaluator implements spec.md §4.5 (component C5): it drives package
// interp's corner selection and block merging for every component of a
// plasma.Model and deposits the result onto the caller's grid.
type Evaluator struct {
	DB    *atomdb.Database
	Store *emisstore.Store
	Log   logrus.FieldLogger

	lastIonPop map[int][][]float64 // component ID -> last ion-population matrix
}

// NewEvaluator returns an Evaluator for db and store.
func NewEvaluator(db *atomdb.Database, store *emisstore.Store) *Evaluator {
	return &Evaluator{DB: db, Store: store, Log: logrus.StandardLogger(), lastIonPop: make(map[int][][]float64)}
}

// Eval implements spec.md §4.5's eval(model, lo, hi, info, out) operation.
// Preconditions: lo and hi are monotonic ascending with lo_i < hi_i <
// lo_{i+1}; out has the same length as lo and hi.
func (e *Evaluator) Eval(ctx context.Context, m *plasma.Model, lo, hi []float64, info Qualifiers, out []float64) error {
	if len(lo) != len(hi) || len(lo) != len(out) {
		return fmt.Errorf("model: lo/hi/out length mismatch: %d/%d/%d", len(lo), len(hi), len(out))
	}
	for i := range out {
		out[i] = 0
	}
	flag := normalize(info.ContribFlag, e.Log)

	for _, c := range m.Components() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := e.evalComponent(ctx, c, lo, hi, info, flag, out); err != nil {
			return fmt.Errorf("model: component %d: %w", c.ID, err)
		}
	}
	return nil
}

func (e *Evaluator) evalComponent(ctx context.Context, c *plasma.Component, lo, hi []float64, info Qualifiers, flag ContribFlag, out []float64) error {
	for k := range c.LineFlux {
		delete(c.LineFlux, k)
	}
	if c.Norm == 0 {
		return nil
	}

	target := out
	var working []float64
	hasRedshift := c.Redshift != 0
	if hasRedshift {
		working = make([]float64, len(out))
		target = working
	}

	restLo := make([]float64, len(lo))
	restHi := make([]float64, len(hi))
	for i := range lo {
		restLo[i] = lo[i] / (1 + c.Redshift)
		restHi[i] = hi[i] / (1 + c.Redshift)
	}

	var ionPop [][]float64
	if info.IonBalance != nil {
		ionPop = info.IonBalance(info.IonBalanceParams, c.Temperature, c.Density, e.lastIonPop[c.ID], c.ID)
		e.lastIonPop[c.ID] = ionPop
	}

	corners, err := interp.SelectCorners(e.Store.Rows, e.Store.NumTemps, e.Store.NumDensities, c.Temperature, c.Density)
	if err != nil {
		return err
	}

	if flag.wantsLines() {
		if err := e.depositLines(ctx, c, corners, restLo, restHi, info, ionPop, target); err != nil {
			return err
		}
	}
	if flag.wantsTrue() || flag.wantsPseudo() {
		if err := e.depositContinuum(ctx, c, corners, flag, restLo, restHi, ionPop, target); err != nil {
			return err
		}
	}

	if hasRedshift {
		beta := (math.Pow(1+c.Redshift, 2) - 1) / (math.Pow(1+c.Redshift, 2) + 1)
		gammaInv := math.Sqrt(1 - beta*beta)
		for i := range out {
			out[i] += working[i] * gammaInv
		}
	}
	if e.Log != nil {
		e.Log.Debugf("model: component %d deposited total flux %g", c.ID, floats.Sum(target))
	}

	if info.Derived != nil {
		vars := make(map[string]float64, len(c.LineFlux))
		for idx, flux := range c.LineFlux {
			vars[fmt.Sprintf("line_%d", idx)] = flux
		}
		derived, err := info.Derived.Evaluate(vars)
		if err != nil {
			return fmt.Errorf("model: derived variables for component %d: %w", c.ID, err)
		}
		c.DerivedFlux = derived
	}
	return nil
}

func (e *Evaluator) depositLines(ctx context.Context, c *plasma.Component, corners []interp.Corner, restLo, restHi []float64, info Qualifiers, ionPop [][]float64, target []float64) error {
	rescale := func(z, q int) float64 {
		factor := 1.0
		if sym, ok := specunits.ElementSymbol(z); ok {
			factor *= e.Store.Abundance().AbundanceFactor(sym)
		}
		factor *= e.ionizFactor(z, q, c.Temperature, ionPop)
		return factor
	}

	lines, err := interp.InterpolatedLineBlock(ctx, e.Store, e.DB, corners, rescale)
	if err != nil {
		return err
	}

	grid := &Grid{Lo: restLo, Hi: restHi, Val: target}
	n := len(restLo)
	for _, lr := range lines {
		line := e.DB.GetLineFromIndex(lr.LineIndex)
		if line == nil {
			continue
		}
		if info.Filter != nil && !info.Filter.Match(line) {
			continue
		}
		emis := lr.Emissivity
		if info.LineModifier != nil {
			emis = info.LineModifier(info.LineModifierParams, lr.LineIndex, c.Temperature, c.Density, emis, c.ID)
		}
		if emis <= 0 {
			continue
		}
		if line.Wavelength < restLo[0] || line.Wavelength >= restHi[n-1] {
			continue
		}
		mid := kahan.FindBin(line.Wavelength, restLo, restHi, n)
		if mid < 0 {
			continue
		}

		rel := 1.0
		if line.Z >= 1 && line.Z < len(c.RelAbund) {
			rel = c.RelAbund[line.Z]
		}
		flux := c.Norm * emis * rel
		line.Flux += flux
		c.LineFlux[lr.LineIndex] += flux

		if info.Profile != nil {
			weight, _ := specunits.AtomicWeight(line.Z)
			params := info.ProfileParams
			if len(params) == 0 {
				params = []float64{c.Temperature, c.Vturb}
			}
			info.Profile(grid, flux, line.Wavelength, weight, mid, params, info.ProfileOptions)
		} else {
			target[mid] += flux
		}
	}
	return nil
}

func (e *Evaluator) depositContinuum(ctx context.Context, c *plasma.Component, corners []interp.Corner, flag ContribFlag, restLo, restHi []float64, ionPop [][]float64, target []float64) error {
	scale := func(z, q int) float64 {
		if z == 0 {
			return 1
		}
		factor := 1.0
		if sym, ok := specunits.ElementSymbol(z); ok {
			factor *= e.Store.Abundance().AbundanceFactor(sym)
		}
		factor *= e.ionizFactor(z, q, c.Temperature, ionPop)
		if z < len(c.RelAbund) {
			factor *= c.RelAbund[z]
		}
		return factor
	}

	result, err := interp.InterpolatedContinuum(ctx, e.Store, corners, interp.ContinuumTarget{Z: 0, Q: -1}, scale, restLo, restHi)
	if err != nil {
		return err
	}
	for i := range target {
		if flag.wantsTrue() {
			target[i] += c.Norm * result.True[i]
		}
		if flag.wantsPseudo() {
			target[i] += c.Norm * result.Pseudo[i]
		}
	}
	return nil
}

// ionizFactor returns the ratio of an ion-balance override to the store's
// natively tabulated ion fraction, or 1 when no override is active or the
// native table has nothing to compare against (see SPEC_FULL.md §14's
// Open Question decision: ion-fraction interpolation here is temperature-
// only, density is ignored).
func (e *Evaluator) ionizFactor(z, q int, t float64, ionPop [][]float64) float64 {
	if ionPop == nil {
		return 1
	}
	if z < 0 || z >= len(ionPop) || q < 0 || q >= len(ionPop[z]) {
		return 1
	}
	override := ionPop[z][q]
	tab := e.Store.IonFractionTable("default")
	if tab == nil {
		return 1
	}
	native, err := tab.IonFraction(z, q, t, func(msg string) { e.Log.Warn(msg) })
	if err != nil || native <= 0 {
		return 1
	}
	return override / native
}
